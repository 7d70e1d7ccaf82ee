package util

import "unsafe"

// B2S converts b to a string without copying.
// The caller must never modify b while the string is alive.
func B2S(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// AppendLower appends the ASCII lower-cased s to b.
func AppendLower[T ~string | ~[]byte](b []byte, s T) []byte {
	for i := range len(s) {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return b
}
