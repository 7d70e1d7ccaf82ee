package scan

import (
	"strconv"

	"github.com/ghettovoice/textmsg/internal/constraints"
)

// IP4Address returns the length of the dotted-quad IPv4 address at the start of s.
// Each group is 1-3 digits not exceeding 255 and without redundant leading zeros.
func IP4Address[T constraints.Byteseq](s T) int {
	n, _ := scanIP4(s)
	return n
}

func scanIP4[T constraints.Byteseq](s T) (int, [4]byte) {
	var (
		addr [4]byte
		i    int
	)
	for g := range 4 {
		if g > 0 {
			if i >= len(s) || s[i] != '.' {
				return 0, addr
			}
			i++
		}
		d := SpanDigit(s[i:])
		if d == 0 || d > 3 || d > 1 && s[i] == '0' {
			return 0, addr
		}
		v := 0
		for k := i; k < i+d; k++ {
			v = v*10 + int(s[k]-'0')
		}
		if v > 255 {
			return 0, addr
		}
		addr[g] = byte(v)
		i += d
	}
	if i < len(s) && (IsAlnum(s[i]) || s[i] == '.' || s[i] == '-') {
		return 0, addr
	}
	return i, addr
}

type ip6 struct {
	groups [8]uint16
	n      int  // number of groups, a dotted quad counts as two
	comp   int  // index of "::" or -1
	ip4    bool // ends with a dotted quad
}

// IP6Address returns the length of the IPv6 address at the start of s.
// The address has eight groups or exactly one "::" compression and may end with a dotted quad.
func IP6Address[T constraints.Byteseq](s T) int {
	n, _ := scanIP6(s)
	return n
}

// IP6Reference returns the length of the bracketed IPv6 reference at the start of s.
func IP6Reference[T constraints.Byteseq](s T) int {
	if len(s) < 2 || s[0] != '[' {
		return 0
	}
	n := IP6Address(s[1:])
	if n == 0 || 1+n >= len(s) || s[1+n] != ']' {
		return 0
	}
	return n + 2
}

// ScanIP6Address canonicalizes the IPv6 address at the start of s.
// Leading zeros are stripped and the longest run of two or more zero groups becomes "::".
// It returns the canonical text and the number of bytes consumed, or ("", 0).
func ScanIP6Address[T constraints.Byteseq](s T) (string, int) {
	n, a := scanIP6(s)
	if n == 0 {
		return "", 0
	}
	return a.canonical(), n
}

// ScanIP6Reference is like [ScanIP6Address] for the bracketed form.
func ScanIP6Reference[T constraints.Byteseq](s T) (string, int) {
	n := IP6Reference(s)
	if n == 0 {
		return "", 0
	}
	addr, _ := ScanIP6Address(s[1 : n-1])
	return "[" + addr + "]", n
}

func scanIP6[T constraints.Byteseq](s T) (int, ip6) {
	a := ip6{comp: -1}
	i := 0
	if len(s) >= 2 && s[0] == ':' && s[1] == ':' {
		a.comp = 0
		i = 2
	}
	for a.n < 8 {
		if a.n <= 6 && (a.comp >= 0 || a.n == 6) {
			if m, q := scanIP4(s[i:]); m > 0 {
				a.groups[a.n] = uint16(q[0])<<8 | uint16(q[1])
				a.groups[a.n+1] = uint16(q[2])<<8 | uint16(q[3])
				a.n += 2
				a.ip4 = true
				i += m
				break
			}
		}
		h := SpanHex(s[i:])
		if h == 0 {
			if i > 0 && s[i-1] == ':' && !(a.comp >= 0 && a.comp == a.n && i >= 2 && s[i-2] == ':') {
				i-- // dangling single colon is not part of the address
			}
			break
		}
		if h > 4 {
			return 0, a
		}
		var v uint16
		for k := i; k < i+h; k++ {
			v = v<<4 | uint16(unhex(s[k]))
		}
		a.groups[a.n] = v
		a.n++
		i += h
		if a.n == 8 || i >= len(s) || s[i] != ':' {
			break
		}
		if i+1 < len(s) && s[i+1] == ':' {
			if a.comp >= 0 {
				return 0, a
			}
			a.comp = a.n
			i += 2
			continue
		}
		i++
	}
	if a.comp < 0 && a.n != 8 || a.comp >= 0 && a.n > 7 {
		return 0, a
	}
	if i < len(s) && (IsHex(s[i]) || s[i] == '.') {
		return 0, a
	}
	return i, a
}

func (a ip6) expand() [8]uint16 {
	if a.comp < 0 {
		return a.groups
	}
	var out [8]uint16
	copy(out[:], a.groups[:a.comp])
	tail := a.groups[a.comp:a.n]
	copy(out[8-len(tail):], tail)
	return out
}

func (a ip6) canonical() string {
	g := a.expand()
	last := 8
	if a.ip4 {
		last = 6
	}
	// longest run of zero groups
	best, bestLen := -1, 1
	for i := 0; i < last; {
		if g[i] != 0 {
			i++
			continue
		}
		j := i
		for j < last && g[j] == 0 {
			j++
		}
		if j-i > bestLen {
			best, bestLen = i, j-i
		}
		i = j
	}

	b := make([]byte, 0, 46)
	for i := 0; i < last; i++ {
		if i == best {
			b = append(b, ':', ':')
			i += bestLen - 1
			continue
		}
		if i > 0 && i != best+bestLen {
			b = append(b, ':')
		}
		b = strconv.AppendUint(b, uint64(g[i]), 16)
	}
	if a.ip4 {
		if last > 0 && best+bestLen != last {
			b = append(b, ':')
		}
		b = strconv.AppendUint(b, uint64(g[6]>>8), 10)
		b = append(b, '.')
		b = strconv.AppendUint(b, uint64(g[6]&0xff), 10)
		b = append(b, '.')
		b = strconv.AppendUint(b, uint64(g[7]>>8), 10)
		b = append(b, '.')
		b = strconv.AppendUint(b, uint64(g[7]&0xff), 10)
	}
	return string(b)
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}
