package scan

import "github.com/ghettovoice/textmsg/internal/constraints"

// Class is a set of character classes a byte belongs to.
type Class uint16

const (
	ClassWS         Class = 1 << iota // SP, HTAB
	ClassCRLF                         // CR, LF
	ClassAlpha                        // A-Z, a-z
	ClassDigit                        // 0-9
	ClassHex                          // 0-9, A-F, a-f
	ClassUnreserved                   // URL unreserved: alphanum and mark
	ClassMark                         // URL mark: - _ . ! ~ * ' ( )
	ClassSeparator                    // RFC 2616 separators
	ClassToken                        // token characters
	ClassParam                        // parameter value characters: token plus [ ] :

	ClassLWS   = ClassWS | ClassCRLF
	ClassAlnum = ClassAlpha | ClassDigit
)

const (
	markChars      = "-_.!~*'()"
	separatorChars = "()<>@,;:\\\"/[]?={} \t"
	tokenChars     = "-.!%*_+`'~"
	paramChars     = "[]:"
)

var table [256]Class

func init() {
	set := func(chars string, cl Class) {
		for i := range len(chars) {
			table[chars[i]] |= cl
		}
	}
	for c := 'a'; c <= 'z'; c++ {
		table[c] |= ClassAlpha | ClassUnreserved | ClassToken | ClassParam
		table[c-'a'+'A'] |= ClassAlpha | ClassUnreserved | ClassToken | ClassParam
	}
	for c := '0'; c <= '9'; c++ {
		table[c] |= ClassDigit | ClassHex | ClassUnreserved | ClassToken | ClassParam
	}
	set("abcdefABCDEF", ClassHex)
	set(" \t", ClassWS)
	set("\r\n", ClassCRLF)
	set(markChars, ClassMark|ClassUnreserved)
	set(separatorChars, ClassSeparator)
	set(tokenChars, ClassToken|ClassParam)
	set(paramChars, ClassParam)
}

// Lookup returns the classes of c.
func Lookup(c byte) Class { return table[c] }

// Is reports whether c belongs to any of the classes in cl.
func Is(c byte, cl Class) bool { return table[c]&cl != 0 }

// IsWS reports whether c is a space or horizontal tab.
func IsWS(c byte) bool { return table[c]&ClassWS != 0 }

// IsLWS reports whether c is a blank or a line break byte.
func IsLWS(c byte) bool { return table[c]&ClassLWS != 0 }

// IsCRLF reports whether c is CR or LF.
func IsCRLF(c byte) bool { return table[c]&ClassCRLF != 0 }

// IsDigit reports whether c is a decimal digit.
func IsDigit(c byte) bool { return table[c]&ClassDigit != 0 }

// IsHex reports whether c is a hexadecimal digit.
func IsHex(c byte) bool { return table[c]&ClassHex != 0 }

// IsAlnum reports whether c is an ASCII letter or digit.
func IsAlnum(c byte) bool { return table[c]&ClassAlnum != 0 }

// IsToken reports whether c may appear in a token.
func IsToken(c byte) bool { return table[c]&ClassToken != 0 }

// IsParam reports whether c may appear in an unquoted parameter value.
func IsParam(c byte) bool { return table[c]&ClassParam != 0 }

// IsSeparator reports whether c is a separator character.
func IsSeparator(c byte) bool { return table[c]&ClassSeparator != 0 }

// Span returns the length of the leading run of bytes belonging to cl.
func Span[T constraints.Byteseq](s T, cl Class) int {
	for i := range len(s) {
		if table[s[i]]&cl == 0 {
			return i
		}
	}
	return len(s)
}

// SpanNot returns the length of the leading run of bytes not belonging to cl.
func SpanNot[T constraints.Byteseq](s T, cl Class) int {
	for i := range len(s) {
		if table[s[i]]&cl != 0 {
			return i
		}
	}
	return len(s)
}

// SpanWS returns the number of leading blanks in s.
func SpanWS[T constraints.Byteseq](s T) int { return Span(s, ClassWS) }

// SpanToken returns the length of the token at the start of s.
func SpanToken[T constraints.Byteseq](s T) int { return Span(s, ClassToken) }

// SpanParam returns the length of the parameter value at the start of s.
func SpanParam[T constraints.Byteseq](s T) int { return Span(s, ClassParam) }

// SpanDigit returns the number of leading decimal digits in s.
func SpanDigit[T constraints.Byteseq](s T) int { return Span(s, ClassDigit) }

// SpanHex returns the number of leading hexadecimal digits in s.
func SpanHex[T constraints.Byteseq](s T) int { return Span(s, ClassHex) }

// SpanAlnum returns the number of leading ASCII letters and digits in s.
func SpanAlnum[T constraints.Byteseq](s T) int { return Span(s, ClassAlnum) }

// SpanNonCRLF returns the length of s up to the first CR or LF.
func SpanNonCRLF[T constraints.Byteseq](s T) int { return SpanNot(s, ClassCRLF) }

// SpanNonWS returns the length of s up to the first blank or line break.
func SpanNonWS[T constraints.Byteseq](s T) int { return SpanNot(s, ClassLWS) }

// SpanLWS returns the length of linear whitespace at the start of s:
// optional blanks, then at most one line break followed by at least one blank.
func SpanLWS[T constraints.Byteseq](s T) int {
	n := SpanWS(s)
	i := n
	if i < len(s) && s[i] == '\r' {
		i++
	}
	if i < len(s) && s[i] == '\n' {
		i++
	}
	if i > n && i < len(s) && IsWS(s[i]) {
		return i + SpanWS(s[i:])
	}
	return n
}

// SkipLWS returns s without leading linear whitespace.
func SkipLWS[T constraints.Byteseq](s T) T { return s[SpanLWS(s):] }

// CRLFLen returns the length of the line terminator at the start of s: 2 for CRLF, 1 for a single CR or LF.
func CRLFLen[T constraints.Byteseq](s T) int {
	switch {
	case len(s) == 0:
		return 0
	case s[0] == '\r':
		if len(s) > 1 && s[1] == '\n' {
			return 2
		}
		return 1
	case s[0] == '\n':
		return 1
	default:
		return 0
	}
}

// SpanQuoted returns the length of the quoted string at the start of s, quotes included.
// Backslash escapes any byte. An unterminated string gives 0.
func SpanQuoted[T constraints.Byteseq](s T) int {
	if len(s) == 0 || s[0] != '"' {
		return 0
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			return i + 1
		case '\\':
			i++
		}
	}
	return 0
}
