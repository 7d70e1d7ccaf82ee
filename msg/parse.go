package msg

import (
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/internal/util"
	"github.com/ghettovoice/textmsg/scan"
)

// ParseFirstLine splits a start line into three whitespace-separated parts.
// The third part is the rest of the line and may contain whitespace.
func ParseFirstLine(s string) (p1, p2, p3 string, err error) {
	n := scan.SpanNonWS(s)
	if n == len(s) {
		return "", "", "", errtrace.Wrap(NewMalformedError("no whitespace in start line"))
	}
	p1 = s[:n]
	s = s[n:]
	s = s[scan.SpanWS(s):]
	n = scan.SpanNonWS(s)
	p2 = s[:n]
	s = s[n:]
	p3 = s[scan.SpanWS(s):]
	return p1, p2, p3, nil
}

// ParseToken parses a token at the start of s.
// It returns the token and the rest of s after the following linear whitespace.
func ParseToken(s string) (tok, rest string, err error) {
	n := scan.SpanToken(s)
	if n == 0 {
		return "", s, errtrace.Wrap(NewMalformedError("token expected at %q", util.Ellipsis(s, 16)))
	}
	return s[:n], scan.SkipLWS(s[n:]), nil
}

// ParseUint32 parses a decimal 32-bit unsigned integer at the start of s.
// The number must be followed by the end of s or linear whitespace.
func ParseUint32(s string) (v uint32, rest string, err error) {
	n := scan.SpanDigit(s)
	if n == 0 {
		return 0, s, errtrace.Wrap(NewMalformedError("digit expected at %q", util.Ellipsis(s, 16)))
	}
	for i := range n {
		d := uint32(s[i] - '0')
		if v > 429496729 || (v == 429496729 && d > 5) {
			return 0, s, errtrace.Wrap(NewMalformedError("integer overflow"))
		}
		v = v*10 + d
	}
	rest = s[n:]
	if rest != "" {
		if !scan.IsLWS(rest[0]) {
			return 0, s, errtrace.Wrap(NewMalformedError("unexpected %q after integer", rest[0]))
		}
		rest = scan.SkipLWS(rest)
	}
	return v, rest, nil
}

// Scanner scans a list item at the start of s.
// It returns the item in compact form and the number of bytes consumed,
// trailing linear whitespace included. A zero length item is skipped.
type Scanner func(s string) (item string, n int, err error)

// TokenScanner accepts tokens and empty items.
func TokenScanner(s string) (string, int, error) {
	n := scan.SpanToken(s)
	return s[:n], n + scan.SpanLWS(s[n:]), nil
}

// CommaScanner accepts a sequence of tokens, quoted strings and separators
// except comma. Whitespace between sections is dropped, two adjacent tokens
// keep a single space between them.
func CommaScanner(s string) (string, int, error) {
	if s == "" || s[0] == ',' {
		return "", 0, nil
	}
	var arr [128]byte
	b := arr[:0]
	i, prevTok := 0, false
	for {
		c := s[i]
		n := 1
		tok := scan.IsToken(c)
		switch {
		case tok:
			n = scan.SpanToken(s[i:])
		case c == '"':
			n = scan.SpanQuoted(s[i:])
		}
		if n == 0 {
			return "", 0, errtrace.Wrap(NewMalformedError("unterminated quoted string"))
		}
		if prevTok && tok {
			b = append(b, ' ')
		}
		b = append(b, s[i:i+n]...)
		prevTok = tok
		i += n
		i += scan.SpanLWS(s[i:])
		if i == len(s) || s[i] == ',' {
			if len(b) <= len(s) && string(b) == s[:len(b)] {
				return s[:len(b)], i, nil
			}
			return string(b), i, nil
		}
	}
}

// AttrValueScanner scans an attribute "name [= value]" where the value is
// a parameter value or a quoted string. Whitespace around "=" is removed.
func AttrValueScanner(s string) (string, int, error) {
	n := scan.SpanToken(s)
	if n == 0 {
		return "", 0, errtrace.Wrap(NewMalformedError("invalid attribute name"))
	}
	name := s[:n]
	i := n + scan.SpanLWS(s[n:])
	if i == len(s) || s[i] != '=' {
		return name, i, nil
	}
	i++
	i += scan.SpanLWS(s[i:])
	var vn int
	if i < len(s) && s[i] == '"' {
		vn = scan.SpanQuoted(s[i:])
	} else {
		vn = scan.SpanParam(s[i:])
	}
	if vn == 0 {
		return "", 0, errtrace.Wrap(NewMalformedError("invalid value of attribute %q", name))
	}
	item := s[:i+vn]
	if i != n+1 {
		item = name + "=" + s[i:i+vn]
	}
	i += vn
	return item, i + scan.SpanLWS(s[i:]), nil
}

// ParseList parses a list of items separated by sep or comma and appends them to list.
// Empty items are skipped. It returns the list and the rest of s not belonging to it.
func ParseList(s string, list Params, sep byte, scanner Scanner) (Params, string, error) {
	n0 := len(list)
	s = scan.SkipLWS(s)
	for s != "" {
		item, n, err := scanner(s)
		if err != nil {
			return truncParams(list, n0), s, errtrace.Wrap(err)
		}
		if n < len(s) && s[n] != sep && s[n] != ',' {
			return truncParams(list, n0), s, errtrace.Wrap(NewMalformedError("unexpected %q in list", s[n]))
		}
		if n > 0 && item != "" {
			list = list.Add(item)
		}
		s = s[n:]
		if s != "" && s[0] == sep {
			s = scan.SkipLWS(s[1:])
		} else if s != "" {
			break
		}
	}
	return list, s, nil
}

func truncParams(p Params, n int) Params {
	if n == 0 {
		return nil
	}
	return p[:n]
}

// ParseCommaList parses a comma-separated list appending the items to list.
// The scanner defaults to [CommaScanner].
func ParseCommaList(s string, list Params, scanner Scanner) (Params, string, error) {
	if scanner == nil {
		scanner = CommaScanner
	}
	return errtrace.Wrap3(ParseList(s, list, ',', scanner))
}

// ParseAVList parses a semicolon-separated attribute-value list appending
// the attributes to list.
func ParseAVList(s string, list Params) (Params, string, error) {
	if s == "" {
		return list, s, errtrace.Wrap(NewMalformedError("empty attribute list"))
	}
	n0 := len(list)
	for {
		s = scan.SkipLWS(s)
		item, n, err := AttrValueScanner(s)
		if err != nil {
			return truncParams(list, n0), s, errtrace.Wrap(err)
		}
		list = list.Add(item)
		s = s[n:]
		if s == "" || s[0] != ';' {
			return list, s, nil
		}
		s = s[1:]
	}
}

// ParseParams parses a parameter list starting with ";" and appends the parameters to list.
// Without a leading ";" it only skips linear whitespace.
func ParseParams(s string, list Params) (Params, string, error) {
	if s != "" && s[0] == ';' {
		return errtrace.Wrap3(ParseAVList(s[1:], list))
	}
	return list, scan.SkipLWS(s), nil
}

// ParseComment parses a possibly nested comment in parentheses.
// The returned comment excludes the outer parentheses.
func ParseComment(s string) (comment, rest string, err error) {
	if s == "" || s[0] != '(' {
		return "", s, errtrace.Wrap(NewMalformedError("comment expected"))
	}
	level := 1
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '(':
			level++
		case ')':
			level--
			if level == 0 {
				return s[1:i], scan.SkipLWS(s[i+1:]), nil
			}
		}
	}
	return "", s, errtrace.Wrap(NewMalformedError("unterminated comment"))
}

// ParseQuoted parses a quoted string, quotes included.
func ParseQuoted(s string) (quoted, rest string, err error) {
	n := scan.SpanQuoted(s)
	if n == 0 {
		return "", s, errtrace.Wrap(NewMalformedError("quoted string expected"))
	}
	return s[:n], scan.SkipLWS(s[n:]), nil
}

// ParseHostPort parses host[":"port] at the start of s.
// The port is empty when missing.
func ParseHostPort(s string) (host, port, rest string, err error) {
	host, port, n := scan.HostPort(s)
	if n == 0 {
		return "", "", s, errtrace.Wrap(NewMalformedError("invalid host at %q", util.Ellipsis(s, 16)))
	}
	return host, port, scan.SkipLWS(s[n:]), nil
}

// Unquote returns the content of the quoted string q with escapes resolved.
// It reports false when q is not a complete quoted string.
func Unquote(q string) (string, bool) {
	if len(q) < 2 || q[0] != '"' || scan.SpanQuoted(q) != len(q) {
		return "", false
	}
	q = q[1 : len(q)-1]
	if strings.IndexByte(q, '\\') < 0 {
		return q, true
	}
	b := make([]byte, 0, len(q))
	for i := 0; i < len(q); i++ {
		if q[i] == '\\' && i+1 < len(q) {
			i++
		}
		b = append(b, q[i])
	}
	return util.B2S(b), true
}

// EncodeUnquoted appends s to b as a quoted string escaping quotes and backslashes.
func EncodeUnquoted(b []byte, s string) []byte {
	b = append(b, '"')
	for i := range len(s) {
		if s[i] == '"' || s[i] == '\\' {
			b = append(b, '\\')
		}
		b = append(b, s[i])
	}
	return append(b, '"')
}
