package header

import (
	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/msg"
	"github.com/ghettovoice/textmsg/scan"
)

// Auth is the value of a header of [AuthClass].
// The auth parameters are kept in [msg.Header.Params].
type Auth struct {
	Scheme string
}

// AuthClass decodes credentials and challenges: a scheme followed by
// comma-separated auth parameters or a single token68.
type AuthClass struct{ msg.ClassInfo }

// NewAuth creates a class of authentication headers.
func NewAuth(name string, kind msg.Kind) *AuthClass {
	return &AuthClass{msg.ClassInfo{Name: name, Kind: kind, HasParams: true}}
}

func (*AuthClass) Decode(_ *msg.Decoder, h *msg.Header, s string) error {
	scheme, rest, err := msg.ParseToken(s)
	if err != nil {
		return errtrace.Wrap(err)
	}
	h.Value = &Auth{Scheme: scheme}
	if rest == "" {
		return nil
	}
	params, tail, err := msg.ParseCommaList(rest, h.Params, msg.AttrValueScanner)
	if err == nil && tail == "" {
		h.Params = params
		return nil
	}
	if n := spanToken68(rest); n > 0 && scan.SkipLWS(rest[n:]) == "" {
		h.Params = h.Params.Add(rest[:n])
		return nil
	}
	if err == nil {
		err = msg.NewMalformedError("unexpected %q in auth params", tail)
	}
	return errtrace.Wrap(err)
}

// spanToken68 returns the length of the token68 at the start of s.
func spanToken68(s string) int {
	n := 0
	for n < len(s) && (scan.IsAlnum(s[n]) || s[n] == '-' || s[n] == '.' || s[n] == '_' ||
		s[n] == '~' || s[n] == '+' || s[n] == '/') {
		n++
	}
	if n == 0 {
		return 0
	}
	for n < len(s) && s[n] == '=' {
		n++
	}
	return n
}

func (*AuthClass) Encode(b []byte, h *msg.Header, f msg.Flags) []byte {
	a, _ := h.Value.(*Auth)
	if a == nil {
		return b
	}
	b = append(b, a.Scheme...)
	sep := ", "
	if f&msg.FlagCompact != 0 {
		sep = ","
	}
	for i, p := range h.Params {
		if i == 0 {
			b = append(b, ' ')
		} else {
			b = append(b, sep...)
		}
		b = append(b, p...)
	}
	return b
}

func (*AuthClass) DupSize(h *msg.Header) int {
	n := h.Params.Size()
	if a, ok := h.Value.(*Auth); ok {
		n += len(a.Scheme)
	}
	return n
}

func (*AuthClass) DupCopy(dst, src *msg.Header, db *msg.DupBuffer) {
	if a, ok := src.Value.(*Auth); ok {
		dst.Value = &Auth{Scheme: db.String(a.Scheme)}
	}
	dst.Params = db.Params(src.Params)
}

// AuthParam returns the unquoted value of the auth parameter name of h.
func AuthParam(h *msg.Header, name string) (string, bool) {
	v, ok := h.FindParam(name)
	if !ok {
		return "", false
	}
	if uq, ok := msg.Unquote(v); ok {
		return uq, true
	}
	return v, true
}
