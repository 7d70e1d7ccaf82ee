package httpmsg

import (
	"braces.dev/errtrace"
	"github.com/ghettovoice/abnf"
	"github.com/ghettovoice/abnf/pkg/abnf_core"

	"github.com/ghettovoice/textmsg/msg"
)

// RFC 9112 start line rules. Only the method and version are checked
// with the grammar, request targets and reason phrases are left to the scanner.
var (
	core = abnf_core.Operators()

	tchar = abnf.AltFirst("tchar", core.ALPHA, tcharOps()...)

	methodRule = abnf.Repeat1Inf("method", tchar)

	versionRule = abnf.Concat(
		"HTTP-version",
		abnf.LiteralCS("HTTP-name", []byte("HTTP")),
		abnf.Literal(`"/"`, []byte("/")),
		core.DIGIT,
		abnf.Literal(`"."`, []byte(".")),
		core.DIGIT,
	)
)

// tcharOps returns the tchar alternatives following ALPHA.
func tcharOps() []abnf.Operator {
	const chars = "!#$%&'*+-.^_`|~"
	ops := make([]abnf.Operator, 0, len(chars)+1)
	ops = append(ops, core.DIGIT)
	for i := range len(chars) {
		ops = append(ops, abnf.Literal(`"`+chars[i:i+1]+`"`, []byte{chars[i]}))
	}
	return ops
}

// matches reports whether op matches the whole of s.
func matches(op abnf.Operator, s string) bool {
	if s == "" {
		return false
	}

	ns := abnf.NewNodes()
	defer ns.Free()

	if err := op([]byte(s), 0, ns); err != nil {
		return false
	}
	return ns.Best().Len() == len(s)
}

// RequestLineClass is the HTTP/1.x request line.
// It accepts only token methods and HTTP-version strings.
type RequestLineClass struct {
	*msg.RequestLineClass
}

// NewRequestLineClass creates the request line class of the table.
func NewRequestLineClass() *RequestLineClass {
	return &RequestLineClass{msg.NewRequestLineClass()}
}

func (c *RequestLineClass) Decode(d *msg.Decoder, h *msg.Header, s string) error {
	if err := c.RequestLineClass.Decode(d, h, s); err != nil {
		return errtrace.Wrap(err)
	}
	rl, _ := h.Value.(*msg.RequestLine)
	switch {
	case rl == nil:
		return errtrace.Wrap(msg.NewMalformedError("invalid request line"))
	case !matches(methodRule, rl.Method):
		h.Value = nil
		return errtrace.Wrap(msg.NewMalformedError("invalid method %q", rl.Method))
	case !matches(versionRule, rl.Version):
		h.Value = nil
		return errtrace.Wrap(msg.NewMalformedError("invalid HTTP version %q", rl.Version))
	}
	return nil
}

// StatusLineClass is the HTTP/1.x status line.
type StatusLineClass struct {
	*msg.StatusLineClass
}

// NewStatusLineClass creates the status line class of the table.
func NewStatusLineClass() *StatusLineClass {
	return &StatusLineClass{msg.NewStatusLineClass()}
}

func (c *StatusLineClass) Decode(d *msg.Decoder, h *msg.Header, s string) error {
	if err := c.StatusLineClass.Decode(d, h, s); err != nil {
		return errtrace.Wrap(err)
	}
	sl, _ := h.Value.(*msg.StatusLine)
	switch {
	case sl == nil:
		return errtrace.Wrap(msg.NewMalformedError("invalid status line"))
	case !matches(versionRule, sl.Version):
		h.Value = nil
		return errtrace.Wrap(msg.NewMalformedError("invalid HTTP version %q", sl.Version))
	}
	return nil
}
