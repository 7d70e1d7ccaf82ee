package msg

import (
	"fmt"
	"log/slog"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/internal/util"
)

// Header is a decoded header field.
//
// The header class defines the type stored in Value. Headers with parameters
// or list items keep them in Params.
// A header extracted from or added to a [Message] belongs to it and must not be
// added to another message, use [DupHeader] instead.
type Header struct {
	Class  HeaderClass
	Value  any
	Params Params

	data  []byte // cached encoding
	line  uint64 // identity of the encoded line the header belongs to
	node  int32  // chain node index + 1
	owner *Message
}

// NewHeader creates a header of class hc.
func NewHeader(hc HeaderClass, value any, params Params) *Header {
	return &Header{Class: hc, Value: value, Params: params}
}

// Name returns the full header name.
func (h *Header) Name() string {
	if h == nil || h.Class == nil {
		return ""
	}
	if uv, ok := h.Value.(*UnknownValue); ok {
		return uv.Name
	}
	return h.Class.Info().Name
}

// Data returns the cached encoding of h.
// Fields of a multi-field line share it: the first one holds the whole line,
// the rest hold an empty slice at its end.
func (h *Header) Data() []byte { return h.data }

// Cached reports whether h has a cached encoding.
func (h *Header) Cached() bool { return h.data != nil }

// Chained reports whether h is linked into the message chain.
func (h *Header) Chained() bool { return h.node != 0 }

// Message returns the message owning h.
func (h *Header) Message() *Message { return h.owner }

// ClearCache drops the cached encoding of h together with every header
// sharing the same encoded line.
func (h *Header) ClearCache() {
	if h == nil {
		return
	}
	if h.owner != nil && h.line != 0 {
		h.owner.clearLine(h.line)
		return
	}
	h.data = nil
	h.line = 0
}

// String returns the header value encoded in canonical form.
func (h *Header) String() string {
	if h == nil || h.Class == nil {
		return ""
	}
	return string(h.Class.Encode(nil, h, 0))
}

// LogValue implements [slog.LogValuer].
func (h *Header) LogValue() slog.Value {
	if h == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("name", h.Name()),
		slog.Any("value", util.Ellipsis(h.String(), 96)),
	)
}

// EncodeHeader appends the full header field h to b: the name, the value and
// the line terminator. Bare classes are encoded without name and terminator.
func EncodeHeader(b []byte, h *Header, f Flags) []byte {
	ci := h.Class.Info()
	if ci.Bare {
		return h.Class.Encode(b, h, f)
	}
	b = appendName(b, ci, f)
	b = h.Class.Encode(b, h, f)
	return append(b, "\r\n"...)
}

func appendName(b []byte, ci *ClassInfo, f Flags) []byte {
	if ci.Name == "" {
		return b
	}
	if f&FlagCompact != 0 {
		if ci.Compact != "" {
			b = append(b, ci.Compact...)
		} else {
			b = append(b, ci.Name...)
		}
		return append(b, ':')
	}
	b = append(b, ci.Name...)
	return append(b, ": "...)
}

// MakeHeader decodes s into a new header of class hc.
// Surrounding whitespace is trimmed unless the class is opaque.
// Only the first field of a multi-field value is returned, see [MakeHeaders].
func MakeHeader(hc HeaderClass, s string) (*Header, error) {
	hs, err := MakeHeaders(hc, s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return hs[0], nil
}

// MakeHeaders decodes s into headers of class hc, one per field.
func MakeHeaders(hc HeaderClass, s string) ([]*Header, error) {
	if hc == nil {
		return nil, errtrace.Wrap(ErrInvalidArgument)
	}
	if !hc.Info().Opaque {
		s = strings.Trim(s, " \t\r\n")
	}
	hs, err := newDecoder(hc).decodeAll(&Header{Class: hc}, s)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return hs, nil
}

// FormatHeader is like [MakeHeader] but formats the value first.
func FormatHeader(hc HeaderClass, format string, args ...any) (*Header, error) {
	return errtrace.Wrap2(MakeHeader(hc, fmt.Sprintf(format, args...)))
}

// DupHeader returns a deep copy of h not owned by any message.
func DupHeader(h *Header) *Header {
	if h == nil {
		return nil
	}
	return DupHeaderAs(h.Class, h)
}

// DupHeaderAs duplicates h giving the copy class hc.
func DupHeaderAs(hc HeaderClass, h *Header) *Header {
	if h == nil || hc == nil {
		return nil
	}
	db := NewDupBuffer(h.Class.DupSize(h))
	nh := &Header{Class: hc}
	h.Class.DupCopy(nh, h, db)
	return nh
}

// DupHeaders duplicates each header of hs.
func DupHeaders(hs ...*Header) []*Header {
	out := make([]*Header, 0, len(hs))
	for _, h := range hs {
		if h != nil {
			out = append(out, DupHeader(h))
		}
	}
	return out
}
