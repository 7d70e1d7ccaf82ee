package msg

import (
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/scan"
)

// RequestLine is the value of the request line header.
type RequestLine struct {
	Method, Target, Version string
}

// StatusLine is the value of the status line header.
type StatusLine struct {
	Version string
	Code    uint32
	Phrase  string
}

// Payload is the value of a message body header.
//
// Len is the declared length. While a body fragment is being received, Data is
// the whole region reserved for it, and only part of it may be filled.
type Payload struct {
	Data []byte
	Len  int
}

// Bytes returns the body bytes.
func (p *Payload) Bytes() []byte {
	if p == nil {
		return nil
	}
	if len(p.Data) > p.Len {
		return p.Data[:p.Len]
	}
	return p.Data
}

// UnknownValue is the value of a header not registered in the message class.
type UnknownValue struct {
	Name, Value string
}

// ErrorValue is the value of a header that could not be decoded.
type ErrorValue struct {
	// Name is the name of the class the header failed to decode as.
	Name string
	// Raw is the whole header line without the line terminator.
	Raw string
}

// RequestLineClass is a generic "method SP target SP version" start line.
type RequestLineClass struct{ ClassInfo }

// NewRequestLineClass creates a request line class.
func NewRequestLineClass() *RequestLineClass {
	return &RequestLineClass{ClassInfo{Kind: KindSingle, Critical: true, Bare: true}}
}

func (*RequestLineClass) Decode(_ *Decoder, h *Header, s string) error {
	method, target, version, err := ParseFirstLine(s)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if scan.SpanToken(method) != len(method) || target == "" || version == "" {
		return errtrace.Wrap(NewMalformedError("invalid request line"))
	}
	h.Value = &RequestLine{Method: method, Target: target, Version: version}
	return nil
}

func (*RequestLineClass) Encode(b []byte, h *Header, _ Flags) []byte {
	rl, _ := h.Value.(*RequestLine)
	if rl == nil {
		return b
	}
	b = append(b, rl.Method...)
	b = append(b, ' ')
	b = append(b, rl.Target...)
	b = append(b, ' ')
	b = append(b, rl.Version...)
	return append(b, "\r\n"...)
}

func (*RequestLineClass) DupSize(h *Header) int {
	if rl, ok := h.Value.(*RequestLine); ok {
		return len(rl.Method) + len(rl.Target) + len(rl.Version)
	}
	return 0
}

func (*RequestLineClass) DupCopy(dst, src *Header, db *DupBuffer) {
	if rl, ok := src.Value.(*RequestLine); ok {
		dst.Value = &RequestLine{
			Method:  db.String(rl.Method),
			Target:  db.String(rl.Target),
			Version: db.String(rl.Version),
		}
	}
}

// StatusLineClass is a generic "version SP code SP phrase" start line.
type StatusLineClass struct{ ClassInfo }

// NewStatusLineClass creates a status line class.
func NewStatusLineClass() *StatusLineClass {
	return &StatusLineClass{ClassInfo{Kind: KindSingle, Critical: true, Bare: true}}
}

func (*StatusLineClass) Decode(_ *Decoder, h *Header, s string) error {
	version, code, phrase, err := ParseFirstLine(s)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if version == "" || scan.SpanDigit(code) != 3 || len(code) != 3 {
		return errtrace.Wrap(NewMalformedError("invalid status code %q", code))
	}
	c, _ := strconv.ParseUint(code, 10, 32)
	h.Value = &StatusLine{Version: version, Code: uint32(c), Phrase: phrase}
	return nil
}

func (*StatusLineClass) Encode(b []byte, h *Header, _ Flags) []byte {
	sl, _ := h.Value.(*StatusLine)
	if sl == nil {
		return b
	}
	b = append(b, sl.Version...)
	b = append(b, ' ')
	b = strconv.AppendUint(b, uint64(sl.Code), 10)
	b = append(b, ' ')
	b = append(b, sl.Phrase...)
	return append(b, "\r\n"...)
}

func (*StatusLineClass) DupSize(h *Header) int {
	if sl, ok := h.Value.(*StatusLine); ok {
		return len(sl.Version) + len(sl.Phrase)
	}
	return 0
}

func (*StatusLineClass) DupCopy(dst, src *Header, db *DupBuffer) {
	if sl, ok := src.Value.(*StatusLine); ok {
		dst.Value = &StatusLine{Version: db.String(sl.Version), Code: sl.Code, Phrase: db.String(sl.Phrase)}
	}
}

type separatorClass struct{ ClassInfo }

// SeparatorClass is the class of the empty line between headers and body.
var SeparatorClass HeaderClass = &separatorClass{ClassInfo{Kind: KindSingle, Opaque: true, Bare: true}}

func (*separatorClass) Decode(_ *Decoder, h *Header, s string) error {
	switch s {
	case "", "\r\n", "\n", "\r":
		h.Value = s
		return nil
	default:
		return errtrace.Wrap(NewMalformedError("invalid separator %q", s))
	}
}

func (*separatorClass) Encode(b []byte, h *Header, _ Flags) []byte {
	if s, _ := h.Value.(string); s != "" {
		return append(b, s...)
	}
	return append(b, "\r\n"...)
}

type payloadClass struct{ ClassInfo }

// PayloadClass is the class of the message body.
var PayloadClass HeaderClass = &payloadClass{ClassInfo{Kind: KindAppend, Opaque: true, Bare: true}}

func (*payloadClass) Decode(_ *Decoder, h *Header, s string) error {
	h.Value = &Payload{Data: []byte(s), Len: len(s)}
	return nil
}

func (*payloadClass) Encode(b []byte, h *Header, _ Flags) []byte {
	pl, _ := h.Value.(*Payload)
	return append(b, pl.Bytes()...)
}

func (*payloadClass) DupSize(h *Header) int {
	pl, _ := h.Value.(*Payload)
	return len(pl.Bytes())
}

func (*payloadClass) DupCopy(dst, src *Header, db *DupBuffer) {
	if pl, ok := src.Value.(*Payload); ok {
		data := db.Bytes(pl.Bytes())
		dst.Value = &Payload{Data: data, Len: len(data)}
	}
}

type unknownClass struct{ ClassInfo }

// UnknownClass is the class of headers missing in the message class table.
// Its value holds both the name and the value.
var UnknownClass HeaderClass = &unknownClass{ClassInfo{Kind: KindAppend}}

func (*unknownClass) Decode(_ *Decoder, h *Header, s string) error {
	n := scan.SpanToken(s)
	if n == 0 {
		return errtrace.Wrap(NewMalformedError("invalid header name"))
	}
	name := s[:n]
	s = scan.SkipLWS(s[n:])
	if s == "" || s[0] != ':' {
		return errtrace.Wrap(NewMalformedError("missing colon after %q", name))
	}
	h.Value = &UnknownValue{Name: name, Value: strings.Trim(s[1:], " \t\r\n")}
	return nil
}

func (*unknownClass) Encode(b []byte, h *Header, f Flags) []byte {
	uv, _ := h.Value.(*UnknownValue)
	if uv == nil {
		return b
	}
	b = append(b, uv.Name...)
	if f&FlagCompact != 0 {
		b = append(b, ':')
	} else {
		b = append(b, ": "...)
	}
	return append(b, uv.Value...)
}

func (*unknownClass) DupSize(h *Header) int {
	if uv, ok := h.Value.(*UnknownValue); ok {
		return len(uv.Name) + len(uv.Value)
	}
	return 0
}

func (*unknownClass) DupCopy(dst, src *Header, db *DupBuffer) {
	if uv, ok := src.Value.(*UnknownValue); ok {
		dst.Value = &UnknownValue{Name: db.String(uv.Name), Value: db.String(uv.Value)}
	}
}

type errorClass struct{ ClassInfo }

// ErrorClass is the class of header lines that failed to decode.
// The line is kept as is and encoded back unchanged.
var ErrorClass HeaderClass = &errorClass{ClassInfo{Kind: KindAppend, Opaque: true}}

func (*errorClass) Decode(_ *Decoder, h *Header, s string) error {
	ev, _ := h.Value.(*ErrorValue)
	if ev == nil {
		ev = &ErrorValue{}
		h.Value = ev
	}
	ev.Raw = s
	return nil
}

func (*errorClass) Encode(b []byte, h *Header, _ Flags) []byte {
	if ev, _ := h.Value.(*ErrorValue); ev != nil {
		return append(b, ev.Raw...)
	}
	return b
}

func (*errorClass) DupSize(h *Header) int {
	if ev, ok := h.Value.(*ErrorValue); ok {
		return len(ev.Name) + len(ev.Raw)
	}
	return 0
}

func (*errorClass) DupCopy(dst, src *Header, db *DupBuffer) {
	if ev, ok := src.Value.(*ErrorValue); ok {
		dst.Value = &ErrorValue{Name: db.String(ev.Name), Raw: db.String(ev.Raw)}
	}
}
