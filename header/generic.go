package header

import (
	"github.com/ghettovoice/textmsg/msg"
)

// GenericClass keeps the header value as a string.
type GenericClass struct{ msg.ClassInfo }

// NewGeneric creates a class of single headers with a string value.
func NewGeneric(name, compact string) *GenericClass {
	return &GenericClass{msg.ClassInfo{Name: name, Compact: compact, Kind: msg.KindSingle}}
}

func (*GenericClass) Decode(_ *msg.Decoder, h *msg.Header, s string) error {
	h.Value = s
	return nil
}

func (*GenericClass) Encode(b []byte, h *msg.Header, _ msg.Flags) []byte {
	return append(b, Text(h)...)
}

// OpaqueClass is like [GenericClass] but the value is taken as is,
// surrounding whitespace included.
type OpaqueClass struct{ GenericClass }

// NewOpaque creates a class of single headers with a raw string value.
func NewOpaque(name, compact string) *OpaqueClass {
	return &OpaqueClass{GenericClass{msg.ClassInfo{Name: name, Compact: compact, Kind: msg.KindSingle, Opaque: true}}}
}

// Text returns the string value of a header of a generic, opaque or items class.
func Text(h *msg.Header) string {
	if h == nil {
		return ""
	}
	switch v := h.Value.(type) {
	case string:
		return v
	case *Item:
		return v.Value
	}
	return ""
}
