package header

import (
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/msg"
)

// NumericClass decodes a decimal 32-bit unsigned value.
type NumericClass struct{ msg.ClassInfo }

// NewNumeric creates a class of single headers with a numeric value.
func NewNumeric(name, compact string) *NumericClass {
	return &NumericClass{msg.ClassInfo{Name: name, Compact: compact, Kind: msg.KindSingle}}
}

func (*NumericClass) Decode(_ *msg.Decoder, h *msg.Header, s string) error {
	v, rest, err := msg.ParseUint32(s)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if rest != "" {
		return errtrace.Wrap(msg.NewMalformedError("unexpected %q after number", rest))
	}
	h.Value = v
	return nil
}

func (*NumericClass) Encode(b []byte, h *msg.Header, _ msg.Flags) []byte {
	v, _ := Uint32(h)
	return strconv.AppendUint(b, uint64(v), 10)
}

// Uint32 returns the value of a numeric header.
func Uint32(h *msg.Header) (uint32, bool) {
	if h == nil {
		return 0, false
	}
	v, ok := h.Value.(uint32)
	return v, ok
}
