package msg

import (
	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/scan"
)

// Decoder is passed to [HeaderClass.Decode].
// Classes of comma-separated multi-field headers report the unparsed rest of
// the line with [Decoder.NextField]; every further field is decoded into
// a new header of the same class.
type Decoder struct {
	class HeaderClass
	rest  string
	more  bool
}

func newDecoder(hc HeaderClass) *Decoder { return &Decoder{class: hc} }

// NextField records s as the rest of the line after the current field.
// s must be empty or start with a comma.
func (d *Decoder) NextField(s string) error {
	if s != "" && s[0] != ',' {
		return errtrace.Wrap(NewMalformedError("unexpected %q after field", s))
	}
	d.rest, d.more = s, true
	return nil
}

// ParseNextField completes the current field of h at s, where s is the rest of
// the line after it, and schedules the following fields for decoding.
func ParseNextField(d *Decoder, h *Header, s string) error {
	if err := d.NextField(s); err != nil {
		return errtrace.Wrap(err)
	}
	h.UpdateParams(false)
	return nil
}

// decodeAll decodes s into h and, for multi-field values, into further
// headers of the same class.
func (d *Decoder) decodeAll(h *Header, s string) ([]*Header, error) {
	hs := []*Header{h}
	for {
		d.rest, d.more = "", false
		if err := d.class.Decode(d, h, s); err != nil {
			return hs, errtrace.Wrap(err)
		}
		if !d.more {
			return hs, nil
		}
		s = d.rest
		for len(s) > 0 && s[0] == ',' {
			s = s[1:]
			s = s[scan.SpanLWS(s):]
		}
		if s == "" {
			return hs, nil
		}
		h = &Header{Class: d.class}
		hs = append(hs, h)
	}
}

// decodeMerge decodes s into the existing list header h.
// On failure the parameters of h are restored.
func (d *Decoder) decodeMerge(h *Header, s string) error {
	n := len(h.Params)
	d.rest, d.more = "", false
	if err := d.class.Decode(d, h, s); err != nil {
		if len(h.Params) > n {
			clear(h.Params[n:])
			h.Params = h.Params[:n]
		}
		if n == 0 {
			h.Params = nil
		}
		return errtrace.Wrap(err)
	}
	return nil
}
