package header

import (
	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/msg"
)

// ListClass is a comma-separated list of items kept in [msg.Header.Params].
// All headers of the class in a message merge into one list, empty items
// are skipped.
type ListClass struct {
	msg.ClassInfo
	// Scanner scans list items, defaults to [msg.CommaScanner].
	Scanner msg.Scanner
}

// NewList creates a list class with items scanned by [msg.CommaScanner].
func NewList(name, compact string) *ListClass {
	return &ListClass{ClassInfo: msg.ClassInfo{Name: name, Compact: compact, Kind: msg.KindList, HasParams: true}}
}

// NewTokenList creates a list class of plain tokens.
func NewTokenList(name, compact string) *ListClass {
	lc := NewList(name, compact)
	lc.Scanner = msg.TokenScanner
	return lc
}

func (c *ListClass) Decode(_ *msg.Decoder, h *msg.Header, s string) error {
	items, rest, err := msg.ParseCommaList(s, h.Params, c.Scanner)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if rest != "" {
		return errtrace.Wrap(msg.NewMalformedError("unexpected %q in list", rest))
	}
	h.Params = items
	return nil
}

func (*ListClass) Encode(b []byte, h *msg.Header, f msg.Flags) []byte {
	sep := ", "
	if f&msg.FlagCompact != 0 {
		sep = ","
	}
	for i, it := range h.Params {
		if i > 0 {
			b = append(b, sep...)
		}
		b = append(b, it...)
	}
	return b
}

// Items returns the list items of h.
func Items(h *msg.Header) []string {
	if h == nil {
		return nil
	}
	return h.Params
}
