package header

import (
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/msg"
	"github.com/ghettovoice/textmsg/scan"
)

// Item is the value of a header of [ItemsClass].
type Item struct {
	Value string
}

// ItemsClass decodes comma-separated fields "value *(;param)", one header per field.
type ItemsClass struct{ msg.ClassInfo }

// NewItems creates a class of headers with several fields per line.
// Fields are encoded back as one comma-separated line.
func NewItems(name, compact string) *ItemsClass {
	return &ItemsClass{msg.ClassInfo{Name: name, Compact: compact, Kind: msg.KindApndList, HasParams: true}}
}

func (*ItemsClass) Decode(d *msg.Decoder, h *msg.Header, s string) error {
	n := spanItem(s)
	v := strings.TrimRight(s[:n], " \t")
	if v == "" {
		return errtrace.Wrap(msg.NewMalformedError("empty item"))
	}
	params, rest, err := msg.ParseParams(s[n:], nil)
	if err != nil {
		return errtrace.Wrap(err)
	}
	h.Value = &Item{Value: v}
	h.Params = params
	return errtrace.Wrap(msg.ParseNextField(d, h, rest))
}

// spanItem returns the length of the item value up to ";" or "," outside
// quoted strings and comments.
func spanItem(s string) int {
	for i := 0; i < len(s); {
		switch s[i] {
		case ';', ',':
			return i
		case '"':
			n := scan.SpanQuoted(s[i:])
			if n == 0 {
				return len(s)
			}
			i += n
		case '(':
			if _, rest, err := msg.ParseComment(s[i:]); err == nil {
				i = len(s) - len(rest)
				continue
			}
			i++
		default:
			i++
		}
	}
	return len(s)
}

func (*ItemsClass) Encode(b []byte, h *msg.Header, _ msg.Flags) []byte {
	b = append(b, Text(h)...)
	return h.Params.AppendTo(b)
}

func (*ItemsClass) DupSize(h *msg.Header) int {
	return len(Text(h)) + h.Params.Size()
}

func (*ItemsClass) DupCopy(dst, src *msg.Header, db *msg.DupBuffer) {
	dst.Value = &Item{Value: db.String(Text(src))}
	dst.Params = db.Params(src.Params)
}
