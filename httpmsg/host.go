package httpmsg

import (
	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/msg"
)

// HostPort is the value of the Host header.
type HostPort struct {
	Host, Port string
}

// HostClass decodes the Host header.
type HostClass struct{ msg.ClassInfo }

// NewHostClass creates the Host header class.
func NewHostClass() *HostClass {
	return &HostClass{msg.ClassInfo{Name: "Host", Kind: msg.KindSingle}}
}

func (*HostClass) Decode(_ *msg.Decoder, h *msg.Header, s string) error {
	host, port, rest, err := msg.ParseHostPort(s)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if rest != "" {
		return errtrace.Wrap(msg.NewMalformedError("unexpected %q after host", rest))
	}
	h.Value = &HostPort{Host: host, Port: port}
	return nil
}

func (*HostClass) Encode(b []byte, h *msg.Header, _ msg.Flags) []byte {
	hp, _ := h.Value.(*HostPort)
	if hp == nil {
		return b
	}
	b = append(b, hp.Host...)
	if hp.Port != "" {
		b = append(b, ':')
		b = append(b, hp.Port...)
	}
	return b
}

func (*HostClass) DupSize(h *msg.Header) int {
	if hp, ok := h.Value.(*HostPort); ok {
		return len(hp.Host) + len(hp.Port)
	}
	return 0
}

func (*HostClass) DupCopy(dst, src *msg.Header, db *msg.DupBuffer) {
	if hp, ok := src.Value.(*HostPort); ok {
		dst.Value = &HostPort{Host: db.String(hp.Host), Port: db.String(hp.Port)}
	}
}
