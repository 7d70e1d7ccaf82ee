package msg_test

import (
	"testing"

	"github.com/ghettovoice/textmsg/header"
	"github.com/ghettovoice/textmsg/msg"
)

const errMaskLength uint32 = 1 << 1

var (
	contentLength = &header.NumericClass{ClassInfo: msg.ClassInfo{
		Name:     "Content-Length",
		Compact:  "l",
		Kind:     msg.KindSingle,
		Critical: true,
	}}
	expires        = header.NewNumeric("Expires", "")
	subject        = header.NewGeneric("Subject", "s")
	acceptEncoding = header.NewList("Accept-Encoding", "")
	acceptLanguage = header.NewList("Accept-Language", "")
	via            = header.NewItems("Via", "v")
	route          = &header.GenericClass{ClassInfo: msg.ClassInfo{Name: "Route", Kind: msg.KindPrepend}}
	warning        = &header.ItemsClass{ClassInfo: msg.ClassInfo{Name: "Warning", Kind: msg.KindAppend, HasParams: true}}
)

func bodyLength(m *msg.Message) (int, bool) {
	v, ok := header.Uint32(m.Get(contentLength))
	return int(v), ok
}

func newConfig(flags msg.Flags) msg.Config {
	return msg.Config{
		Name:  "TEST/1.0",
		Flags: flags,
		Body:  &msg.LengthBody{Strategy: msg.ExplicitOrEOS, Length: bodyLength},
		Headers: []msg.HeaderDef{
			{Class: contentLength, Mask: errMaskLength},
			{Class: expires},
			{Class: subject},
			{Class: acceptEncoding},
			{Class: acceptLanguage},
			{Class: via},
			{Class: route},
			{Class: warning},
		},
	}
}

func newClass(tb testing.TB, flags msg.Flags) *msg.MessageClass {
	tb.Helper()
	mc, err := msg.NewMessageClass(newConfig(flags))
	if err != nil {
		tb.Fatalf("msg.NewMessageClass() error = %v, want nil", err)
	}
	return mc
}

// extract feeds s to a new message in one call and extracts it.
func extract(tb testing.TB, mc *msg.MessageClass, s string, eos bool) (*msg.Message, bool, error) {
	tb.Helper()
	m := msg.New(mc, 0)
	tb.Cleanup(m.Destroy)
	if err := m.Feed([]byte(s), eos); err != nil {
		tb.Fatalf("m.Feed() error = %v, want nil", err)
	}
	done, err := m.Extract()
	return m, done, err
}

// extractBytes feeds s to a new message byte by byte extracting after each byte.
func extractBytes(tb testing.TB, mc *msg.MessageClass, s string) (*msg.Message, bool, error) {
	tb.Helper()
	m := msg.New(mc, 0)
	tb.Cleanup(m.Destroy)
	var (
		done bool
		err  error
	)
	for i := range len(s) {
		if ferr := m.Feed([]byte{s[i]}, i == len(s)-1); ferr != nil {
			tb.Fatalf("m.Feed() error = %v, want nil", ferr)
		}
		if done, err = m.Extract(); done {
			if i != len(s)-1 {
				tb.Fatalf("m.Extract() done at byte %d of %d", i, len(s))
			}
			break
		}
	}
	return m, done, err
}

// headerStrings returns "Name: value" of every chained header except the
// start line, the separator and the payload.
func headerStrings(m *msg.Message) []string {
	var out []string
	for h := range m.Chain() {
		if h.Class.Info().Bare {
			continue
		}
		if h.Class == msg.UnknownClass {
			out = append(out, h.String())
			continue
		}
		out = append(out, h.Name()+": "+h.String())
	}
	return out
}
