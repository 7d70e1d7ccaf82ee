package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/httpmsg"
	"github.com/ghettovoice/textmsg/internal/ioutil"
	"github.com/ghettovoice/textmsg/msg"
)

const (
	encodeRaw     = "raw"
	encodeCanonic = "canonic"
	encodeCompact = "compact"
)

var encodings = map[string]msg.Flags{
	encodeRaw:     0,
	encodeCanonic: msg.FlagCanonic,
	encodeCompact: msg.FlagCompact,
}

type dumpConfig struct {
	opts   msg.Options
	chunk  int
	encode string
	logger *slog.Logger
}

// dump feeds r to the extractor cfg.chunk bytes at a time and prints every
// extracted message to w. It returns the number of messages printed.
func dump(ctx context.Context, r io.Reader, w io.Writer, cfg dumpConfig) (int, error) {
	mc, err := httpmsg.NewClass(cfg.opts, cfg.logger)
	if err != nil {
		return 0, errtrace.Wrap(err)
	}

	cw := ioutil.NewCountingWriter(w)
	buf := make([]byte, cfg.chunk)
	m := msg.New(mc, 0)
	defer func() { m.Destroy() }()

	var (
		count int
		eos   bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return count, errtrace.Wrap(err)
		}
		n, rerr := io.ReadFull(r, buf)
		switch {
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			eos = true
		case rerr != nil:
			return count, errtrace.Wrap(rerr)
		}
		if err := m.Feed(buf[:n], eos); err != nil {
			return count, errtrace.Wrap(err)
		}

		for {
			if eos && m.State() == msg.ParseStateInitial && m.Committed() == 0 {
				// only trailing empty lines were left
				return count, errtrace.Wrap(cw.Err())
			}
			done, xerr := m.Extract()
			if !done {
				break
			}
			if count > 0 && errors.Is(xerr, msg.ErrNoStartLine) {
				return count, errtrace.Wrap(cw.Err())
			}
			count++
			printMessage(cw, count, m, xerr, cfg.encode)
			if cw.Err() != nil || m.HasError() {
				// message boundaries are lost after an extraction error
				return count, errtrace.Wrap(cw.Err())
			}

			next, err := m.Next()
			if err != nil {
				return count, errtrace.Wrap(err)
			}
			m.Destroy()
			if next == nil {
				next = msg.New(mc, 0)
			}
			m = next
		}
		if eos {
			return count, errtrace.Wrap(cw.Err())
		}
	}
}

func printMessage(w *ioutil.CountingWriter, n int, m *msg.Message, xerr error, enc string) {
	w.Fprintf("message %d: state=%s flags=%s size=%d\n", n, m.State(), m.Flags(), m.Size())
	if xerr != nil {
		w.Fprintf("  error: %v\n", xerr)
	}
	frags := 0
	for h := range m.Chain() {
		switch h.Class {
		case msg.SeparatorClass:
			continue
		case msg.PayloadClass:
			frags++
			continue
		}
		switch v := h.Value.(type) {
		case *msg.ErrorValue:
			w.Fprintf("  ! %s\n", v.Raw)
		default:
			if h.Class.Info().Bare {
				w.Fprintf("  %s\n", strings.TrimRight(h.String(), "\r\n"))
			} else {
				w.Fprintf("  %s: %s\n", h.Name(), h)
			}
		}
	}
	if body := m.Body(); len(body) > 0 {
		w.Fprintf("  body: %d bytes in %d fragments\n", len(body), frags)
	}

	b := encoded(m, enc)
	w.Fprintf("--- %s\n", enc)
	w.Write(b)
	if !bytes.HasSuffix(b, []byte("\n")) {
		w.WriteString("\n")
	}
}

// encoded returns the raw bytes of m, or a re-encoding of its copy without
// the cached lines.
func encoded(m *msg.Message, enc string) []byte {
	if enc == encodeRaw {
		return m.Bytes(m.Flags())
	}
	d := m.Dup()
	defer d.Destroy()
	return d.Bytes(encodings[enc])
}
