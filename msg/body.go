package msg

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"
	"github.com/samber/lo"

	"github.com/ghettovoice/textmsg/scan"
)

// LengthBody extracts bodies delimited by a declared length.
type LengthBody struct {
	// Strategy decides what happens when the length is not declared.
	Strategy BodyStrategy
	// Length returns the declared body length of m.
	Length func(m *Message) (int, bool)
}

// ExtractBody implements [BodyExtractor].
func (lb *LengthBody) ExtractBody(m *Message, b []byte, eos bool) (int, error) {
	var n int
	if m.State() == ParseStateHeaders {
		var err error
		if n, err = ExtractSeparator(m, b); n == 0 || err != nil {
			return n, errtrace.Wrap(err)
		}
		b = b[n:]
	}

	length, ok := -1, false
	if lb.Length != nil {
		length, ok = lb.Length(m)
	}
	if !ok {
		switch {
		case m.flags&FlagMailbox != 0, lb.Strategy == ExplicitOrEmpty:
			length = 0
		case lb.Strategy == ExplicitOnly:
			return n, errtrace.Wrap(ErrMissingLength)
		case eos:
			length = m.bodyLen() + len(b)
		default:
			return n, nil
		}
	}
	k, err := ExtractPayload(m, b, length-m.bodyLen(), eos, true)
	return n + k, errtrace.Wrap(err)
}

// bodyLen returns the size of the body fragments extracted so far.
func (m *Message) bodyLen() int {
	return lo.SumBy(m.slots[m.mc.Payload.Slot], func(h *Header) int {
		if pl, ok := h.Value.(*Payload); ok {
			return pl.Len
		}
		return 0
	})
}

// ExtractSeparator extracts the empty line at the start of b that ends the
// header section and moves the message into the body state.
// It returns zero when more data is needed.
func ExtractSeparator(m *Message, b []byte) (int, error) {
	n := scan.CRLFLen(b)
	if n == 0 {
		return 0, errtrace.Wrap(NewMalformedError("missing empty line"))
	}
	if n == 1 && b[0] == '\r' && len(b) == 1 && !m.eos {
		return 0, nil
	}
	raw := m.copyLine(b[:n])
	h := &Header{Class: SeparatorClass, Value: string(raw)}
	h.data, h.line, h.owner = raw, m.newLine(), m
	m.appendParsed(m.mc.Separator, raw, []*Header{h})
	if err := m.BeginBody(); err != nil {
		return 0, errtrace.Wrap(err)
	}
	return n, nil
}

// ExtractPayload extracts a body part of length bytes starting at b.
//
// When b holds less than length bytes, the message either waits for the
// whole part with a receive buffer grown to fit it, or, with [FlagChunking],
// takes what is there as a fragment and reserves fragments for the rest.
// A streaming message takes the available bytes as a fragment.
// With last, the message completes when the part is extracted.
func ExtractPayload(m *Message, b []byte, length int, eos, last bool) (int, error) {
	if length < 0 {
		return 0, errtrace.Wrap(newInvalidArgError("negative body length"))
	}
	if m.maxSize > 0 && m.size+length > m.maxSize {
		m.log.LogAttrs(context.Background(), slog.LevelDebug, "message body too large",
			slog.Int("length", length),
			slog.Int("max_size", m.maxSize),
		)
		return 0, errtrace.Wrap(ErrTooLarge)
	}
	if length <= len(b) {
		if length > 0 {
			m.addPayload(b[:length])
		}
		if last {
			if err := m.MarkComplete(0); err != nil {
				return 0, errtrace.Wrap(err)
			}
		}
		return length, nil
	}

	if eos {
		if len(b) > 0 {
			m.addPayload(b)
		}
		m.log.LogAttrs(context.Background(), slog.LevelDebug, "message body truncated",
			slog.Int("length", length),
			slog.Int("received", len(b)),
		)
		return len(b), errtrace.Wrap(m.MarkComplete(FlagTrunc))
	}

	switch {
	case m.flags&FlagChunking != 0:
		if len(b) > 0 {
			m.addPayload(b)
		}
		rest := &Header{Class: PayloadClass, Value: &Payload{Len: length - len(b)}}
		rest.owner = m
		m.slots[m.mc.Payload.Slot] = append(m.slots[m.mc.Payload.Slot], rest)
		m.chainAfter(m.tail, rest)
		m.chunks = append(m.chunks, rest)
		m.chunksLast = last
		m.flags |= FlagFrags
		return len(b), nil
	case m.flags&FlagStreaming != 0 && len(b) > 0:
		m.addPayload(b)
		m.flags |= FlagFrags
		return len(b), nil
	default:
		if _, err := m.BufExact(length - len(b) + 1); err != nil {
			return 0, errtrace.Wrap(err)
		}
		return 0, nil
	}
}

func (m *Message) addPayload(b []byte) { m.AddFragment(b, 0, len(b)) }

// AddFragment adds a body fragment of n bytes at off in raw, raw being the
// fragment as received, framing included. The raw bytes are kept as the
// cached encoding of the fragment.
func (m *Message) AddFragment(raw []byte, off, n int) *Header {
	raw = m.copyLine(raw)
	data := raw[off : off+n : off+n]
	h := &Header{Class: PayloadClass, Value: &Payload{Data: data, Len: n}}
	h.data, h.line, h.owner = raw, m.newLine(), m
	m.slots[m.mc.Payload.Slot] = append(m.slots[m.mc.Payload.Slot], h)
	m.chainAfter(m.tail, h)
	m.chained = true
	return h
}
