package msg

import (
	"io"
	"net"

	"braces.dev/errtrace"
)

// Serialize links every header of the message into the header chain.
//
// Headers not yet chained are spliced in slot order before the separator,
// the payload and the multipart body, which are kept last. A separator is
// added when the message has none.
func (m *Message) Serialize() error {
	mc := m.mc
	if len(m.slots[mc.Separator.Slot]) == 0 {
		sep := &Header{Class: SeparatorClass, Value: "\r\n", owner: m}
		m.slots[mc.Separator.Slot] = []*Header{sep}
	}
	tail := []*HeaderRef{mc.Separator, mc.Payload}
	if mc.Multipart != nil {
		tail = append(tail, mc.Multipart)
	}
	for _, ref := range mc.refs {
		if ref == mc.Separator || ref == mc.Payload || ref == mc.Multipart {
			continue
		}
		for _, h := range m.slots[ref.Slot] {
			if h.node == 0 {
				h.owner = m
				m.chainInsert(h)
			}
		}
	}
	for _, ref := range tail {
		for _, h := range m.slots[ref.Slot] {
			if h.node != 0 {
				continue
			}
			h.owner = m
			if at := m.firstChained(mc.Payload); ref == mc.Separator && at != nil {
				m.chainBefore(at.node, h)
			} else {
				m.chainAfter(m.tail, h)
			}
		}
	}
	m.chained = true
	return nil
}

// groupable reports whether h and next are encoded on one line.
func groupable(h, next *Header, f Flags) bool {
	if next == nil || next.Class != h.Class || next.data != nil {
		return false
	}
	ci := h.Class.Info()
	if ci.Name == "" || ci.Bare {
		return false
	}
	switch ci.Kind {
	case KindList, KindApndList:
		return true
	case KindAppend:
		return f&FlagCommaLists != 0
	default:
		return false
	}
}

func fieldSep(f Flags) string {
	switch {
	case f&FlagCompact != 0:
		return ","
	case f&FlagCommaLists != 0:
		return ",\r\n\t"
	default:
		return ", "
	}
}

// encodeRun appends the line of h and the following headers grouped with it.
// It returns the headers of the line.
func (m *Message) encodeRun(b []byte, h *Header, f Flags) ([]byte, []*Header) {
	run := []*Header{h}
	ci := h.Class.Info()
	if ci.Bare {
		return h.Class.Encode(b, h, f), run
	}
	b = appendName(b, ci, f)
	b = h.Class.Encode(b, h, f)
	for next := m.nextChained(h); groupable(h, next, f); next = m.nextChained(h) {
		b = append(b, fieldSep(f)...)
		b = next.Class.Encode(b, next, f)
		run = append(run, next)
		h = next
	}
	return append(b, "\r\n"...), run
}

// estimateSize guesses the encoded size of the headers without a cached encoding.
func (m *Message) estimateSize() int {
	n := 0
	for h := range m.Chain() {
		if h.data != nil {
			continue
		}
		if pl, ok := h.Value.(*Payload); ok {
			n += pl.Len
			continue
		}
		n += len(h.Name()) + 2*h.Params.Size() + 64
	}
	return n
}

// Prepare encodes every header without a cached encoding and caches the result.
//
// Adjacent headers of a list class are encoded on one line, the first one
// caches the whole line and the rest an empty slice at its end.
// Headers already cached are left as they are, so a second Prepare is a no-op.
func (m *Message) Prepare() error {
	if err := m.Serialize(); err != nil {
		return errtrace.Wrap(err)
	}
	est := m.estimateSize()
	if est == 0 {
		return nil
	}
	var buf []byte
	for id := m.head; id != 0; {
		h := m.node(id).h
		if h.data != nil {
			id = m.node(id).next
			continue
		}
		if buf == nil {
			buf = m.encodeBlock(est)
		}
		off := len(buf)
		b, run := m.encodeRun(buf, h, m.flags)
		if len(b) > cap(buf) {
			// the line did not fit, retry in a new buffer
			est = max(2*est, 2*(len(b)-off))
			buf = m.encodeBlock(est)
			off = 0
			b, run = m.encodeRun(buf, h, m.flags)
		}
		buf = b
		line := buf[off:len(buf)]
		lid := m.newLine()
		for i, x := range run {
			x.line = lid
			if i == 0 {
				x.data = line
			} else {
				x.data = line[len(line):]
			}
		}
		id = m.node(run[len(run)-1].node).next
	}
	return nil
}

func (m *Message) encodeBlock(n int) []byte {
	blk := NewBlock(max(n, m.minBlock))
	m.blocks = append(m.blocks, blk)
	return blk.Bytes()[:0]
}

// Unprepare drops the cached encodings of all headers.
func (m *Message) Unprepare() {
	for _, hs := range m.slots {
		for _, h := range hs {
			h.data, h.line = nil, 0
		}
	}
}

// IsPrepared reports whether every header is chained and has a cached encoding.
func (m *Message) IsPrepared() bool {
	if !m.chained {
		return false
	}
	for _, hs := range m.slots {
		for _, h := range hs {
			if h.node == 0 || h.data == nil {
				return false
			}
		}
	}
	return true
}

// IOVec returns the cached encoding of the message in wire order.
// Adjacent encodings are merged into one slice.
func (m *Message) IOVec() ([][]byte, error) {
	if !m.IsPrepared() {
		return nil, errtrace.Wrap(ErrNotPrepared)
	}
	var vec [][]byte
	for h := range m.Chain() {
		if len(h.data) == 0 {
			continue
		}
		if i := len(vec) - 1; i >= 0 && adjacent(vec[i], h.data) {
			vec[i] = vec[i][:len(vec[i])+len(h.data)]
			continue
		}
		vec = append(vec, h.data)
	}
	return vec, nil
}

// adjacent reports whether b starts right where a ends within the capacity of a.
func adjacent(a, b []byte) bool {
	return cap(a)-len(a) >= len(b) && len(b) > 0 && &a[:len(a)+1][len(a)] == &b[0]
}

// Bytes returns the encoding of the message with flags f.
// Cached encodings are used as they are, the rest is encoded without caching.
func (m *Message) Bytes(f Flags) []byte {
	var b []byte
	hs := m.ordered()
	for i := 0; i < len(hs); i++ {
		h := hs[i]
		switch {
		case h.data != nil:
			b = append(b, h.data...)
		case h.node == 0:
			b = EncodeHeader(b, h, f)
		default:
			var run []*Header
			b, run = m.encodeRun(b, h, f)
			i += len(run) - 1
		}
	}
	return b
}

// ordered returns all headers in wire order: the chain, with the headers not
// chained yet in slot order before the separator.
func (m *Message) ordered() []*Header {
	var (
		out     []*Header
		pending []*Header
		tail    = map[HeaderClass]bool{SeparatorClass: true, PayloadClass: true}
	)
	if m.mc.Multipart != nil {
		tail[m.mc.Multipart.Class] = true
	}
	for _, ref := range m.mc.refs {
		if tail[ref.Class] {
			continue
		}
		for _, h := range m.slots[ref.Slot] {
			if h.node == 0 {
				pending = append(pending, h)
			}
		}
	}
	flushed := false
	flush := func() {
		if !flushed {
			out = append(out, pending...)
			flushed = true
		}
	}
	for h := range m.Chain() {
		if tail[h.Class] {
			flush()
		}
		out = append(out, h)
	}
	flush()
	for _, ref := range []*HeaderRef{m.mc.Separator, m.mc.Payload, m.mc.Multipart} {
		if ref == nil {
			continue
		}
		for _, h := range m.slots[ref.Slot] {
			if h.node == 0 {
				out = append(out, h)
			}
		}
	}
	return out
}

// String returns the encoding of the message with its own flags.
func (m *Message) String() string { return string(m.Bytes(m.flags)) }

// WriteTo writes the prepared message to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	vec, err := m.IOVec()
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	bufs := net.Buffers(vec)
	return errtrace.Wrap2(bufs.WriteTo(w))
}
