package msg

// Copy returns a shallow copy of the message.
//
// The copy has its own header structs, but they share string data and cached
// encodings with m. The copy takes a reference to every block of m, so either
// message may be destroyed first.
func (m *Message) Copy() *Message {
	db := &DupBuffer{shared: true}
	c := m.clone(func(h *Header) *Header {
		nh := &Header{Class: h.Class, data: h.data, line: h.line}
		h.Class.DupCopy(nh, h, db)
		return nh
	})
	for _, b := range m.blocks {
		c.blocks = append(c.blocks, b.Retain())
	}
	c.lineSeq = m.lineSeq
	return c
}

// Dup returns a deep copy of the message.
// Header data is duplicated and cached encodings are dropped.
func (m *Message) Dup() *Message {
	return m.clone(DupHeader)
}

func (m *Message) clone(cp func(h *Header) *Header) *Message {
	c := New(m.mc, m.flags&behaviourFlags)
	c.log = m.log
	c.flags = m.flags &^ FlagStreaming
	c.errs, c.critical, c.failure = m.errs, m.critical, m.failure
	c.maxSize, c.minBlock, c.ssize = m.maxSize, m.minBlock, m.ssize
	c.size = m.size
	c.addr = m.addr

	copies := make(map[*Header]*Header)
	for i, hs := range m.slots {
		if len(hs) == 0 {
			continue
		}
		slot := make([]*Header, 0, len(hs))
		for _, h := range hs {
			if pendingChunk(h) {
				// fragments still being received are not copied
				continue
			}
			nh := cp(h)
			nh.owner = c
			copies[h] = nh
			slot = append(slot, nh)
		}
		if len(slot) > 0 {
			c.slots[i] = slot
		}
	}
	for h := range m.Chain() {
		if nh := copies[h]; nh != nil {
			c.chainAfter(c.tail, nh)
		}
	}
	c.chained = m.chained
	return c
}

// pendingChunk reports whether h is a body fragment not filled yet.
func pendingChunk(h *Header) bool {
	if h.Class != PayloadClass {
		return false
	}
	return chunkAvail(h) > 0
}
