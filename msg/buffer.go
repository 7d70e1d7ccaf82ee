package msg

import (
	"context"
	"log/slog"

	"braces.dev/errtrace"
	"github.com/samber/lo"
)

// nFragments limits the number of external blocks requested at once.
const nFragments = 8

// Room returns the free space after the committed data in the receive buffer.
func (m *Message) Room() int { return len(m.data) - m.used - m.commit }

// Committed returns the number of committed bytes not yet extracted.
func (m *Message) Committed() int { return m.commit }

// CommittedData returns the committed bytes not yet extracted.
func (m *Message) CommittedData() []byte {
	if m.data == nil {
		return nil
	}
	return m.data[m.used : m.used+m.commit]
}

// Size returns the number of bytes extracted into the message.
func (m *Message) Size() int { return m.size }

// MaxSize returns the message size limit.
func (m *Message) MaxSize() int { return m.maxSize }

// SetMaxSize sets the message size limit and returns the previous one.
// Zero n keeps the current limit.
func (m *Message) SetMaxSize(n int) int {
	prev := m.maxSize
	if n > 0 {
		m.maxSize = n
	}
	return prev
}

// Buf returns at least n bytes of free space after the committed data,
// growing the buffer in multiples of the minimum block.
func (m *Message) Buf(n int) ([]byte, error) {
	if m.data != nil && m.Room() >= n {
		return m.data[m.used+m.commit:], nil
	}
	target := m.minBlock*((n+m.commit)/m.minBlock+1) - m.commit
	return errtrace.Wrap2(m.BufExact(target))
}

// BufExact returns exactly n bytes of free space after the committed data
// unless the buffer already has enough room. Committed data is moved to
// the new buffer, extracted data stays where it is.
func (m *Message) BufExact(n int) ([]byte, error) {
	if m.data != nil && m.Room() >= n {
		return m.data[m.used+m.commit:], nil
	}
	n += m.commit
	if m.maxSize > 0 && m.size+n > m.maxSize+1 {
		m.flags |= FlagTooLarge
		return nil, errtrace.Wrap(ErrTooLarge)
	}
	blk := NewBlock(n)
	buf := blk.Bytes()
	if m.commit > 0 && m.data != nil {
		copy(buf, m.data[m.used:m.used+m.commit])
		if m.used > 0 {
			m.log.LogAttrs(context.Background(), slog.LevelDebug, "receive buffer migrated",
				slog.Int("committed", m.commit),
				slog.Int("size", n),
			)
		}
	}
	if m.used == 0 && m.cur != nil {
		// nothing points into the old buffer
		m.blocks = lo.Without(m.blocks, m.cur)
		m.cur.Release()
	}
	m.blocks = append(m.blocks, blk)
	m.cur = blk
	m.setBuf = false
	m.data = buf
	m.used = 0
	return buf[m.commit:], nil
}

// Commit marks n bytes of the free space as received data.
// With eos, no more data follows.
func (m *Message) Commit(n int, eos bool) error {
	if n < 0 || n > m.Room() {
		return errtrace.Wrap(newInvalidArgError("commit %d bytes exceeds room %d", n, m.Room()))
	}
	m.commit += n
	m.eos = eos
	if m.used == 0 && len(m.chunks) == 0 && !m.setBuf {
		if slack := len(m.data) - m.commit; eos || slack >= m.minBlock {
			ns := m.commit + m.minBlock
			if eos {
				ns = m.commit + 1
			}
			if ns < len(m.data) {
				m.data = m.data[:ns:ns]
			}
		}
	}
	return nil
}

// EOS reports whether the end of stream has been committed.
func (m *Message) EOS() bool { return m.eos }

func (m *Message) bufUsed(n int) {
	m.size += n
	m.used += n
	m.commit = max(m.commit-n, 0)
}

// SetBuffer makes b the receive buffer. It can be done only once
// and only before any data is received.
func (m *Message) SetBuffer(b []byte) error {
	if m.setBuf || m.data != nil {
		return errtrace.Wrap(newInvalidArgError("buffer already set"))
	}
	m.data, m.cur = b, nil
	m.used, m.commit, m.eos = 0, 0, false
	m.setBuf = true
	return nil
}

// MoveBuffer moves committed data of src into the receive buffer of m.
func (m *Message) MoveBuffer(src *Message) error {
	var (
		b   []byte
		err error
	)
	if src.eos {
		b, err = m.BufExact(src.commit + 1)
	} else {
		b, err = m.Buf(src.commit + 1)
	}
	if err != nil {
		return errtrace.Wrap(err)
	}
	copy(b, src.CommittedData())
	m.commit += src.commit
	m.eos = src.eos
	return nil
}

// ClearCommitted drops committed data not yet extracted.
func (m *Message) ClearCommitted() {
	if m.commit > 0 {
		m.bufUsed(m.commit)
	}
}

// Feed copies p into the receive buffer and commits it.
func (m *Message) Feed(p []byte, eos bool) error {
	if len(p) == 0 {
		return errtrace.Wrap(m.RecvCommit(0, eos))
	}
	vec, err := m.RecvIOVec(len(p), false)
	if err != nil {
		return errtrace.Wrap(err)
	}
	n := 0
	for _, v := range vec {
		n += copy(v, p[n:])
	}
	return errtrace.Wrap(m.RecvCommit(n, eos))
}

func chunkAvail(h *Header) int {
	pl, _ := h.Value.(*Payload)
	if pl == nil {
		return 0
	}
	return pl.Len - len(h.data)
}

func chunkBuffer(h *Header) []byte {
	pl, _ := h.Value.(*Payload)
	if pl == nil || pl.Data == nil {
		return nil
	}
	return pl.Data[len(h.data):pl.Len]
}

// RecvIOVec returns buffers to receive n bytes into.
//
// Pending body fragments are filled first, unbound fragments get memory of
// the receive buffer. When the fragments end the message, the rest goes to
// the next message on the stream. With exact, the receive buffer is
// allocated with [Message.BufExact].
func (m *Message) RecvIOVec(n int, exact bool) ([][]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	var vec [][]byte
	for i := 0; i < len(m.chunks) && n > 0; i++ {
		c := m.chunks[i]
		avail := chunkAvail(c)
		if avail == 0 {
			continue
		}
		buf := chunkBuffer(c)
		if buf == nil {
			size := min(avail, max(n, m.minBlock))
			b, err := m.BufExact(size + 1)
			if err != nil {
				return vec, errtrace.Wrap(err)
			}
			m.bindChunk(c, b, size)
			buf = chunkBuffer(c)
		}
		buf = buf[:min(len(buf), n)]
		vec = append(vec, buf)
		n -= len(buf)
	}
	if n == 0 {
		return vec, nil
	}

	target := m
	if len(m.chunks) > 0 && m.chunksLast {
		if m.next == nil {
			m.next = New(m.mc, m.flags&behaviourFlags)
			m.next.maxSize = m.maxSize
			m.next.addr = m.addr
		}
		target = m.next
	}
	var (
		buf []byte
		err error
	)
	if exact {
		buf, err = target.BufExact(n + 1)
	} else {
		buf, err = target.Buf(n + 1)
	}
	if err != nil {
		return vec, errtrace.Wrap(err)
	}
	return append(vec, buf[:n]), nil
}

// bindChunk binds the unbound fragment chunk to ln bytes of buf, splitting
// off the part that does not fit into a new fragment.
func (m *Message) bindChunk(chunk *Header, buf []byte, ln int) {
	pl, _ := chunk.Value.(*Payload)
	if avail := chunkAvail(chunk); ln < avail {
		rest := &Header{Class: chunk.Class, Value: &Payload{Len: avail - ln}}
		m.appendChunk(chunk, rest)
		pl.Len = ln
	} else {
		ln = avail
	}
	pl.Data = buf[:pl.Len:pl.Len]
	chunk.data = pl.Data[:0]
	m.bufUsed(ln)
}

// appendChunk adds a new body fragment right after h.
func (m *Message) appendChunk(h, rest *Header) {
	ref := m.mc.Payload
	rest.owner = m
	slot := m.slots[ref.Slot]
	for i, x := range slot {
		if x == h {
			slot = append(slot[:i+1], append([]*Header{rest}, slot[i+1:]...)...)
			break
		}
	}
	m.slots[ref.Slot] = slot
	if h.node != 0 {
		m.chainAfter(h.node, rest)
	}
	for i, c := range m.chunks {
		if c == h {
			m.chunks = append(m.chunks[:i+1], append([]*Header{rest}, m.chunks[i+1:]...)...)
			return
		}
	}
	m.chunks = append(m.chunks, rest)
}

// RecvCommit commits n received bytes: pending body fragments first,
// then the next message or the receive buffer.
func (m *Message) RecvCommit(n int, eos bool) error {
	if eos {
		m.eos = true
	}
	for _, c := range m.chunks {
		ln := min(chunkAvail(c), n)
		if ln > 0 {
			pl, _ := c.Value.(*Payload)
			c.data = pl.Data[:len(c.data)+ln]
		}
		n -= ln
		if n == 0 && len(m.chunks) > 0 {
			return nil
		}
	}
	target := m
	if len(m.chunks) > 0 && m.next != nil {
		target = m.next
	}
	return errtrace.Wrap(target.Commit(n, eos))
}

// RecvBuffer returns the free space to receive into: the first pending body
// fragment, or the receive buffer. It returns nil when the pending fragment
// is not bound to memory yet, [Message.RecvIOVec] binds it.
func (m *Message) RecvBuffer() ([]byte, error) {
	for _, c := range m.chunks {
		if chunkAvail(c) > 0 {
			return chunkBuffer(c), nil
		}
	}
	b, err := m.Buf(2)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return b[:len(b)-1], nil
}

// Next returns the next message on the stream: the one attached by
// [Message.SetNext] or [Message.RecvIOVec], or a new one holding the
// committed data not used by m. It returns nil when there is none.
func (m *Message) Next() (*Message, error) {
	if m.next != nil {
		next := m.next
		m.next = nil
		return next, nil
	}
	if m.commit == 0 {
		return nil, nil
	}
	next := New(m.mc, m.flags&behaviourFlags)
	next.maxSize = m.maxSize
	if err := next.MoveBuffer(m); err != nil {
		next.Destroy()
		return nil, errtrace.Wrap(err)
	}
	m.commit = 0
	next.addr = m.addr
	return next, nil
}

// SetNext attaches next as the following message on the stream.
// A message already attached to m is attached after next.
func (m *Message) SetNext(next *Message) error {
	if next != nil && next.next != nil {
		return errtrace.Wrap(newInvalidArgError("next message already has a successor"))
	}
	if m.next != nil && next != nil {
		next.next = m.next
	}
	m.next = next
	return nil
}

// SetStreamingSize limits the bytes received into external blocks, zero means unlimited.
func (m *Message) SetStreamingSize(n int) { m.ssize = n }

// SetBlockPool sets the pool of external streaming blocks.
func (m *Message) SetBlockPool(p *BlockPool) { m.pool = p }

// ExternalBuffers acquires external blocks for receiving n bytes of streamed
// body. Blocks come from the pool set by [Message.SetBlockPool], or are
// allocated with blockSize (the option default when zero).
func (m *Message) ExternalBuffers(ctx context.Context, n, blockSize int) ([]*Block, error) {
	if m.pool != nil {
		blockSize = m.pool.BlockSize()
	}
	if blockSize <= 0 {
		blockSize = m.mc.opts.ExternalBlockSize
	}
	if n <= 0 {
		n = blockSize
	}
	n = min(n, blockSize*min(nFragments, m.mc.opts.ExternalBlocks))
	if m.ssize > 0 {
		n = min(n, m.ssize)
	}
	cnt := (n + blockSize - 1) / blockSize
	blocks := make([]*Block, 0, cnt)
	for range cnt {
		var (
			b   *Block
			err error
		)
		if m.pool != nil {
			b, err = m.pool.Acquire(ctx)
		} else {
			b = NewBlock(blockSize)
		}
		if err != nil {
			for _, b := range blocks {
				b.Release()
			}
			return nil, errtrace.Wrap(err)
		}
		blocks = append(blocks, b)
	}
	if m.ssize > 0 {
		for _, b := range blocks {
			if b.Len() > m.ssize {
				b.buf = b.buf[:m.ssize]
			}
			m.ssize -= b.Len()
		}
	}
	for _, b := range blocks {
		m.stream = append(m.stream, b.Retain())
		b.Release()
	}
	return blocks, nil
}

// ReleaseExternal releases an external block acquired by [Message.ExternalBuffers].
func (m *Message) ReleaseExternal(b *Block) error {
	for i, x := range m.stream {
		if x == b {
			m.stream = append(m.stream[:i], m.stream[i+1:]...)
			b.Release()
			return nil
		}
	}
	return errtrace.Wrap(ErrNotFound)
}
