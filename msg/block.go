package msg

import "sync/atomic"

// Block is a reference-counted byte block.
//
// A message holds one reference to every block its headers point into.
// Copies of the message take their own references, so the block outlives
// whichever holder is destroyed first.
type Block struct {
	buf     []byte
	refs    atomic.Int32
	release func()
}

// NewBlock allocates a block of n bytes holding one reference.
func NewBlock(n int) *Block {
	return newBlock(make([]byte, n), nil)
}

func newBlock(buf []byte, release func()) *Block {
	b := &Block{buf: buf, release: release}
	b.refs.Store(1)
	return b
}

// Bytes returns the block memory.
func (b *Block) Bytes() []byte { return b.buf }

// Len returns the block size.
func (b *Block) Len() int { return len(b.buf) }

// Refs returns the current number of references.
func (b *Block) Refs() int { return int(b.refs.Load()) }

// Retain takes a reference.
func (b *Block) Retain() *Block {
	b.refs.Add(1)
	return b
}

// Release drops a reference. The last one frees the block.
// It reports whether the block has been freed.
func (b *Block) Release() bool {
	if b.refs.Add(-1) != 0 {
		return false
	}
	if b.release != nil {
		b.release()
	}
	b.buf = nil
	return true
}
