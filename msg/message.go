package msg

import (
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/ghettovoice/textmsg/internal/log"
)

// Addr holds the transport addresses a message was received on or is sent to.
type Addr struct {
	Local, Remote net.Addr
}

// Message is a text message being extracted or built.
//
// A message owns its headers: the physical chain in wire order and a slot
// table with the headers of each class in logical order. It is not safe for
// concurrent use, except [Message.Ref] and [Message.Destroy].
type Message struct {
	mc    *MessageClass
	log   *slog.Logger
	refs  atomic.Int32
	flags Flags
	errs  uint32
	// critical records a header failure that fails the message at the end of extraction.
	critical error
	// failure is the first extraction failure, repeated by later Extract calls.
	failure *ParseError

	slots   [][]*Header
	nodes   []chainNode
	free    int32
	head    int32
	tail    int32
	chained bool
	lineSeq uint64

	data     []byte
	used     int
	commit   int
	eos      bool
	setBuf   bool
	size     int
	maxSize  int
	minBlock int
	cur      *Block
	blocks   []*Block
	chunks   []*Header
	// chunksLast is set when the pending fragments end the message.
	chunksLast bool

	ssize  int
	stream []*Block
	pool   *BlockPool

	next *Message
	addr Addr
}

// New creates an empty message of class mc.
// Behaviour flags of flags are added to the class default flags.
func New(mc *MessageClass, flags Flags) *Message {
	opts := mc.opts
	m := &Message{
		mc:       mc,
		log:      mc.log,
		flags:    (mc.Flags | flags) & behaviourFlags,
		slots:    make([][]*Header, mc.NumSlots()),
		maxSize:  opts.MaxSize,
		minBlock: opts.MinBlock,
		ssize:    opts.StreamingSize,
	}
	m.refs.Store(1)
	return m
}

// Class returns the message class.
func (m *Message) Class() *MessageClass { return m.mc }

// SetLogger sets the message logger, nil disables logging.
func (m *Message) SetLogger(l *slog.Logger) { m.log = log.Or(l) }

// Ref takes a reference to the message.
func (m *Message) Ref() *Message {
	m.refs.Add(1)
	return m
}

// Destroy drops a reference. The last one releases the message blocks and
// destroys the attached next message.
func (m *Message) Destroy() {
	if m == nil || m.refs.Add(-1) != 0 {
		return
	}
	for _, b := range m.blocks {
		b.Release()
	}
	for _, b := range m.stream {
		b.Release()
	}
	m.blocks, m.stream, m.data, m.cur = nil, nil, nil, nil
	m.chunks = nil
	if m.next != nil {
		m.next.Destroy()
		m.next = nil
	}
}

// Flags returns the message flags.
func (m *Message) Flags() Flags { return m.flags }

// GetFlags returns the message flags masked with mask.
func (m *Message) GetFlags(mask Flags) Flags { return m.flags & mask }

// SetFlags sets behaviour flags of mask and returns the resulting flags.
func (m *Message) SetFlags(mask Flags) Flags {
	m.flags |= mask & behaviourFlags
	return m.flags
}

// ZapFlags clears behaviour flags of mask and returns the resulting flags.
func (m *Message) ZapFlags(mask Flags) Flags {
	m.flags &^= mask & behaviourFlags
	return m.flags
}

// IsComplete reports whether extraction is finished.
func (m *Message) IsComplete() bool { return m.flags&FlagComplete != 0 }

// HasError reports whether the message failed to extract or has a malformed critical header.
func (m *Message) HasError() bool { return m.flags&FlagError != 0 || m.critical != nil }

// ExtractErrors returns the OR of [HeaderRef.Mask] of all headers that failed to decode.
func (m *Message) ExtractErrors() uint32 { return m.errs }

// IsStreaming reports whether body fragments are delivered as they arrive.
func (m *Message) IsStreaming() bool { return m.flags&FlagStreaming != 0 }

// SetStreaming turns streaming on or off.
func (m *Message) SetStreaming(on bool) {
	if on {
		m.flags |= FlagStreaming
	} else {
		m.flags &^= FlagStreaming
	}
}

// Addr returns the transport addresses of the message.
func (m *Message) Addr() Addr { return m.addr }

// SetAddr sets the transport addresses of the message.
func (m *Message) SetAddr(a Addr) { m.addr = a }

// Slot returns the headers kept in the slot of ref, in logical order.
// The returned slice must not be modified.
func (m *Message) Slot(ref *HeaderRef) []*Header {
	if ref == nil || ref.Slot >= len(m.slots) {
		return nil
	}
	return m.slots[ref.Slot]
}

// Get returns the first header of class hc.
func (m *Message) Get(hc HeaderClass) *Header {
	if hs := m.GetAll(hc); len(hs) > 0 {
		return hs[0]
	}
	return nil
}

// GetAll returns all headers of class hc.
func (m *Message) GetAll(hc HeaderClass) []*Header {
	return m.Slot(m.mc.Lookup(hc))
}

// Request returns the request line header.
func (m *Message) Request() *Header { return first(m.Slot(m.mc.Request)) }

// Status returns the status line header.
func (m *Message) Status() *Header { return first(m.Slot(m.mc.Status)) }

// Payload returns the first body fragment.
func (m *Message) Payload() *Header { return first(m.Slot(m.mc.Payload)) }

// Body returns the message body, fragments joined.
func (m *Message) Body() []byte {
	pls := m.Slot(m.mc.Payload)
	switch len(pls) {
	case 0:
		return nil
	case 1:
		pl, _ := pls[0].Value.(*Payload)
		return pl.Bytes()
	}
	var b []byte
	for _, h := range pls {
		pl, _ := h.Value.(*Payload)
		b = append(b, pl.Bytes()...)
	}
	return b
}

// Errors returns the headers that failed to decode.
func (m *Message) Errors() []*Header { return m.Slot(m.mc.Error) }

func first(hs []*Header) *Header {
	if len(hs) == 0 {
		return nil
	}
	return hs[0]
}

func (m *Message) newLine() uint64 {
	m.lineSeq++
	return m.lineSeq
}

// clearLine drops the cached encoding of all headers of the encoded line id.
func (m *Message) clearLine(id uint64) {
	for _, hs := range m.slots {
		for _, h := range hs {
			if h.line == id {
				h.data, h.line = nil, 0
			}
		}
	}
}

// LogValue implements [slog.LogValuer].
func (m *Message) LogValue() slog.Value {
	if m == nil {
		return slog.Value{}
	}
	attrs := []slog.Attr{
		slog.String("class", m.mc.Name),
		slog.String("state", m.State().String()),
		slog.String("flags", m.flags.String()),
	}
	if h := m.Request(); h != nil {
		attrs = append(attrs, slog.Any("request", h))
	} else if h := m.Status(); h != nil {
		attrs = append(attrs, slog.Any("status", h))
	}
	return slog.GroupValue(attrs...)
}
