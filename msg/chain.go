package msg

import (
	"iter"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/internal/errorutil"
)

// chainNode links a header into the wire-order chain.
// Links are node indexes plus one, zero means none.
type chainNode struct {
	h          *Header
	prev, next int32
}

func (m *Message) allocNode(h *Header) int32 {
	var id int32
	if m.free != 0 {
		id = m.free
		m.free = m.nodes[id-1].next
		m.nodes[id-1] = chainNode{h: h}
	} else {
		m.nodes = append(m.nodes, chainNode{h: h})
		id = int32(len(m.nodes)) //nolint:gosec
	}
	h.node = id
	h.owner = m
	return id
}

func (m *Message) node(id int32) *chainNode { return &m.nodes[id-1] }

// chainAfter links h right after the node at, or at the head when at is zero.
func (m *Message) chainAfter(at int32, h *Header) {
	if h.node != 0 {
		return
	}
	id := m.allocNode(h)
	n := m.node(id)
	if at == 0 {
		n.next = m.head
		if m.head != 0 {
			m.node(m.head).prev = id
		} else {
			m.tail = id
		}
		m.head = id
		return
	}
	an := m.node(at)
	n.prev, n.next = at, an.next
	if an.next != 0 {
		m.node(an.next).prev = id
	} else {
		m.tail = id
	}
	an.next = id
}

// chainBefore links h right before the node at, or at the tail when at is zero.
func (m *Message) chainBefore(at int32, h *Header) {
	if at == 0 {
		m.chainAfter(m.tail, h)
		return
	}
	m.chainAfter(m.node(at).prev, h)
}

func (m *Message) unchain(h *Header) {
	if h.node == 0 || h.owner != m {
		return
	}
	id := h.node
	n := m.node(id)
	if n.prev != 0 {
		m.node(n.prev).next = n.next
	} else {
		m.head = n.next
	}
	if n.next != 0 {
		m.node(n.next).prev = n.prev
	} else {
		m.tail = n.prev
	}
	*n = chainNode{next: m.free}
	m.free = id
	h.node = 0
}

func (m *Message) nextChained(h *Header) *Header {
	if h.node == 0 {
		return nil
	}
	if nx := m.node(h.node).next; nx != 0 {
		return m.node(nx).h
	}
	return nil
}

// Chain iterates over the headers linked into the message chain in wire order.
func (m *Message) Chain() iter.Seq[*Header] {
	return func(yield func(*Header) bool) {
		for id := m.head; id != 0; {
			n := m.node(id)
			next := n.next
			if !yield(n.h) {
				return
			}
			id = next
		}
	}
}

// Chained reports whether the message has a header chain.
func (m *Message) Chained() bool { return m.chained }

// CheckChain verifies the links of the header chain.
// It reports every broken link it finds.
func (m *Message) CheckChain() error {
	var (
		errs  []error
		prev  int32
		count int
	)
	for id := m.head; id != 0; id = m.node(id).next {
		n := m.node(id)
		if n.prev != prev {
			errs = append(errs, errorutil.Errorf("chain node %d: prev %d, want %d", id, n.prev, prev))
		}
		if n.h == nil || n.h.node != id || n.h.owner != m {
			errs = append(errs, errorutil.Errorf("chain node %d: header link broken", id))
		}
		prev = id
		count++
		if count > len(m.nodes) {
			errs = append(errs, errorutil.Errorf("chain loop at node %d", id))
			return errtrace.Wrap(errorutil.JoinPrefix("header chain:", errs...))
		}
	}
	if m.tail != prev {
		errs = append(errs, errorutil.Errorf("chain tail %d, want %d", m.tail, prev))
	}
	return errtrace.Wrap(errorutil.JoinPrefix("header chain:", errs...))
}

func (m *Message) firstChained(ref *HeaderRef) *Header {
	if ref == nil {
		return nil
	}
	for _, h := range m.slots[ref.Slot] {
		if h.node != 0 {
			return h
		}
	}
	return nil
}

// chainInsert links h by its class: start lines go to the head replacing
// each other, payload to the tail, prepend kinds after the start line and
// everything else before the separator or the payload.
func (m *Message) chainInsert(h *Header) {
	mc := m.mc
	switch {
	case h.Class == mc.Request.Class, h.Class == mc.Status.Class:
		other := mc.Status
		if h.Class == mc.Status.Class {
			other = mc.Request
		}
		for _, o := range m.slots[other.Slot] {
			m.unchain(o)
		}
		m.slots[other.Slot] = nil
		m.chainAfter(0, h)
	case h.Class == mc.Payload.Class:
		m.chainAfter(m.tail, h)
	case h.Class.Info().Kind == KindPrepend:
		m.chainAfter(m.firstLineNode(), h)
	default:
		at := m.firstChained(mc.Separator)
		if at == nil {
			at = m.firstChained(mc.Payload)
		}
		if at != nil {
			m.chainBefore(at.node, h)
		} else {
			m.chainAfter(m.tail, h)
		}
	}
}

func (m *Message) firstLineNode() int32 {
	if h := m.head; h != 0 {
		hc := m.node(h).h.Class
		if hc == m.mc.Request.Class || hc == m.mc.Status.Class {
			return h
		}
	}
	return 0
}
