package msg

import (
	"iter"
	"log/slog"

	"braces.dev/errtrace"
	"github.com/zeebo/xxh3"

	"github.com/ghettovoice/textmsg/internal/log"
	"github.com/ghettovoice/textmsg/internal/util"
	"github.com/ghettovoice/textmsg/scan"
)

// HeaderRef binds a header class to a slot of the message header table.
type HeaderRef struct {
	Class HeaderClass
	// Slot is the index in the message slot table. It is assigned by [MessageClass.Insert].
	Slot int
	// Mask is OR'ed into the message extract error mask when a header of the class fails to decode.
	Mask uint32
}

// ExtractErrorAny is set in the extract error mask whenever a header has been re-filed as an error.
const ExtractErrorAny uint32 = 1

// BodyExtractor extracts the message body.
//
// ExtractBody is called when the header section ends, with b starting at the
// empty line, and then for all the following data until the message is complete.
// It returns the number of bytes consumed, zero when more data is needed.
// Implementations call [Message.BeginBody], [Message.BeginTrailers] and
// [Message.MarkComplete] to advance the message state.
type BodyExtractor interface {
	ExtractBody(m *Message, b []byte, eos bool) (int, error)
}

// HeaderDef declares a header class of a [Config].
type HeaderDef struct {
	Class HeaderClass
	Mask  uint32
}

// Config describes a protocol for [NewMessageClass].
type Config struct {
	Name string
	// Flags are the default flags of new messages.
	Flags Flags
	// Body extracts message bodies. Required.
	Body BodyExtractor
	// Request and Status default to the generic start line classes.
	Request, Status HeaderClass
	// Multipart is an optional class of a multipart body.
	Multipart HeaderClass
	Headers   []HeaderDef
	Options   Options
	Logger    *slog.Logger
}

// MessageClass is a protocol table: the header classes, their slots and
// the body extractor.
//
// Header names are kept in an open-addressed hash table.
type MessageClass struct {
	Name  string
	Flags Flags
	Body  BodyExtractor

	Request, Status, Separator, Payload, Unknown, Error, Multipart *HeaderRef

	opts    Options
	table   []*HeaderRef
	count   int
	compact [256]*HeaderRef
	refs    []*HeaderRef
	log     *slog.Logger
}

// NewMessageClass builds a message class from cfg.
func NewMessageClass(cfg Config) (*MessageClass, error) {
	if cfg.Body == nil {
		return nil, errtrace.Wrap(newInvalidArgError("missing body extractor"))
	}
	opts := cfg.Options.withDefaults()
	of, err := opts.ParsedFlags()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	size := opts.HashSize
	if size == 0 {
		size = defHashSize(len(cfg.Headers))
	}
	mc := &MessageClass{
		Name:  cfg.Name,
		Flags: cfg.Flags | of,
		Body:  cfg.Body,
		opts:  opts,
		table: make([]*HeaderRef, size),
		log:   log.Or(cfg.Logger),
	}
	mc.Request = mc.addSlot(&HeaderRef{Class: classOr(cfg.Request, NewRequestLineClass())})
	mc.Status = mc.addSlot(&HeaderRef{Class: classOr(cfg.Status, NewStatusLineClass())})
	for _, hd := range cfg.Headers {
		if _, err := mc.Insert(&HeaderRef{Class: hd.Class, Mask: hd.Mask}); err != nil {
			return nil, errtrace.Wrap(err)
		}
	}
	mc.Unknown = mc.addSlot(&HeaderRef{Class: UnknownClass})
	mc.Error = mc.addSlot(&HeaderRef{Class: ErrorClass})
	mc.Separator = mc.addSlot(&HeaderRef{Class: SeparatorClass})
	mc.Payload = mc.addSlot(&HeaderRef{Class: PayloadClass})
	if cfg.Multipart != nil {
		mc.Multipart = mc.addSlot(&HeaderRef{Class: cfg.Multipart})
	}
	return mc, nil
}

func defHashSize(n int) int {
	return max(31, 4*n+1)
}

func classOr(hc, def HeaderClass) HeaderClass {
	if hc != nil {
		return hc
	}
	return def
}

func (mc *MessageClass) addSlot(ref *HeaderRef) *HeaderRef {
	ref.Slot = len(mc.refs)
	mc.refs = append(mc.refs, ref)
	return ref
}

// Options returns the message options of the class.
func (mc *MessageClass) Options() Options { return mc.opts }

// NumSlots returns the size of the message slot table.
func (mc *MessageClass) NumSlots() int { return len(mc.refs) }

// HashSize returns the size of the name hash table.
func (mc *MessageClass) HashSize() int { return len(mc.table) }

// Refs iterates over header refs in slot order.
func (mc *MessageClass) Refs() iter.Seq[*HeaderRef] {
	return func(yield func(*HeaderRef) bool) {
		for _, ref := range mc.refs {
			if !yield(ref) {
				return
			}
		}
	}
}

// Lookup returns the ref of class hc, or nil.
func (mc *MessageClass) Lookup(hc HeaderClass) *HeaderRef {
	for _, ref := range mc.refs {
		if ref.Class == hc {
			return ref
		}
	}
	return nil
}

func (mc *MessageClass) isFixed(ref *HeaderRef) bool {
	return ref == mc.Request || ref == mc.Status || ref == mc.Separator || ref == mc.Payload ||
		ref == mc.Unknown || ref == mc.Error || (ref == mc.Multipart && ref != nil)
}

func lowerByte(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func hashName(name string) uint64 {
	var arr [64]byte
	return xxh3.Hash(util.AppendLower(arr[:0], name))
}

// Insert adds ref to the class and assigns it a slot.
// It returns the number of hash collisions met.
func (mc *MessageClass) Insert(ref *HeaderRef) (int, error) {
	if ref == nil || ref.Class == nil {
		return 0, errtrace.Wrap(ErrInvalidArgument)
	}
	ci := ref.Class.Info()
	if ci.Name == "" || scan.SpanToken(ci.Name) != len(ci.Name) {
		return 0, errtrace.Wrap(newInvalidArgError("invalid header name %q", ci.Name))
	}
	var c byte
	if ci.Compact != "" {
		if len(ci.Compact) != 1 || !scan.IsToken(ci.Compact[0]) {
			return 0, errtrace.Wrap(newInvalidArgError("invalid compact name %q", ci.Compact))
		}
		c = lowerByte(ci.Compact[0])
		if cr := mc.compact[c]; cr != nil && cr.Class != ref.Class {
			return 0, errtrace.Wrap(ErrCompactConflict)
		}
	}
	if mc.count+1 >= len(mc.table) {
		return 0, errtrace.Wrap(ErrTableFull)
	}
	size := len(mc.table)
	i := int(hashName(ci.Name) % uint64(size))
	collisions := 0
	for ; mc.table[i] != nil; i = (i + 1) % size {
		hn := mc.table[i].Class.Info().Name
		if len(hn) == len(ci.Name) && util.EqFold(hn, ci.Name) {
			return collisions, errtrace.Wrap(ErrDuplicate)
		}
		collisions++
	}
	mc.table[i] = ref
	mc.count++
	if c != 0 {
		mc.compact[c] = ref
	}
	mc.addSlot(ref)
	return collisions, nil
}

// Find resolves the header name at the start of s.
//
// It returns the header ref, [MessageClass.Unknown] for unregistered names,
// and the offset just past the colon following the name. Whitespace, folded
// or not, is allowed between the name and the colon. A zero offset means
// the line does not start with a valid "name:".
func (mc *MessageClass) Find(s string) (*HeaderRef, int) {
	n := scan.SpanToken(s)
	if n == 0 {
		return mc.Unknown, 0
	}
	ref := mc.lookupName(s[:n])
	i := n + scan.SpanLWS(s[n:])
	if i >= len(s) || s[i] != ':' {
		return ref, 0
	}
	return ref, i + 1
}

func (mc *MessageClass) lookupName(name string) *HeaderRef {
	if len(name) == 1 {
		if ref := mc.compact[lowerByte(name[0])]; ref != nil {
			return ref
		}
	}
	size := len(mc.table)
	for i := int(hashName(name) % uint64(size)); ; i = (i + 1) % size {
		ref := mc.table[i]
		if ref == nil {
			return mc.Unknown
		}
		if hn := ref.Class.Info().Name; len(hn) == len(name) && util.EqFold(hn, name) {
			return ref
		}
	}
}

// Clone returns a copy of the class with a name table of newSize entries
// (the current size when zero). With empty, only the start line, separator,
// payload, unknown, error and multipart refs are kept.
func (mc *MessageClass) Clone(newSize int, empty bool) (*MessageClass, error) {
	if newSize == 0 {
		newSize = len(mc.table)
	}
	if !empty && newSize <= mc.count {
		return nil, errtrace.Wrap(ErrTableFull)
	}
	nmc := &MessageClass{
		Name:  mc.Name,
		Flags: mc.Flags,
		Body:  mc.Body,
		opts:  mc.opts,
		table: make([]*HeaderRef, newSize),
		log:   mc.log,
	}
	for _, ref := range mc.refs {
		nref := &HeaderRef{Class: ref.Class, Mask: ref.Mask}
		switch {
		case mc.isFixed(ref):
			nmc.addSlot(nref)
			nmc.setFixed(mc, ref, nref)
		case !empty:
			if _, err := nmc.Insert(nref); err != nil {
				return nil, errtrace.Wrap(err)
			}
		}
	}
	return nmc, nil
}

func (mc *MessageClass) setFixed(src *MessageClass, ref, nref *HeaderRef) {
	switch ref {
	case src.Request:
		mc.Request = nref
	case src.Status:
		mc.Status = nref
	case src.Separator:
		mc.Separator = nref
	case src.Payload:
		mc.Payload = nref
	case src.Unknown:
		mc.Unknown = nref
	case src.Error:
		mc.Error = nref
	case src.Multipart:
		mc.Multipart = nref
	}
}
