package msg

import (
	"github.com/ghettovoice/textmsg/internal/util"
)

// Kind tells how several headers of the same class are kept in a message.
type Kind uint8

const (
	KindSingle   Kind = iota // only one header is allowed, extra ones are errors
	KindList                 // comma-separated list, all instances merge into one header
	KindAppend               // several headers, new ones are appended
	KindPrepend              // several headers, new ones are prepended
	KindApndList             // like KindAppend, encoded as a single comma-separated list
)

var kindNames = [...]string{
	KindSingle:   "single",
	KindList:     "list",
	KindAppend:   "append",
	KindPrepend:  "prepend",
	KindApndList: "apndlist",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ClassInfo describes a header class.
//
// It is embedded into [HeaderClass] implementations and provides the default
// DupSize, DupCopy and UpdateParam methods.
type ClassInfo struct {
	// Name is the full header name. Empty for start lines, separator, payload,
	// unknown and error headers.
	Name string
	// Compact is an optional one-letter compact form of the name.
	Compact string
	// Kind tells how several instances of the header are handled.
	Kind Kind
	// Critical marks headers whose malformed value makes the whole message malformed.
	Critical bool
	// HasParams tells that the header keeps parameters or list items in [Header.Params].
	HasParams bool
	// Opaque headers keep their value as is, without trimming whitespace.
	Opaque bool
	// Bare headers are encoded without the name and the line terminator.
	Bare bool
}

// Info returns the class info.
func (ci *ClassInfo) Info() *ClassInfo { return ci }

// DupSize returns the number of bytes needed to duplicate string data of h.
// It handles string, []byte values and [Params].
func (ci *ClassInfo) DupSize(h *Header) int {
	n := h.Params.Size()
	switch v := h.Value.(type) {
	case string:
		n += len(v)
	case []byte:
		n += len(v)
	}
	return n
}

// DupCopy copies h into dst relocating string data into db.
func (ci *ClassInfo) DupCopy(dst, src *Header, db *DupBuffer) {
	switch v := src.Value.(type) {
	case string:
		dst.Value = db.String(v)
	case []byte:
		dst.Value = db.Bytes(v)
	default:
		dst.Value = v
	}
	dst.Params = db.Params(src.Params)
}

// UpdateParam is called after a parameter of h has been changed.
// The default implementation does nothing.
func (ci *ClassInfo) UpdateParam(*Header, string, string, bool) {}

// HeaderClass describes a header type: how it is named, decoded, encoded and duplicated.
//
// Implementations must be stateless, a class is shared by all messages.
type HeaderClass interface {
	Info() *ClassInfo
	// Decode parses the value s into h.
	// Multi-field headers call [Decoder.NextField] with the rest of the line.
	Decode(d *Decoder, h *Header, s string) error
	// Encode appends the value of h to b.
	Encode(b []byte, h *Header, f Flags) []byte
	DupSize(h *Header) int
	DupCopy(dst, src *Header, db *DupBuffer)
	// UpdateParam is called after a parameter has been added, replaced or removed.
	UpdateParam(h *Header, name, value string, removed bool)
}

// DupBuffer accumulates duplicated string data of a header in one block.
// A shared buffer, used for shallow copies, returns the data as is.
type DupBuffer struct {
	buf    []byte
	shared bool
}

// NewDupBuffer creates a buffer with capacity n.
func NewDupBuffer(n int) *DupBuffer {
	return &DupBuffer{buf: make([]byte, 0, n)}
}

// String copies s into the buffer.
func (db *DupBuffer) String(s string) string {
	if s == "" || db.shared {
		return s
	}
	off := len(db.buf)
	db.buf = append(db.buf, s...)
	return util.B2S(db.buf[off:len(db.buf):len(db.buf)])
}

// Bytes copies b into the buffer.
func (db *DupBuffer) Bytes(b []byte) []byte {
	if b == nil || db.shared {
		return b
	}
	off := len(db.buf)
	db.buf = append(db.buf, b...)
	return db.buf[off:len(db.buf):len(db.buf)]
}

// Params copies p into the buffer.
func (db *DupBuffer) Params(p Params) Params {
	if p == nil {
		return nil
	}
	np := make(Params, len(p), paramsCap(len(p)))
	for i := range p {
		np[i] = db.String(p[i])
	}
	return np
}

// Len returns the number of bytes written to the buffer.
func (db *DupBuffer) Len() int { return len(db.buf) }
