package msg

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/scan"
)

func (m *Message) own(hs []*Header) error {
	for _, h := range hs {
		if h == nil || h.Class == nil {
			return errtrace.Wrap(newInvalidArgError("nil header"))
		}
		if h.owner != nil && h.owner != m {
			return errtrace.Wrap(newInvalidArgError("header %q belongs to another message", h.Name()))
		}
		if h.owner == m && h.node != 0 {
			return errtrace.Wrap(newInvalidArgError("header %q already added", h.Name()))
		}
	}
	for _, h := range hs {
		h.owner = m
	}
	return nil
}

func (m *Message) slotRef(ref *HeaderRef) error {
	if ref == nil || ref.Slot >= len(m.slots) || m.mc.refs[ref.Slot] != ref {
		return errtrace.Wrap(newInvalidArgError("header ref of another message class"))
	}
	return nil
}

// Add adds headers hs to the slot of ref.
//
// Single and list kinds replace the headers already in the slot, append kinds
// are appended and prepend kinds are prepended. When the message has a header
// chain, the new headers are linked into it.
func (m *Message) Add(ref *HeaderRef, hs ...*Header) error {
	if err := m.slotRef(ref); err != nil {
		return errtrace.Wrap(err)
	}
	if len(hs) == 0 {
		return nil
	}
	if err := m.own(hs); err != nil {
		return errtrace.Wrap(err)
	}
	switch ref.Class.Info().Kind {
	case KindSingle, KindList:
		for _, h := range m.slots[ref.Slot] {
			if !slices.Contains(hs, h) {
				m.detach(h)
			}
		}
		m.slots[ref.Slot] = slices.Clone(hs)
	case KindPrepend:
		m.slots[ref.Slot] = append(slices.Clone(hs), m.slots[ref.Slot]...)
	default:
		m.slots[ref.Slot] = append(m.slots[ref.Slot], hs...)
	}
	if m.chained {
		for _, h := range hs {
			m.chainInsert(h)
		}
	}
	return nil
}

// Prepend adds headers hs in front of the slot of ref.
// Headers of single kinds replace the slot.
func (m *Message) Prepend(ref *HeaderRef, hs ...*Header) error {
	if err := m.slotRef(ref); err != nil {
		return errtrace.Wrap(err)
	}
	if ref.Class.Info().Kind == KindSingle {
		return errtrace.Wrap(m.Add(ref, hs...))
	}
	if len(hs) == 0 {
		return nil
	}
	if err := m.own(hs); err != nil {
		return errtrace.Wrap(err)
	}
	m.slots[ref.Slot] = append(slices.Clone(hs), m.slots[ref.Slot]...)
	if m.chained {
		for _, h := range hs {
			m.chainInsert(h)
		}
	}
	return nil
}

// Insert adds headers hs to their slots and links them into the header chain.
// Start lines replace each other at the head, the payload is appended at the
// end, prepend kinds follow the start line and other headers go before the
// separator or the payload.
func (m *Message) Insert(hs ...*Header) error {
	for _, h := range hs {
		if h == nil || h.Class == nil {
			return errtrace.Wrap(newInvalidArgError("nil header"))
		}
		ref := m.mc.Lookup(h.Class)
		if ref == nil {
			return errtrace.Wrap(ErrNotFound)
		}
		if err := m.own([]*Header{h}); err != nil {
			return errtrace.Wrap(err)
		}
		mc := m.mc
		switch {
		case ref == mc.Request || ref == mc.Status:
			m.dropSlot(ref)
			m.slots[ref.Slot] = []*Header{h}
		case ref.Class.Info().Kind == KindSingle || ref.Class.Info().Kind == KindList:
			m.dropSlot(ref)
			m.slots[ref.Slot] = []*Header{h}
		case ref.Class.Info().Kind == KindPrepend:
			m.slots[ref.Slot] = append([]*Header{h}, m.slots[ref.Slot]...)
		default:
			m.slots[ref.Slot] = append(m.slots[ref.Slot], h)
		}
		m.chainInsert(h)
		m.chained = true
	}
	return nil
}

// dropSlot removes all headers of the slot.
func (m *Message) dropSlot(ref *HeaderRef) {
	for _, h := range m.slots[ref.Slot] {
		m.detach(h)
	}
	m.slots[ref.Slot] = nil
}

func (m *Message) detach(h *Header) {
	h.ClearCache()
	m.unchain(h)
	m.chunks = slices.DeleteFunc(m.chunks, func(c *Header) bool { return c == h })
	h.owner = nil
}

func (m *Message) indexOf(h *Header) (*HeaderRef, int) {
	if h == nil || h.owner != m {
		return nil, -1
	}
	ref := m.mc.Lookup(h.Class)
	if ref == nil {
		if h.Class == UnknownClass {
			ref = m.mc.Unknown
		} else {
			return nil, -1
		}
	}
	return ref, slices.Index(m.slots[ref.Slot], h)
}

// Remove removes h from the message.
// Cached encodings shared with h are cleared.
func (m *Message) Remove(h *Header) error {
	ref, i := m.indexOf(h)
	if i < 0 {
		return errtrace.Wrap(ErrNotFound)
	}
	m.slots[ref.Slot] = slices.Delete(m.slots[ref.Slot], i, i+1)
	if len(m.slots[ref.Slot]) == 0 {
		m.slots[ref.Slot] = nil
	}
	m.detach(h)
	return nil
}

// RemoveAll removes h and all headers following it in its slot.
func (m *Message) RemoveAll(h *Header) error {
	ref, i := m.indexOf(h)
	if i < 0 {
		return errtrace.Wrap(ErrNotFound)
	}
	for _, x := range m.slots[ref.Slot][i:] {
		m.detach(x)
	}
	clear(m.slots[ref.Slot][i:])
	m.slots[ref.Slot] = m.slots[ref.Slot][:i]
	if i == 0 {
		m.slots[ref.Slot] = nil
	}
	return nil
}

// Replace puts headers hs in place of old, both in its slot and in the chain.
// The headers must be of the same class as old.
func (m *Message) Replace(old *Header, hs ...*Header) error {
	ref, i := m.indexOf(old)
	if i < 0 {
		return errtrace.Wrap(ErrNotFound)
	}
	for _, h := range hs {
		if h == nil || h.Class != old.Class {
			return errtrace.Wrap(newInvalidArgError("replacement of another class"))
		}
	}
	if err := m.own(hs); err != nil {
		return errtrace.Wrap(err)
	}
	if old.node != 0 {
		at := m.node(old.node).prev
		for _, h := range hs {
			m.chainAfter(at, h)
			at = h.node
		}
	}
	slot := slices.Delete(m.slots[ref.Slot], i, i+1)
	m.slots[ref.Slot] = slices.Insert(slot, i, hs...)
	if len(m.slots[ref.Slot]) == 0 {
		m.slots[ref.Slot] = nil
	}
	m.detach(old)
	return nil
}

func (m *Message) refOf(hc HeaderClass) (*HeaderRef, error) {
	if hc == nil {
		return nil, errtrace.Wrap(newInvalidArgError("nil header class"))
	}
	if ref := m.mc.Lookup(hc); ref != nil {
		return ref, nil
	}
	if hc == UnknownClass {
		return m.mc.Unknown, nil
	}
	return nil, errtrace.Wrap(ErrNotFound)
}

// AddDup adds deep copies of hs. Items of list kinds are joined into the
// header already in the message, duplicates dropped.
func (m *Message) AddDup(hs ...*Header) error {
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := m.addDupAs(h.Class, h); err != nil {
			return errtrace.Wrap(err)
		}
	}
	return nil
}

// AddDupAs adds deep copies of hs giving them class hc.
func (m *Message) AddDupAs(hc HeaderClass, hs ...*Header) error {
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := m.addDupAs(hc, h); err != nil {
			return errtrace.Wrap(err)
		}
	}
	return nil
}

func (m *Message) addDupAs(hc HeaderClass, h *Header) error {
	ref, err := m.refOf(hc)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if ci := hc.Info(); ci.Kind == KindList && ci.HasParams {
		if old := first(m.slots[ref.Slot]); old != nil {
			return errtrace.Wrap(old.JoinItems(h, true))
		}
	}
	return errtrace.Wrap(m.Add(ref, DupHeaderAs(hc, h)))
}

// AddMake decodes s as value of class hc and adds the result.
// The items of a list kind header already in the message are extended instead.
func (m *Message) AddMake(hc HeaderClass, s string) error {
	ref, err := m.refOf(hc)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if ci := hc.Info(); ci.Kind == KindList && ci.HasParams {
		if old := first(m.slots[ref.Slot]); old != nil {
			items, _, err := ParseCommaList(strings.Trim(s, " \t\r\n"), old.Params, nil)
			if err != nil {
				return errtrace.Wrap(err)
			}
			old.Params = items
			old.UpdateParams(false)
			old.ClearCache()
			return nil
		}
	}
	hs, err := MakeHeaders(hc, s)
	if err != nil {
		return errtrace.Wrap(err)
	}
	return errtrace.Wrap(m.Add(ref, hs...))
}

// AddFormat is like [Message.AddMake] but formats the value first.
func (m *Message) AddFormat(hc HeaderClass, format string, args ...any) error {
	return errtrace.Wrap(m.AddMake(hc, fmt.Sprintf(format, args...)))
}

// AddString parses s as a header section and adds the headers to the message.
// Folded lines are joined. When s contains an empty line, the rest of s is
// added as the message body after a separator.
func (m *Message) AddString(s string) error {
	for s != "" {
		n := scan.SpanNonCRLF(s)
		crlf := scan.CRLFLen(s[n:])
		if n == 0 && crlf > 0 {
			return errtrace.Wrap(m.addBody(s[:crlf], s[crlf:]))
		}
		for n+crlf < len(s) && crlf > 0 && scan.IsWS(s[n+crlf]) {
			n += crlf
			n += scan.SpanNonCRLF(s[n:])
			crlf = scan.CRLFLen(s[n:])
		}
		line := unfold(s[:n])
		s = s[n+crlf:]
		if strings.TrimLeft(line, " \t") == "" {
			continue
		}
		ref, off := m.mc.Find(line)
		if off == 0 {
			return errtrace.Wrap(NewMalformedError("invalid header line %q", line))
		}
		if ref == m.mc.Unknown {
			h, err := MakeHeader(UnknownClass, line)
			if err != nil {
				return errtrace.Wrap(err)
			}
			if err := m.Add(ref, h); err != nil {
				return errtrace.Wrap(err)
			}
			continue
		}
		if err := m.AddMake(ref.Class, line[off:]); err != nil {
			return errtrace.Wrap(err)
		}
	}
	return nil
}

func (m *Message) addBody(sep, body string) error {
	h := &Header{Class: SeparatorClass, Value: sep}
	if err := m.Add(m.mc.Separator, h); err != nil {
		return errtrace.Wrap(err)
	}
	if body == "" {
		return nil
	}
	return errtrace.Wrap(m.Add(m.mc.Payload, &Header{Class: PayloadClass, Value: &Payload{Data: []byte(body), Len: len(body)}}))
}

// unfold replaces line breaks of folded lines with spaces.
func unfold(s string) string {
	if scan.SpanNonCRLF(s) == len(s) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}

// ParseHeader decodes a complete header line "name: value" with the class
// registered for the name. Lines that do not decode with their class are
// returned as headers of [UnknownClass]. The header is not added to the message.
func (m *Message) ParseHeader(s string) (*Header, error) {
	line := strings.Trim(unfold(s), " \t\r\n")
	ref, off := m.mc.Find(line)
	if off == 0 {
		return nil, errtrace.Wrap(NewMalformedError("invalid header line %q", line))
	}
	if ref != m.mc.Unknown {
		if h, err := MakeHeader(ref.Class, line[off:]); err == nil {
			return h, nil
		}
	}
	return errtrace.Wrap2(MakeHeader(UnknownClass, line))
}

// appendParsed files extracted headers into the slot of ref and the chain.
// A second header of a single kind is re-filed as an error.
func (m *Message) appendParsed(ref *HeaderRef, raw []byte, hs []*Header) {
	ci := ref.Class.Info()
	if ci.Kind == KindSingle && len(m.slots[ref.Slot]) > 0 {
		m.fileError(ref, raw, errtrace.Wrap(NewMalformedError("duplicate %s header", ci.Name)))
		return
	}
	for _, h := range hs {
		h.owner = m
		if ci.Kind == KindPrepend {
			m.slots[ref.Slot] = append([]*Header{h}, m.slots[ref.Slot]...)
		} else {
			m.slots[ref.Slot] = append(m.slots[ref.Slot], h)
		}
		m.chainAfter(m.tail, h)
	}
	m.chained = true
}

// fileError adds the raw header line as an error header of the class of ref.
func (m *Message) fileError(ref *HeaderRef, raw []byte, cause error) {
	ci := ref.Class.Info()
	name := ci.Name
	line := trimLine(raw)
	if ref == m.mc.Unknown {
		name = line[:scan.SpanToken(line)]
	}
	h := &Header{Class: ErrorClass, Value: &ErrorValue{Name: name, Raw: line}}
	h.data = raw
	h.line = m.newLine()
	h.owner = m
	m.slots[m.mc.Error.Slot] = append(m.slots[m.mc.Error.Slot], h)
	m.chainAfter(m.tail, h)
	m.chained = true
	m.errs |= ExtractErrorAny | ref.Mask
	if ci.Critical && m.critical == nil {
		m.critical = cause
	}
	m.log.LogAttrs(context.Background(), slog.LevelDebug, "header re-filed as error",
		slog.String("header", name),
		slog.Bool("critical", ci.Critical),
		slog.Any("error", cause),
	)
}

// trimLine returns the line without the terminator.
func trimLine(raw []byte) string {
	s := string(raw)
	return strings.TrimRight(s, "\r\n")
}
