package msg

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/internal/errorutil"
	"github.com/ghettovoice/textmsg/internal/log"
	"github.com/ghettovoice/textmsg/internal/util"
	"github.com/ghettovoice/textmsg/scan"
)

// Extract parses committed data into the message.
//
// It returns (true, nil) when the message is complete, (false, nil) when
// more data is needed and (true, err) when extraction failed. A failed
// message is still complete, err is a [*ParseError].
// Committed data following a complete message is left for [Message.Next].
func (m *Message) Extract() (bool, error) {
	for {
		if m.flags&FlagComplete != 0 {
			return true, errtrace.Wrap(m.finish())
		}
		if len(m.chunks) > 0 {
			done, err := m.extractIncompleteChunks()
			if err != nil {
				return true, errtrace.Wrap(m.fail(err, nil))
			}
			if !done {
				return false, nil
			}
			continue
		}

		data := m.CommittedData()
		if len(data) == 0 {
			if !m.eos {
				return false, nil
			}
			if err := m.extractEOS(); err != nil {
				return true, errtrace.Wrap(m.fail(err, nil))
			}
			continue
		}

		var (
			n   int
			err error
		)
		switch m.State() {
		case ParseStateInitial:
			n, err = m.extractFirst(data)
		case ParseStateHeaders:
			n, err = m.extractHeader(data, false)
		case ParseStateBody:
			n, err = m.mc.Body.ExtractBody(m, data, m.eos)
		case ParseStateTrailers:
			n, err = m.extractHeader(data, true)
		default:
			return true, errtrace.Wrap(m.finish())
		}
		if err != nil {
			return true, errtrace.Wrap(m.fail(err, data))
		}
		if n > 0 {
			m.bufUsed(n)
			continue
		}
		if m.flags&FlagComplete == 0 && len(m.chunks) == 0 {
			if !m.eos {
				return false, nil
			}
			// the last bytes of the stream were not accepted
			if err := m.MarkComplete(FlagTrunc); err != nil {
				return true, errtrace.Wrap(m.fail(err, data))
			}
		}
	}
}

// extractEOS handles the end of stream with all committed data extracted.
func (m *Message) extractEOS() error {
	switch m.State() {
	case ParseStateInitial:
		return errtrace.Wrap(ErrNoStartLine)
	case ParseStateBody:
		n, err := m.mc.Body.ExtractBody(m, nil, true)
		if err != nil {
			return errtrace.Wrap(err)
		}
		if n == 0 && m.flags&FlagComplete == 0 {
			return errtrace.Wrap(m.MarkComplete(FlagTrunc))
		}
		return nil
	default:
		return errtrace.Wrap(m.MarkComplete(0))
	}
}

// finish converts the completion state into the Extract result.
// A failed message keeps answering with its first failure.
func (m *Message) finish() error {
	switch {
	case m.failure != nil:
		return errtrace.Wrap(m.failure)
	case m.flags&FlagError != 0:
		return errtrace.Wrap(&ParseError{Err: errtrace.Wrap(ErrMalformed), State: ParseStateError})
	case m.critical != nil:
		m.failure = &ParseError{Err: m.critical, State: ParseStateComplete}
		if err := m.markError(0); err != nil {
			m.failure.Err = errorutil.Join(m.critical, err)
		}
		return errtrace.Wrap(m.failure)
	case m.flags&FlagTrunc != 0:
		return errtrace.Wrap(&ParseError{Err: errtrace.Wrap(ErrTruncated), State: ParseStateComplete})
	}
	return nil
}

const maxErrorBuf = 256

func (m *Message) fail(err error, data []byte) error {
	st := m.State()
	mask := FlagError
	switch {
	case errors.Is(err, ErrTooLarge):
		mask |= FlagTooLarge
	case errors.Is(err, ErrTruncated):
		mask |= FlagTrunc
	}
	m.log.LogAttrs(context.Background(), slog.LevelDebug, "message extraction failed",
		slog.String("state", st.String()),
		slog.Any("flags", log.CalcValue(func() any { return m.flags.String() })),
		slog.Any("data", log.StringValue(data)),
		slog.Any("error", err),
	)
	if e := m.markError(mask); e != nil {
		err = errorutil.Join(err, e)
	}
	if m.critical != nil {
		// a malformed critical header was waiting for the end of the message
		err = errorutil.Join(err, m.critical)
	}
	m.failure = &ParseError{Err: err, State: st, Buf: bytes.Clone(data[:min(len(data), maxErrorBuf)])}
	return m.failure
}

// lineEnd finds the end of the line starting b, including folded continuation
// lines when fold is set. It returns the line length without the terminator,
// the terminator length and false when more data is needed to decide.
func (m *Message) lineEnd(b []byte, fold bool) (n, crlf int, ok bool) {
	for {
		n += scan.SpanNonCRLF(b[n:])
		if n == len(b) {
			return n, 0, m.eos
		}
		crlf = scan.CRLFLen(b[n:])
		if b[n] == '\r' && n+1 == len(b) && !m.eos {
			return 0, 0, false
		}
		if !fold {
			return n, crlf, true
		}
		if n+crlf == len(b) {
			// the next byte decides whether the line is folded
			return n, crlf, m.eos
		}
		if !scan.IsWS(b[n+crlf]) {
			return n, crlf, true
		}
		n += crlf
	}
}

func (m *Message) copyLine(b []byte) []byte {
	if m.flags&FlagExtractCopy != 0 {
		return bytes.Clone(b)
	}
	return b
}

func (m *Message) extractFirst(b []byte) (int, error) {
	n, crlf, ok := m.lineEnd(b, false)
	if !ok {
		return 0, nil
	}
	if n == 0 {
		// empty lines before the start line are skipped
		return crlf, nil
	}
	raw := m.copyLine(b[:n+crlf])
	s := util.B2S(raw[:n])

	p1, _, _, err := ParseFirstLine(s)
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	ref := m.mc.Request
	if i := scan.SpanToken(p1); i < len(p1) && p1[i] == '/' {
		ref = m.mc.Status
	}
	h := &Header{Class: ref.Class}
	if err := ref.Class.Decode(newDecoder(ref.Class), h, s); err != nil {
		return 0, errtrace.Wrap(err)
	}
	h.data, h.line, h.owner = raw, m.newLine(), m
	m.slots[ref.Slot] = []*Header{h}
	m.chainAfter(0, h)
	m.chained = true
	if err := m.fire(evtFirstLine); err != nil {
		return 0, errtrace.Wrap(err)
	}
	return n + crlf, nil
}

// extractHeader extracts one header field, or passes the empty line ending
// the section to the body extractor.
func (m *Message) extractHeader(b []byte, trailers bool) (int, error) {
	if crlf := scan.CRLFLen(b); crlf > 0 {
		if b[0] == '\r' && crlf == 1 && len(b) == 1 && !m.eos {
			return 0, nil
		}
		if trailers {
			return errtrace.Wrap2(m.extractTrailersEnd(b[:crlf]))
		}
		return errtrace.Wrap2(m.mc.Body.ExtractBody(m, b, m.eos))
	}
	n, crlf, ok := m.lineEnd(b, true)
	if !ok {
		return 0, nil
	}
	raw := m.copyLine(b[:n+crlf])
	m.headerParse(raw, util.B2S(raw[:n]))
	return n + crlf, nil
}

// extractTrailersEnd completes the message at the empty line after trailers.
// The line is kept as an empty payload fragment.
func (m *Message) extractTrailersEnd(b []byte) (int, error) {
	m.AddFragment(b, 0, 0)
	if err := m.MarkComplete(0); err != nil {
		return 0, errtrace.Wrap(err)
	}
	return len(b), nil
}

// headerParse decodes the header line s with raw bytes raw.
// Failures are re-filed as error headers.
func (m *Message) headerParse(raw []byte, s string) {
	ref, off := m.mc.Find(s)
	if off == 0 {
		m.fileError(m.mc.Unknown, raw, errtrace.Wrap(NewMalformedError("invalid header name")))
		return
	}
	var v string
	if ref == m.mc.Unknown {
		v = s
	} else {
		v = s[off:]
	}
	v = strings.Trim(unfold(v), " \t")

	hc := ref.Class
	d := newDecoder(hc)
	if hc.Info().Kind == KindList {
		if old := first(m.slots[ref.Slot]); old != nil {
			if err := d.decodeMerge(old, v); err != nil {
				m.fileError(ref, raw, err)
				return
			}
			old.ClearCache()
			return
		}
	}
	hs, err := d.decodeAll(&Header{Class: hc}, v)
	if err != nil {
		m.fileError(ref, raw, err)
		return
	}
	id := m.newLine()
	for i, h := range hs {
		h.line = id
		if i == 0 {
			h.data = raw
		} else {
			h.data = raw[len(raw):]
		}
	}
	m.appendParsed(ref, raw, hs)
}

// extractIncompleteChunks checks the body fragments bound to the receive
// buffers. It reports true when all of them are complete.
func (m *Message) extractIncompleteChunks() (bool, error) {
	for _, c := range m.chunks {
		if chunkAvail(c) > 0 {
			if m.eos {
				m.truncChunks()
				return true, errtrace.Wrap(m.MarkComplete(FlagTrunc))
			}
			return false, nil
		}
	}
	m.chunks = nil
	if !m.chunksLast || m.flags&FlagComplete != 0 {
		return true, nil
	}
	return true, errtrace.Wrap(m.MarkComplete(0))
}

// truncChunks shrinks the pending body fragments to the bytes received.
func (m *Message) truncChunks() {
	for _, c := range m.chunks {
		if pl, ok := c.Value.(*Payload); ok {
			pl.Len = len(c.data)
			if pl.Data != nil {
				pl.Data = pl.Data[:pl.Len:pl.Len]
			}
		}
	}
	m.chunks = nil
}
