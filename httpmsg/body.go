package httpmsg

import (
	"strconv"

	"braces.dev/errtrace"

	"github.com/ghettovoice/textmsg/header"
	"github.com/ghettovoice/textmsg/internal/util"
	"github.com/ghettovoice/textmsg/msg"
	"github.com/ghettovoice/textmsg/scan"
)

// maxChunkSizeDigits limits the chunk size to 32 bits.
const maxChunkSizeDigits = 8

// Body extracts HTTP message bodies: chunked when the last transfer coding is
// "chunked", delimited by Content-Length otherwise.
type Body struct {
	// Strategy applies to responses without Content-Length.
	// Requests without it have no body.
	Strategy msg.BodyStrategy
}

// ExtractBody implements [msg.BodyExtractor].
func (b *Body) ExtractBody(m *msg.Message, data []byte, eos bool) (int, error) {
	if IsChunked(m) {
		return errtrace.Wrap2(extractChunked(m, data, eos))
	}
	lb := msg.LengthBody{Strategy: b.Strategy, Length: BodyLength}
	if m.Request() != nil {
		lb.Strategy = msg.ExplicitOrEmpty
	}
	return errtrace.Wrap2(lb.ExtractBody(m, data, eos))
}

// IsChunked reports whether the message body uses the chunked transfer coding.
func IsChunked(m *msg.Message) bool {
	items := header.Items(m.Get(TransferEncoding))
	return len(items) > 0 && util.EqFold(items[len(items)-1], "chunked")
}

// BodyLength returns the declared body length of m. Responses to HEAD are not
// known here, informational, 204 and 304 responses have an empty body.
func BodyLength(m *msg.Message) (int, bool) {
	if st := m.Status(); st != nil {
		if sl, ok := st.Value.(*msg.StatusLine); ok && (sl.Code < 200 || sl.Code == 204 || sl.Code == 304) {
			return 0, true
		}
	}
	v, ok := header.Uint32(m.Get(ContentLength))
	return int(v), ok
}

// extractChunked extracts one element of a chunked body: the separator,
// a chunk or the last chunk. Trailer fields follow the last chunk.
func extractChunked(m *msg.Message, b []byte, eos bool) (int, error) {
	if m.State() == msg.ParseStateHeaders {
		return errtrace.Wrap2(msg.ExtractSeparator(m, b))
	}
	if m.Flags()&msg.FlagFrags != 0 {
		// the line end after the data of a fragmented chunk
		if n := scan.CRLFLen(b); n > 0 {
			if n == 1 && b[0] == '\r' && len(b) == 1 && !eos {
				return 0, nil
			}
			m.AddFragment(b[:n], 0, 0)
			return n, nil
		}
	}

	ln := scan.SpanNonCRLF(b)
	crlf := scan.CRLFLen(b[ln:])
	if crlf == 0 || (crlf == 1 && b[ln] == '\r' && ln+1 == len(b)) {
		if eos {
			return 0, errtrace.Wrap(m.MarkComplete(msg.FlagTrunc))
		}
		return 0, nil
	}
	size, err := parseChunkSize(b[:ln])
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	line := ln + crlf
	if size == 0 {
		m.AddFragment(b[:line], 0, 0)
		if err := m.BeginTrailers(); err != nil {
			return 0, errtrace.Wrap(err)
		}
		return line, nil
	}

	total := line + size
	if len(b) >= total+2 || (eos && len(b) >= total) {
		end := scan.CRLFLen(b[total:])
		if end == 0 {
			return 0, errtrace.Wrap(msg.NewMalformedError("missing line end after chunk data"))
		}
		m.AddFragment(b[:total+end], line, size)
		return total + end, nil
	}
	if eos {
		m.AddFragment(b, line, len(b)-line)
		return len(b), errtrace.Wrap(m.MarkComplete(msg.FlagTrunc))
	}
	if m.Flags()&msg.FlagChunking == 0 {
		if _, err := m.BufExact(total + 2 - len(b) + 1); err != nil {
			return 0, errtrace.Wrap(err)
		}
		return 0, nil
	}
	m.AddFragment(b[:line], 0, 0)
	n, err := msg.ExtractPayload(m, b[line:], size, eos, false)
	if err != nil {
		return 0, errtrace.Wrap(err)
	}
	return line + n, nil
}

// parseChunkSize parses "chunk-size [chunk-ext]".
func parseChunkSize(b []byte) (int, error) {
	n := scan.SpanHex(b)
	if n == 0 || n > maxChunkSizeDigits {
		return 0, errtrace.Wrap(msg.NewMalformedError("invalid chunk size %q", b))
	}
	if rest := scan.SkipLWS(b[n:]); len(rest) > 0 && rest[0] != ';' {
		return 0, errtrace.Wrap(msg.NewMalformedError("invalid chunk extension %q", rest))
	}
	v, err := strconv.ParseUint(string(b[:n]), 16, 32)
	if err != nil {
		return 0, errtrace.Wrap(msg.NewMalformedError(err))
	}
	return int(v), nil
}
