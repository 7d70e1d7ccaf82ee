package msg

//go:generate go tool errtrace -w .

import (
	"fmt"

	"github.com/ghettovoice/textmsg/internal/errorutil"
)

// Error is a sentinel error of the package.
type Error = errorutil.Error

const (
	ErrInvalidArgument Error = errorutil.ErrInvalidArgument
	ErrMalformed       Error = "malformed input"
	ErrTooLarge        Error = "message too large"
	ErrTruncated       Error = "message truncated"
	ErrNoStartLine     Error = "missing start line"
	ErrMissingLength   Error = "missing body length"
	ErrNotFound        Error = "not found"
	ErrTableFull       Error = "header table full"
	ErrDuplicate       Error = "duplicate header class"
	ErrCompactConflict Error = "compact name conflict"
	ErrNotPrepared     Error = "message not prepared"
)

// NewMalformedError returns a grammar error wrapping [ErrMalformed].
// Header classes use it to reject values.
func NewMalformedError(args ...any) error {
	return errorutil.NewGrammarError(ErrMalformed, args...) //errtrace:skip
}

// ParseError represents an error that occurred during message extraction.
//
// It contains the error that occurred, the extraction state and the unconsumed bytes.
type ParseError struct {
	Err   error
	State ParseState
	Buf   []byte
}

func (err *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", err.Err)
}

func (err *ParseError) Unwrap() error { return err.Err }

func (err *ParseError) Grammar() bool { return errorutil.IsGrammarErr(err.Err) }

func (err *ParseError) Timeout() bool { return errorutil.IsTimeoutErr(err.Err) }

func (err *ParseError) Temporary() bool { return errorutil.IsTemporaryErr(err.Err) }

// ParseState is the extraction state of a [Message].
type ParseState int

const (
	ParseStateInitial  ParseState = iota // waiting for the start line
	ParseStateHeaders                    // parsing header fields
	ParseStateBody                       // parsing message body
	ParseStateTrailers                   // parsing trailer fields
	ParseStateComplete                   // message is complete
	ParseStateError                      // extraction failed
)

var parseStateNames = [...]string{
	ParseStateInitial:  "initial",
	ParseStateHeaders:  "headers",
	ParseStateBody:     "body",
	ParseStateTrailers: "trailers",
	ParseStateComplete: "complete",
	ParseStateError:    "error",
}

func (s ParseState) String() string {
	if s >= 0 && int(s) < len(parseStateNames) {
		return parseStateNames[s]
	}
	return fmt.Sprintf("ParseState(%d)", int(s))
}

func newInvalidArgError(args ...any) error {
	return errorutil.NewInvalidArgumentError(args...) //errtrace:skip
}
