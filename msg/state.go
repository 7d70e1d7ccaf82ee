package msg

import (
	"context"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"
)

const (
	evtFirstLine = "first_line"
	evtBody      = "body"
	evtTrailers  = "trailers"
	evtComplete  = "complete"
	evtFail      = "fail"
)

type msgCtxKey struct{}

func msgFromCtx(ctx context.Context) *Message {
	return ctx.Value(msgCtxKey{}).(*Message) //nolint:forcetypeassert
}

// parseFSM is shared by all messages, the state lives in the message flags.
var parseFSM = newParseFSM()

func newParseFSM() *stateless.StateMachine {
	fsm := stateless.NewStateMachineWithExternalStorage(
		func(ctx context.Context) (stateless.State, error) {
			return msgFromCtx(ctx).State(), nil
		},
		func(ctx context.Context, s stateless.State) error {
			msgFromCtx(ctx).enterState(s.(ParseState)) //nolint:forcetypeassert
			return nil
		},
		stateless.FiringImmediate,
	)

	fsm.Configure(ParseStateInitial).
		Permit(evtFirstLine, ParseStateHeaders).
		Permit(evtComplete, ParseStateComplete).
		Permit(evtFail, ParseStateError)

	fsm.Configure(ParseStateHeaders).
		Permit(evtBody, ParseStateBody).
		Permit(evtComplete, ParseStateComplete).
		Permit(evtFail, ParseStateError)

	fsm.Configure(ParseStateBody).
		Ignore(evtBody).
		Permit(evtTrailers, ParseStateTrailers).
		Permit(evtComplete, ParseStateComplete).
		Permit(evtFail, ParseStateError)

	fsm.Configure(ParseStateTrailers).
		Ignore(evtTrailers).
		Permit(evtComplete, ParseStateComplete).
		Permit(evtFail, ParseStateError)

	fsm.Configure(ParseStateComplete).
		Ignore(evtComplete).
		Permit(evtFail, ParseStateError)

	fsm.Configure(ParseStateError).
		Ignore(evtComplete).
		Ignore(evtFail)

	return fsm
}

// State returns the extraction state derived from the message flags.
func (m *Message) State() ParseState {
	switch f := m.flags; {
	case f&FlagError != 0:
		return ParseStateError
	case f&FlagComplete != 0:
		return ParseStateComplete
	case f&FlagTrailers != 0:
		return ParseStateTrailers
	case f&FlagBody != 0:
		return ParseStateBody
	case f&FlagHeaders != 0:
		return ParseStateHeaders
	default:
		return ParseStateInitial
	}
}

func (m *Message) enterState(s ParseState) {
	switch s {
	case ParseStateHeaders:
		m.flags |= FlagHeaders
	case ParseStateBody:
		m.flags |= FlagBody
	case ParseStateTrailers:
		m.flags |= FlagTrailers
	case ParseStateComplete:
		m.flags |= FlagComplete
		m.flags &^= FlagStreaming
	case ParseStateError:
		m.flags |= FlagError | FlagComplete
		m.flags &^= FlagStreaming
	case ParseStateInitial:
	}
}

func (m *Message) fire(evt string) error {
	return errtrace.Wrap(parseFSM.FireCtx(context.WithValue(context.Background(), msgCtxKey{}, m), evt))
}

// BeginBody marks the end of the header section.
// Body extractors call it before they consume the body.
func (m *Message) BeginBody() error { return errtrace.Wrap(m.fire(evtBody)) }

// BeginTrailers marks the end of the body, trailer fields follow.
func (m *Message) BeginTrailers() error { return errtrace.Wrap(m.fire(evtTrailers)) }

// MarkComplete marks the message complete and sets the extra state flags of mask
// (for example [FlagTrunc] or [FlagTooLarge]).
func (m *Message) MarkComplete(mask Flags) error {
	if err := m.fire(evtComplete); err != nil {
		return errtrace.Wrap(err)
	}
	m.flags |= mask & stateFlags
	return nil
}

// markError moves the message to the error state, which also completes it.
// The state is derived from the flags, so mask is applied after the transition.
func (m *Message) markError(mask Flags) error {
	if err := m.fire(evtFail); err != nil {
		return errtrace.Wrap(err)
	}
	m.flags |= mask & stateFlags
	return nil
}
