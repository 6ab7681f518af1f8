package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the game core wraps exactly one of these,
// so callers can classify failures with errors.Is.
var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrState is returned when an operation is not valid in the current game or table state.
	ErrState = errors.New("invalid state")
	// ErrTimeout is returned when an answer arrives after the question deadline.
	ErrTimeout = errors.New("time is up")
	// ErrForbidden is returned when a non-leader attempts a leader-only action.
	ErrForbidden = errors.New("not allowed")
	// ErrNotFound is returned for unknown tables and unknown event types.
	ErrNotFound = errors.New("not found")
	// ErrBoundary is returned when the question cursor cannot move any further.
	ErrBoundary = errors.New("question boundary")
	// ErrTransport is returned when a message could not be handed to a session.
	ErrTransport = errors.New("transport failure")
)

var (
	ErrNameTooLong      = fmt.Errorf("%w: table name must not exceed %d characters", ErrValidation, MaxTableNameLength)
	ErrNegativeCount    = fmt.Errorf("%w: invalid table count", ErrValidation)
	ErrMalformedMessage = fmt.Errorf("%w: malformed message", ErrValidation)

	ErrNotInQuestion     = fmt.Errorf("%w: not in question", ErrState)
	ErrNoCurrentQuestion = fmt.Errorf("%w: no current question", ErrState)
	ErrAlreadyAnswered   = fmt.Errorf("%w: question already answered", ErrState)
	ErrGameStarted       = fmt.Errorf("%w: game already started", ErrState)
	ErrGameNotStarted    = fmt.Errorf("%w: game not started", ErrState)

	ErrTimeIsUp = fmt.Errorf("%w: answers are no longer accepted", ErrTimeout)

	ErrNotLeader = fmt.Errorf("%w: only the table leader can do this", ErrForbidden)

	ErrTableNotFound = fmt.Errorf("table %w", ErrNotFound)

	ErrLastQuestion  = fmt.Errorf("%w: this is the last question, no more questions available", ErrBoundary)
	ErrFirstQuestion = fmt.Errorf("%w: this is the first question", ErrBoundary)

	ErrSessionClosed  = fmt.Errorf("%w: session closed", ErrTransport)
	ErrSendBufferFull = fmt.Errorf("%w: send buffer full", ErrTransport)
)

// UnknownEventError reports an inbound event_type the receiving session does not handle.
func UnknownEventError(eventType string) error {
	return fmt.Errorf("%w: unknown event type %q", ErrNotFound, eventType)
}

// GameStateError reports an operation attempted in the wrong game state.
func GameStateError(op string, state GameState) error {
	return fmt.Errorf("%w: cannot %s while game is %s", ErrState, op, state)
}

// Kind names the error kind of err for logs. It returns "internal" for errors
// outside the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrState):
		return "state"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrForbidden):
		return "authorization"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrBoundary):
		return "boundary"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "internal"
	}
}
