package core

import "errors"

// ErrorCode is the wire-level error identifier attached to error
// outcomes and error events sent to clients.
type ErrorCode string

const (
	CodeUnknownAgent    ErrorCode = "UNKNOWN_AGENT"
	CodeNoSuitableAgent ErrorCode = "NO_SUITABLE_AGENT"
	CodeBackendTimeout  ErrorCode = "BACKEND_TIMEOUT"
	CodeBackendError    ErrorCode = "BACKEND_ERROR"
	CodeDuplicateAgent  ErrorCode = "DUPLICATE_AGENT"
	CodeInvalidMessage  ErrorCode = "INVALID_MESSAGE"
)

// Sentinel errors for registry and dispatch failures. Callers branch on
// these with errors.Is; the matching ErrorCode is what goes on the wire.
var (
	ErrDuplicateAgent  = errors.New("agent already registered")
	ErrUnknownAgent    = errors.New("unknown agent")
	ErrNoSuitableAgent = errors.New("no suitable agent available")
)

// CodeForError maps a registry/dispatch error to its wire code.
// Unrecognized errors map to CodeBackendError.
func CodeForError(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrUnknownAgent):
		return CodeUnknownAgent
	case errors.Is(err, ErrDuplicateAgent):
		return CodeDuplicateAgent
	case errors.Is(err, ErrNoSuitableAgent):
		return CodeNoSuitableAgent
	default:
		return CodeBackendError
	}
}
