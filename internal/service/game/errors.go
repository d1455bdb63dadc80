package game

import "errors"

var (
	ErrInvalidTransition = errors.New("command not allowed in current phase")
	ErrStaleRound        = errors.New("night round already closed")
	ErrNotEntitled       = errors.New("actor not entitled to this action")
	ErrInvalidTarget     = errors.New("invalid target")
	// 答题竞态是正常现象，不向客户端报错
	ErrUnknownPrompt = errors.New("question is not the active prompt")

	ErrMalformedRequest = errors.New("malformed request")
	ErrUnknownRequest   = errors.New("unknown request type")
	ErrEngineBusy       = errors.New("engine queue full")
	ErrEngineStopped    = errors.New("engine stopped")
	ErrInternal         = errors.New("internal error")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidTransition, "InvalidTransition"},
	{ErrStaleRound, "StaleRound"},
	{ErrNotEntitled, "NotEntitled"},
	{ErrInvalidTarget, "InvalidTarget"},
	{ErrUnknownPrompt, "UnknownPrompt"},
	{ErrMalformedRequest, "MalformedRequest"},
	{ErrUnknownRequest, "UnknownRequest"},
	{ErrEngineBusy, "Busy"},
	{ErrEngineStopped, "Stopped"},
}

// ErrorKind maps an error to the kind string sent in error envelopes.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}

	return "Internal"
}

// isSilent reports whether a rejection should not be acknowledged to the sender.
func isSilent(err error) bool {
	return errors.Is(err, ErrUnknownPrompt)
}
