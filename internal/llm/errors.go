package llm

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the provider boundary. Both are retryable by the
// orchestrator, with distinct telemetry.
var (
	// ErrProvider marks a transient transport failure.
	ErrProvider = errors.New("provider request failed")

	// ErrProviderTimeout marks a bounded wait that expired.
	ErrProviderTimeout = errors.New("provider request timed out")
)

// MalformedOutputError means the provider's raw output could not be parsed
// into a fragment at all. This is distinct from a valid fragment that fails
// theory checks, and is never produced by the validator.
type MalformedOutputError struct {
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed provider output: %s", e.Reason)
}

// IsMalformedOutput reports whether err carries a MalformedOutputError.
func IsMalformedOutput(err error) bool {
	var m *MalformedOutputError
	return errors.As(err, &m)
}

// classifyTransportError folds an SDK error into the provider error taxonomy.
func classifyTransportError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", provider, ErrProviderTimeout, err)
	}
	return fmt.Errorf("%s: %w: %v", provider, ErrProvider, err)
}
