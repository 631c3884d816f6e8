package generation

import (
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/aideas-api/internal/theory"
)

// GenerationFailedError reports retry exhaustion: every attempt came back
// malformed, failed in transit or failed theory checks. It carries the
// violations from the last validated attempt, or the last provider error,
// so the caller can say why.
type GenerationFailedError struct {
	Attempts   int
	Violations []theory.Violation
	LastErr    error
}

func (e *GenerationFailedError) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("generation failed after %d attempts: last attempt had %d theory violations", e.Attempts, len(e.Violations))
	}
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *GenerationFailedError) Unwrap() error {
	return e.LastErr
}

// IsGenerationFailed reports whether err is a retry-exhaustion failure.
func IsGenerationFailed(err error) bool {
	var target *GenerationFailedError
	return errors.As(err, &target)
}
