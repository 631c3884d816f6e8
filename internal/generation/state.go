package generation

// State tracks a request through the generate/validate pipeline. States are
// surfaced in logs and traces only; callers observe just the final result.
type State int

const (
	StatePending State = iota
	StateGenerating
	StateValidating
	StateAccepted
	StateRejected
	StateRetryExhausted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGenerating:
		return "generating"
	case StateValidating:
		return "validating"
	case StateAccepted:
		return "accepted"
	case StateRejected:
		return "rejected"
	case StateRetryExhausted:
		return "retry_exhausted"
	default:
		return "unknown"
	}
}

// retryBudget is the number of generate/validate attempts left. It is a
// value: each consume returns a smaller budget rather than mutating shared
// state.
type retryBudget struct {
	remaining int
}

func newRetryBudget(attempts int) retryBudget {
	if attempts <= 0 {
		attempts = 1
	}
	return retryBudget{remaining: attempts}
}

func (b retryBudget) exhausted() bool {
	return b.remaining <= 0
}

func (b retryBudget) consume() retryBudget {
	return retryBudget{remaining: b.remaining - 1}
}
