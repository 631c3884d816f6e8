// Package theory checks generated fragments for harmonic, melodic and
// rhythmic legality. All checks are pure functions over the fragment; the
// rule set is open, so callers can append their own rules to DefaultRules.
package theory

import (
	"fmt"
	"sort"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

// Severity ranks a violation. Warnings are surfaced but do not block
// acceptance; errors do.
type Severity int

// Severity levels.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Location pins a violation to a spot in the fragment.
type Location struct {
	Measure int        `json:"measure"`
	Beat    music.Beat `json:"beat"`
}

// Violation is a single rule-check failure.
type Violation struct {
	RuleID   string   `json:"ruleId"`
	Location Location `json:"location"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s at measure %d beat %s: %s",
		v.Severity, v.RuleID, v.Location.Measure, v.Location.Beat, v.Message)
}

// Result is the outcome of running the rule set over a fragment. It is never
// mutated after creation.
type Result struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations"`
}

// Errors returns only the violations with error severity.
func (r Result) Errors() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Rule is a stateless predicate over a fragment. Rules must be independent:
// each returns its own violations without looking at other rules' output.
type Rule interface {
	ID() string
	Check(frag *music.Fragment) []Violation
}

// Validator runs an ordered set of rules over fragments.
type Validator struct {
	rules []Rule
}

// NewValidator builds a validator over the given rules. With no rules it
// falls back to DefaultRules.
func NewValidator(rules ...Rule) *Validator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Validator{rules: rules}
}

// Validate runs every rule and aggregates violations, ordered by fragment
// position then rule id. The fragment passes only if no violation has error
// severity.
func (v *Validator) Validate(frag *music.Fragment) Result {
	var violations []Violation
	for _, rule := range v.rules {
		violations = append(violations, rule.Check(frag)...)
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if c := violations[i].Location.Beat.Cmp(violations[j].Location.Beat); c != 0 {
			return c < 0
		}
		return violations[i].RuleID < violations[j].RuleID
	})

	passed := true
	for _, violation := range violations {
		if violation.Severity == SeverityError {
			passed = false
			break
		}
	}

	return Result{Passed: passed, Violations: violations}
}

// DefaultRules returns the authoritative rule set, in check order.
func DefaultRules() []Rule {
	return []Rule{
		voiceRangeRule{},
		scaleMembershipRule{},
		chordScaleConsistencyRule{},
		chordRootMembershipRule{},
		parallelPerfectsRule{},
		barlineCrossingRule{},
		rhythmicLegalityRule{},
		velocityRangeRule{},
	}
}
