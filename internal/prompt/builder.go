package prompt

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/aideas-api/internal/llm"
	"github.com/Conceptual-Machines/aideas-api/internal/theory"
)

// Builder assembles the prompts sent to generation providers
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{
		loader: NewPromptLoader(),
	}
}

// BuildSystemPrompt assembles the full system prompt from the embedded
// instruction sections.
func (b *Builder) BuildSystemPrompt() (string, error) {
	sections := []func() (string, error){
		b.loader.GetSystemPrompt,
		b.loader.GetTheoryConstraints,
		b.loader.GetStyleGuidelines,
		b.loader.GetDifficultyGuidelines,
		b.loader.GetOutputFormatInstructions,
	}

	parts := make([]string, 0, len(sections))
	for _, load := range sections {
		section, err := load()
		if err != nil {
			return "", fmt.Errorf("failed to load prompt section: %w", err)
		}
		parts = append(parts, section)
	}

	return strings.Join(parts, "\n\n"), nil
}

// BuildUserMessage renders the concrete generation request as the user turn.
func (b *Builder) BuildUserMessage(spec llm.FragmentSpec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compose a %d-measure fragment in %s, %d/%d time, at %.0f BPM.",
		spec.Measures, spec.Key.String(), spec.Time.Beats, spec.Time.Unit, spec.Tempo)
	if spec.Style != "" {
		fmt.Fprintf(&sb, " Style: %s.", spec.Style)
	}
	if spec.Difficulty != "" {
		fmt.Fprintf(&sb, " Difficulty: %s.", spec.Difficulty)
	}
	return sb.String()
}

// BuildRepairMessage renders the retry turn for a fragment that failed
// theory checks, listing the violations the model must fix.
func (b *Builder) BuildRepairMessage(violations []theory.Violation) (string, error) {
	instructions, err := b.loader.GetRepairInstructions()
	if err != nil {
		return "", fmt.Errorf("failed to load repair instructions: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nVIOLATIONS:\n")
	for _, v := range violations {
		fmt.Fprintf(&sb, "- [%s] measure %d, beat %s: %s\n",
			v.RuleID, v.Location.Measure, v.Location.Beat.String(), v.Message)
	}
	return sb.String(), nil
}

// BuildInputArray assembles the provider input turns: the rendered request,
// plus the previous raw output and a repair turn on retries.
func (b *Builder) BuildInputArray(spec llm.FragmentSpec, previousRaw string, violations []theory.Violation) ([]map[string]any, error) {
	input := []map[string]any{
		{"role": "user", "content": b.BuildUserMessage(spec)},
	}

	if len(violations) > 0 && previousRaw != "" {
		repair, err := b.BuildRepairMessage(violations)
		if err != nil {
			return nil, err
		}
		input = append(input,
			map[string]any{"role": "developer", "content": "Previous attempt:\n" + previousRaw},
			map[string]any{"role": "developer", "content": repair},
		)
	}

	return input, nil
}
