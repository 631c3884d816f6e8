package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/aideas-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the main system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetOutputFormatInstructions loads output format instructions
func (l *Loader) GetOutputFormatInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.OutputFormatInstructionsTxt)), nil
}

// GetTheoryConstraints loads the theory constraint rules
func (l *Loader) GetTheoryConstraints() (string, error) {
	return strings.TrimSpace(string(embedded.TheoryConstraintsTxt)), nil
}

// GetStyleGuidelines loads per-style writing guidelines
func (l *Loader) GetStyleGuidelines() (string, error) {
	return strings.TrimSpace(string(embedded.StyleGuidelinesTxt)), nil
}

// GetDifficultyGuidelines loads per-difficulty writing guidelines
func (l *Loader) GetDifficultyGuidelines() (string, error) {
	return strings.TrimSpace(string(embedded.DifficultyGuidelinesTxt)), nil
}

// GetRepairInstructions loads the retry prompt for fragments that failed
// theory checks
func (l *Loader) GetRepairInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.RepairInstructionsTxt)), nil
}
