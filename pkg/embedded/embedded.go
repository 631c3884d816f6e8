package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/core_data/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/core_data/output_format_instructions.txt
var OutputFormatInstructionsTxt []byte

//go:embed data/core_data/theory_constraints.txt
var TheoryConstraintsTxt []byte

//go:embed data/core_data/style_guidelines.txt
var StyleGuidelinesTxt []byte

//go:embed data/core_data/difficulty_guidelines.txt
var DifficultyGuidelinesTxt []byte

//go:embed data/core_data/repair_instructions.txt
var RepairInstructionsTxt []byte
