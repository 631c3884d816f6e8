package llm

// Schema constraints for fragment output.
const (
	velocityMin = 0
	velocityMax = 127
)

// FragmentSchemaName identifies the structured output schema.
const FragmentSchemaName = "music_fragment"

// GetFragmentOutputSchema returns the JSON schema for generated fragments.
// Beat offsets and durations are exact fractions serialized as strings
// ("1/2", "3", "2/3") so that timing survives the round trip losslessly.
// OpenAI structured output requires additionalProperties:false and every
// property listed in required.
func GetFragmentOutputSchema() map[string]any {
	beatValue := map[string]any{
		"type":        "string",
		"pattern":     `^-?\d+(/\d+)?$`,
		"description": "Exact beat fraction, e.g. \"1/2\", \"3\" or \"2/3\".",
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"notes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"pitch": map[string]any{
							"type":        "string",
							"description": "Note name with octave, e.g. \"C4\", \"F#3\", \"Bb2\". Empty string for a rest.",
						},
						"startBeats":    beatValue,
						"durationBeats": beatValue,
						"velocity":      map[string]any{"type": "integer", "minimum": velocityMin, "maximum": velocityMax},
						"tied":          map[string]any{"type": "boolean"},
						"rest": map[string]any{
							"type":        "boolean",
							"description": "True for a silence; pitch and velocity are ignored.",
						},
					},
					"required":             []string{"pitch", "startBeats", "durationBeats", "velocity", "tied", "rest"},
					"additionalProperties": false,
				},
			},
			"chords": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"root": map[string]any{
							"type":        "string",
							"description": "Root pitch class, e.g. \"C\", \"F#\", \"Bb\".",
						},
						"quality": map[string]any{
							"type": "string",
							"enum": []string{
								"major", "minor", "diminished", "augmented",
								"major7", "minor7", "dominant7", "half-diminished7",
								"diminished7", "sus2", "sus4",
							},
						},
						"startBeats":    beatValue,
						"durationBeats": beatValue,
					},
					"required":             []string{"root", "quality", "startBeats", "durationBeats"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"notes", "chords"},
		"additionalProperties": false,
	}
}
