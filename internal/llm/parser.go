package llm

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

// Wire shapes matching GetFragmentOutputSchema.
type rawNote struct {
	Pitch         string     `json:"pitch"`
	StartBeats    music.Beat `json:"startBeats"`
	DurationBeats music.Beat `json:"durationBeats"`
	Velocity      int        `json:"velocity"`
	Tied          bool       `json:"tied"`
	Rest          bool       `json:"rest"`
}

type rawChord struct {
	Root          string     `json:"root"`
	Quality       string     `json:"quality"`
	StartBeats    music.Beat `json:"startBeats"`
	DurationBeats music.Beat `json:"durationBeats"`
}

type rawFragment struct {
	Notes  []rawNote  `json:"notes"`
	Chords []rawChord `json:"chords"`
}

// ParseFragment parses a provider's raw text output into a fragment under
// the request's key, time signature and tempo. Any failure here is a
// MalformedOutputError: the output cannot be interpreted as music at all,
// which is a different condition from a parsed fragment failing theory
// checks.
func ParseFragment(text string, spec FragmentSpec) (*music.Fragment, error) {
	text = strings.TrimSpace(text)
	// Some models wrap JSON output in markdown fences despite instructions.
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return nil, &MalformedOutputError{Reason: "empty output"}
	}

	var raw rawFragment
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return nil, &MalformedOutputError{Reason: err.Error(), Raw: truncate(text, maxRawPreview)}
	}

	if len(raw.Notes) == 0 && len(raw.Chords) == 0 {
		return nil, &MalformedOutputError{Reason: "no notes or chords in output", Raw: truncate(text, maxRawPreview)}
	}

	frag := &music.Fragment{
		Key:            spec.Key,
		Time:           spec.Time,
		Tempo:          spec.Tempo,
		LengthMeasures: spec.Measures,
	}

	for _, n := range raw.Notes {
		if n.Rest {
			frag.Notes = append(frag.Notes, music.Note{
				Rest:     true,
				Start:    n.StartBeats,
				Duration: n.DurationBeats,
			})
			continue
		}
		pitch, err := music.ParsePitch(n.Pitch)
		if err != nil {
			return nil, &MalformedOutputError{Reason: err.Error(), Raw: truncate(text, maxRawPreview)}
		}
		frag.Notes = append(frag.Notes, music.Note{
			Pitch:    pitch,
			Start:    n.StartBeats,
			Duration: n.DurationBeats,
			Velocity: n.Velocity,
			Tied:     n.Tied,
		})
	}

	for _, c := range raw.Chords {
		root, err := music.ParsePitchClass(c.Root)
		if err != nil {
			return nil, &MalformedOutputError{Reason: err.Error(), Raw: truncate(text, maxRawPreview)}
		}
		quality, err := music.ParseChordQuality(c.Quality)
		if err != nil {
			return nil, &MalformedOutputError{Reason: err.Error(), Raw: truncate(text, maxRawPreview)}
		}
		chord, err := music.NewChord(root, quality, c.StartBeats, c.DurationBeats)
		if err != nil {
			return nil, &MalformedOutputError{Reason: err.Error(), Raw: truncate(text, maxRawPreview)}
		}
		frag.Chords = append(frag.Chords, chord)
	}

	sort.SliceStable(frag.Notes, func(i, j int) bool {
		return frag.Notes[i].Start.Cmp(frag.Notes[j].Start) < 0
	})
	sort.SliceStable(frag.Chords, func(i, j int) bool {
		return frag.Chords[i].Start.Cmp(frag.Chords[j].Start) < 0
	})

	return frag, nil
}

const maxRawPreview = 200

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
