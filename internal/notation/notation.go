package notation

import (
	"encoding/json"
	"fmt"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

// notationDoc is the JSON interchange form of a fragment. Beat values keep
// their exact fraction encoding so a decode of an encode reproduces the
// fragment without drift.
type notationDoc struct {
	Version        int             `json:"version"`
	Key            string          `json:"key"`
	Time           string          `json:"time"`
	Tempo          float64         `json:"tempo"`
	LengthMeasures int             `json:"lengthMeasures"`
	Notes          []notationNote  `json:"notes"`
	Chords         []notationChord `json:"chords"`
}

type notationNote struct {
	Rest     bool       `json:"rest,omitempty"`
	Pitch    string     `json:"pitch,omitempty"`
	Start    music.Beat `json:"start"`
	Duration music.Beat `json:"duration"`
	Velocity int        `json:"velocity,omitempty"`
	Tied     bool       `json:"tied,omitempty"`
}

type notationChord struct {
	Root     string     `json:"root"`
	Quality  string     `json:"quality"`
	Start    music.Beat `json:"start"`
	Duration music.Beat `json:"duration"`
}

const notationVersion = 1

// ToNotation serializes a fragment into its notation interchange blob. The
// encoding is deterministic: the same fragment always yields the same bytes.
func ToNotation(frag *music.Fragment) ([]byte, error) {
	if frag == nil {
		return nil, fmt.Errorf("nil fragment")
	}

	doc := notationDoc{
		Version:        notationVersion,
		Key:            frag.Key.String(),
		Time:           fmt.Sprintf("%d/%d", frag.Time.Beats, frag.Time.Unit),
		Tempo:          frag.Tempo,
		LengthMeasures: frag.LengthMeasures,
		Notes:          make([]notationNote, 0, len(frag.Notes)),
		Chords:         make([]notationChord, 0, len(frag.Chords)),
	}

	for _, n := range frag.Notes {
		nn := notationNote{
			Rest:     n.Rest,
			Start:    n.Start,
			Duration: n.Duration,
			Tied:     n.Tied,
		}
		if !n.Rest {
			nn.Pitch = n.Pitch.String()
			nn.Velocity = n.Velocity
		}
		doc.Notes = append(doc.Notes, nn)
	}

	for _, c := range frag.Chords {
		doc.Chords = append(doc.Chords, notationChord{
			Root:     music.PitchClassName(c.Root),
			Quality:  string(c.Quality),
			Start:    c.Start,
			Duration: c.Duration,
		})
	}

	return json.Marshal(doc)
}

// FromNotation reconstructs a fragment from its notation blob. Pitches,
// offsets and durations survive the round trip exactly.
func FromNotation(blob []byte) (*music.Fragment, error) {
	var doc notationDoc
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("invalid notation blob: %w", err)
	}
	if doc.Version != notationVersion {
		return nil, fmt.Errorf("unsupported notation version %d", doc.Version)
	}

	key, err := music.ParseKey(doc.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid notation key: %w", err)
	}

	var beats, unit int
	if _, err := fmt.Sscanf(doc.Time, "%d/%d", &beats, &unit); err != nil || beats <= 0 || unit <= 0 {
		return nil, fmt.Errorf("invalid time signature %q", doc.Time)
	}

	frag := &music.Fragment{
		Key:            key,
		Time:           music.TimeSignature{Beats: beats, Unit: unit},
		Tempo:          doc.Tempo,
		LengthMeasures: doc.LengthMeasures,
	}

	for _, nn := range doc.Notes {
		note := music.Note{
			Rest:     nn.Rest,
			Start:    nn.Start,
			Duration: nn.Duration,
			Tied:     nn.Tied,
		}
		if !nn.Rest {
			pitch, err := music.ParsePitch(nn.Pitch)
			if err != nil {
				return nil, fmt.Errorf("invalid notation pitch: %w", err)
			}
			note.Pitch = pitch
			note.Velocity = nn.Velocity
		}
		frag.Notes = append(frag.Notes, note)
	}

	for _, nc := range doc.Chords {
		root, err := music.ParsePitchClass(nc.Root)
		if err != nil {
			return nil, fmt.Errorf("invalid notation chord root: %w", err)
		}
		quality, err := music.ParseChordQuality(nc.Quality)
		if err != nil {
			return nil, fmt.Errorf("invalid notation chord quality: %w", err)
		}
		chord, err := music.NewChord(root, quality, nc.Start, nc.Duration)
		if err != nil {
			return nil, err
		}
		frag.Chords = append(frag.Chords, chord)
	}

	return frag, nil
}
