package music

import (
	"fmt"
	"sort"
	"strings"
)

// ChordQuality tags a chord's interval structure.
type ChordQuality string

// Supported chord qualities.
const (
	QualityMajor          ChordQuality = "major"
	QualityMinor          ChordQuality = "minor"
	QualityDiminished     ChordQuality = "diminished"
	QualityAugmented      ChordQuality = "augmented"
	QualityMajor7         ChordQuality = "major7"
	QualityMinor7         ChordQuality = "minor7"
	QualityDominant7      ChordQuality = "dominant7"
	QualityHalfDiminished ChordQuality = "half-diminished7"
	QualityDiminished7    ChordQuality = "diminished7"
	QualitySus2           ChordQuality = "sus2"
	QualitySus4           ChordQuality = "sus4"
)

// qualityIntervals maps each quality to semitone intervals from the root.
var qualityIntervals = map[ChordQuality][]int{
	QualityMajor:          {0, 4, 7},
	QualityMinor:          {0, 3, 7},
	QualityDiminished:     {0, 3, 6},
	QualityAugmented:      {0, 4, 8},
	QualityMajor7:         {0, 4, 7, 11},
	QualityMinor7:         {0, 3, 7, 10},
	QualityDominant7:      {0, 4, 7, 10},
	QualityHalfDiminished: {0, 3, 6, 10},
	QualityDiminished7:    {0, 3, 6, 9},
	QualitySus2:           {0, 2, 7},
	QualitySus4:           {0, 5, 7},
}

// qualityAliases accepts the shorthand spellings providers tend to emit.
var qualityAliases = map[string]ChordQuality{
	"maj": QualityMajor, "": QualityMajor, "m": QualityMinor, "min": QualityMinor,
	"dim": QualityDiminished, "aug": QualityAugmented,
	"maj7": QualityMajor7, "m7": QualityMinor7, "min7": QualityMinor7,
	"7": QualityDominant7, "dom7": QualityDominant7,
	"m7b5": QualityHalfDiminished, "min7b5": QualityHalfDiminished,
	"dim7": QualityDiminished7,
}

// ParseChordQuality resolves a quality tag, accepting common aliases.
func ParseChordQuality(s string) (ChordQuality, error) {
	q := ChordQuality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := qualityIntervals[q]; ok {
		return q, nil
	}
	if alias, ok := qualityAliases[string(q)]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("unknown chord quality: %q", s)
}

// Chord is an ordered set of pitch classes with a root, a quality tag and a
// beat position. Classes is derived from the quality table and always
// contains Root.
type Chord struct {
	Root     int          `json:"root"`
	Quality  ChordQuality `json:"quality"`
	Classes  []int        `json:"classes"`
	Start    Beat         `json:"start"`
	Duration Beat         `json:"duration"`
}

// NewChord builds a Chord with pitch classes derived from the quality table.
func NewChord(root int, quality ChordQuality, start, duration Beat) (Chord, error) {
	intervals, ok := qualityIntervals[quality]
	if !ok {
		return Chord{}, fmt.Errorf("unknown chord quality: %q", quality)
	}
	root = ((root % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave
	classes := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		classes = append(classes, (root+iv)%semitonesPerOctave)
	}
	return Chord{
		Root:     root,
		Quality:  quality,
		Classes:  classes,
		Start:    start,
		Duration: duration,
	}, nil
}

// ContainsRoot reports whether the root pitch class is a member of the set.
func (c Chord) ContainsRoot() bool {
	for _, class := range c.Classes {
		if class == c.Root {
			return true
		}
	}
	return false
}

// MIDINotes voices the chord upward from the root in the given octave,
// skipping anything that would land outside the MIDI range.
func (c Chord) MIDINotes(octave int) []int {
	rootMIDI := Pitch{Class: c.Root, Octave: octave}.MIDI()
	notes := make([]int, 0, len(c.Classes))
	for _, class := range c.Classes {
		iv := class - c.Root
		if iv < 0 {
			iv += semitonesPerOctave
		}
		n := rootMIDI + iv
		if n < MIDINoteMin || n > MIDINoteMax {
			continue
		}
		notes = append(notes, n)
	}
	sort.Ints(notes)
	return notes
}

// End returns the beat at which the chord stops sounding.
func (c Chord) End() Beat {
	return c.Start.Add(c.Duration)
}

// Symbol renders a display symbol like "Dm7" or "Cmaj7".
func (c Chord) Symbol() string {
	name := PitchClassName(c.Root)
	switch c.Quality {
	case QualityMajor:
		return name
	case QualityMinor:
		return name + "m"
	case QualityMajor7:
		return name + "maj7"
	case QualityMinor7:
		return name + "m7"
	case QualityDominant7:
		return name + "7"
	case QualityHalfDiminished:
		return name + "m7b5"
	default:
		return name + string(c.Quality)
	}
}
