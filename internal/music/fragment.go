package music

import (
	"fmt"
	"strings"
)

// Velocity constraints
const (
	VelocityMin = 0
	VelocityMax = 127
)

// Note is a single pitched event (or a rest) at a rational beat position.
// A note whose duration would cross a barline must carry Tied.
type Note struct {
	Rest     bool  `json:"rest,omitempty"`
	Pitch    Pitch `json:"pitch"`
	Start    Beat  `json:"start"`
	Duration Beat  `json:"duration"`
	Velocity int   `json:"velocity"`
	Tied     bool  `json:"tied,omitempty"`
}

// End returns the beat at which the note stops sounding.
func (n Note) End() Beat {
	return n.Start.Add(n.Duration)
}

// Mode names for key signatures.
const (
	ModeMajor = "major"
	ModeMinor = "minor"
)

// scaleIntervals holds semitone offsets from the tonic for each mode.
// Minor is natural minor; the validator treats the raised 7th as a
// chromatic warning rather than an error.
var scaleIntervals = map[string][]int{
	ModeMajor: {0, 2, 4, 5, 7, 9, 11},
	ModeMinor: {0, 2, 3, 5, 7, 8, 10},
}

// KeySignature is a tonic pitch class plus a mode.
type KeySignature struct {
	Tonic int    `json:"tonic"`
	Mode  string `json:"mode"`
}

// ParseKey parses key names like "C", "F#", "Bb", "Am", "C#m".
func ParseKey(s string) (KeySignature, error) {
	s = strings.TrimSpace(s)
	mode := ModeMajor
	if strings.HasSuffix(s, "m") && len(s) > 1 {
		mode = ModeMinor
		s = s[:len(s)-1]
	}
	tonic, err := ParsePitchClass(s)
	if err != nil {
		return KeySignature{}, fmt.Errorf("invalid key: %w", err)
	}
	return KeySignature{Tonic: tonic, Mode: mode}, nil
}

// ScaleClasses returns the pitch classes of the key's scale.
func (k KeySignature) ScaleClasses() []int {
	intervals, ok := scaleIntervals[k.Mode]
	if !ok {
		intervals = scaleIntervals[ModeMajor]
	}
	classes := make([]int, 0, len(intervals))
	for _, iv := range intervals {
		classes = append(classes, (k.Tonic+iv)%semitonesPerOctave)
	}
	return classes
}

// InScale reports whether a pitch class belongs to the key's scale.
func (k KeySignature) InScale(class int) bool {
	class = ((class % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave
	for _, c := range k.ScaleClasses() {
		if c == class {
			return true
		}
	}
	return false
}

// String renders "C" / "Am" style key names.
func (k KeySignature) String() string {
	name := PitchClassName(k.Tonic)
	if k.Mode == ModeMinor {
		return name + "m"
	}
	return name
}

// TimeSignature is beats-per-measure over a beat unit, e.g. 4/4 or 6/8.
type TimeSignature struct {
	Beats int `json:"beats"`
	Unit  int `json:"unit"`
}

// MeasureLength returns the length of one measure in quarter-note beats.
func (ts TimeSignature) MeasureLength() Beat {
	beats := ts.Beats
	unit := ts.Unit
	if beats <= 0 {
		beats = 4
	}
	if unit <= 0 {
		unit = 4
	}
	return NewBeat(int64(beats)*4, int64(unit))
}

// Fragment is the canonical in-memory musical unit produced by generation:
// an ordered sequence of notes and chords under a key, time signature and
// tempo. The orchestrator owns a fragment exclusively until validation
// passes; afterwards it is immutably owned by the resulting content record.
type Fragment struct {
	Key            KeySignature  `json:"key"`
	Time           TimeSignature `json:"time"`
	Tempo          float64       `json:"tempo"`
	LengthMeasures int           `json:"lengthMeasures"`
	Notes          []Note        `json:"notes"`
	Chords         []Chord       `json:"chords"`
}

// TotalBeats returns the fragment length in quarter-note beats.
func (f *Fragment) TotalBeats() Beat {
	return f.Time.MeasureLength().Mul(int64(f.LengthMeasures), 1)
}

// MeasureAt returns the zero-based measure index containing the given beat.
func (f *Fragment) MeasureAt(b Beat) int {
	length := f.Time.MeasureLength()
	if !length.IsPositive() {
		return 0
	}
	// floor(b / length)
	q := b.Num * length.Den / (b.Den * length.Num)
	return int(q)
}
