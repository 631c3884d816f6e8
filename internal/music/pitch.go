package music

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MIDI note number constraints
	MIDINoteMin = 0
	MIDINoteMax = 127

	semitonesPerOctave = 12
)

// pitchClassNames uses sharp spellings; flats are accepted on input only.
var pitchClassNames = [semitonesPerOctave]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// noteLetterOffsets maps note letters to semitone offsets from C.
var noteLetterOffsets = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// Pitch is a concrete pitch: pitch class 0-11 (C=0) plus an octave
// (C4 = middle C = MIDI 60).
type Pitch struct {
	Class  int `json:"class"`
	Octave int `json:"octave"`
}

// MIDI returns the MIDI note number for the pitch.
func (p Pitch) MIDI() int {
	return (p.Octave+1)*semitonesPerOctave + p.Class
}

// PitchFromMIDI converts a MIDI note number to a Pitch.
func PitchFromMIDI(n int) Pitch {
	return Pitch{
		Class:  ((n % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave,
		Octave: n/semitonesPerOctave - 1,
	}
}

// String renders the pitch as a note name, e.g. "F#3".
func (p Pitch) String() string {
	if p.Class < 0 || p.Class >= semitonesPerOctave {
		return fmt.Sprintf("?%d", p.Class)
	}
	return fmt.Sprintf("%s%d", pitchClassNames[p.Class], p.Octave)
}

// ParsePitch converts a note name like "E1", "C4", "F#3", "Bb2" to a Pitch.
// Format: <letter><accidental?><octave> with octave -1 to 9.
func ParsePitch(name string) (Pitch, error) {
	if len(name) < 2 {
		return Pitch{}, fmt.Errorf("note name too short: %s", name)
	}

	letter := strings.ToUpper(string(name[0]))
	offset, ok := noteLetterOffsets[letter]
	if !ok {
		return Pitch{}, fmt.Errorf("invalid note letter: %s", letter)
	}

	rest := name[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		offset++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		offset--
		rest = rest[1:]
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return Pitch{}, fmt.Errorf("invalid octave in note name %q: %w", name, err)
	}
	if octave < -1 || octave > 9 {
		return Pitch{}, fmt.Errorf("octave out of range in note name %q", name)
	}

	class := ((offset % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave
	// A "Cb" borrows from the octave below, "B#" from the octave above.
	if offset < 0 {
		octave--
	} else if offset >= semitonesPerOctave {
		octave++
	}

	p := Pitch{Class: class, Octave: octave}
	if midi := p.MIDI(); midi < MIDINoteMin || midi > MIDINoteMax {
		return Pitch{}, fmt.Errorf("note %q outside MIDI range", name)
	}
	return p, nil
}

// ParsePitchClass parses a bare pitch-class name ("C", "F#", "Bb") into 0-11.
func ParsePitchClass(name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("empty pitch class")
	}
	offset, ok := noteLetterOffsets[strings.ToUpper(string(name[0]))]
	if !ok {
		return 0, fmt.Errorf("invalid pitch class: %s", name)
	}
	switch name[1:] {
	case "":
	case "#":
		offset++
	case "b":
		offset--
	default:
		return 0, fmt.Errorf("invalid pitch class: %s", name)
	}
	return ((offset % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave, nil
}

// PitchClassName returns the sharp-spelled name for a pitch class.
func PitchClassName(class int) string {
	class = ((class % semitonesPerOctave) + semitonesPerOctave) % semitonesPerOctave
	return pitchClassNames[class]
}
