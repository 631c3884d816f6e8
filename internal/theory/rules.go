package theory

import (
	"fmt"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

// Default voice range: A0..C8, the span of a piano keyboard.
const (
	defaultRangeLowMIDI  = 21
	defaultRangeHighMIDI = 108
)

func noteLocation(frag *music.Fragment, n music.Note) Location {
	return Location{Measure: frag.MeasureAt(n.Start), Beat: n.Start}
}

func chordLocation(frag *music.Fragment, c music.Chord) Location {
	return Location{Measure: frag.MeasureAt(c.Start), Beat: c.Start}
}

// voiceRangeRule flags pitches outside the playable voice range.
type voiceRangeRule struct{}

func (voiceRangeRule) ID() string { return "voice-range" }

func (r voiceRangeRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	for _, n := range frag.Notes {
		if n.Rest {
			continue
		}
		midi := n.Pitch.MIDI()
		if midi < defaultRangeLowMIDI || midi > defaultRangeHighMIDI {
			out = append(out, Violation{
				RuleID:   r.ID(),
				Location: noteLocation(frag, n),
				Severity: SeverityError,
				Message:  fmt.Sprintf("pitch %s (MIDI %d) outside voice range", n.Pitch, midi),
			})
		}
	}
	return out
}

// scaleMembershipRule checks melody pitch classes against the declared key.
// An isolated out-of-scale note approached and left by step reads as a
// chromatic passing tone and only warns; anything else is an error.
type scaleMembershipRule struct{}

func (scaleMembershipRule) ID() string { return "scale-membership" }

func (r scaleMembershipRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	notes := frag.Notes
	for i, n := range notes {
		if n.Rest || frag.Key.InScale(n.Pitch.Class) {
			continue
		}

		severity := SeverityError
		message := fmt.Sprintf("pitch class %s outside %s scale", music.PitchClassName(n.Pitch.Class), frag.Key)
		if isChromaticPassingTone(frag, notes, i) {
			severity = SeverityWarning
			message += " (chromatic passing tone)"
		}

		out = append(out, Violation{
			RuleID:   r.ID(),
			Location: noteLocation(frag, n),
			Severity: severity,
			Message:  message,
		})
	}
	return out
}

// isChromaticPassingTone reports whether the out-of-scale note at index i is
// a single chromatic step between two in-scale neighbors.
func isChromaticPassingTone(frag *music.Fragment, notes []music.Note, i int) bool {
	prev, next := i-1, i+1
	if prev < 0 || next >= len(notes) {
		return false
	}
	if notes[prev].Rest || notes[next].Rest {
		return false
	}
	if !frag.Key.InScale(notes[prev].Pitch.Class) || !frag.Key.InScale(notes[next].Pitch.Class) {
		return false
	}
	in := notes[i].Pitch.MIDI() - notes[prev].Pitch.MIDI()
	outStep := notes[next].Pitch.MIDI() - notes[i].Pitch.MIDI()
	return absInt(in) <= 2 && absInt(outStep) <= 2 && in != 0 && outStep != 0
}

// chordScaleConsistencyRule checks chord spellings against the declared key.
type chordScaleConsistencyRule struct{}

func (chordScaleConsistencyRule) ID() string { return "chord-scale-consistency" }

func (r chordScaleConsistencyRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	for _, c := range frag.Chords {
		if len(c.Classes) == 0 {
			out = append(out, Violation{
				RuleID:   r.ID(),
				Location: chordLocation(frag, c),
				Severity: SeverityError,
				Message:  fmt.Sprintf("chord %s has no pitch classes", c.Symbol()),
			})
			continue
		}
		for _, class := range c.Classes {
			if !frag.Key.InScale(class) {
				out = append(out, Violation{
					RuleID:   r.ID(),
					Location: chordLocation(frag, c),
					Severity: SeverityWarning,
					Message: fmt.Sprintf("chord %s contains %s, outside %s scale",
						c.Symbol(), music.PitchClassName(class), frag.Key),
				})
			}
		}
	}
	return out
}

// chordRootMembershipRule enforces the chord invariant: the root must be a
// member of the pitch-class set.
type chordRootMembershipRule struct{}

func (chordRootMembershipRule) ID() string { return "chord-root-membership" }

func (r chordRootMembershipRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	for _, c := range frag.Chords {
		if !c.ContainsRoot() {
			out = append(out, Violation{
				RuleID:   r.ID(),
				Location: chordLocation(frag, c),
				Severity: SeverityError,
				Message:  fmt.Sprintf("root %s not in chord pitch-class set", music.PitchClassName(c.Root)),
			})
		}
	}
	return out
}

// parallelPerfectsRule flags consecutive melody notes that keep a perfect
// fifth or octave against the sounding chord root while both voices move in
// the same direction.
type parallelPerfectsRule struct{}

func (parallelPerfectsRule) ID() string { return "parallel-perfects" }

func (r parallelPerfectsRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	var prevNote *music.Note
	var prevRoot int
	havePrev := false

	for i := range frag.Notes {
		n := frag.Notes[i]
		if n.Rest {
			havePrev = false
			continue
		}
		chord, ok := soundingChord(frag, n.Start)
		if !ok {
			havePrev = false
			continue
		}

		if havePrev && chord.Root != prevRoot {
			prevInterval := intervalClass(prevNote.Pitch.Class - prevRoot)
			curInterval := intervalClass(n.Pitch.Class - chord.Root)
			melodyDir := sign(n.Pitch.MIDI() - prevNote.Pitch.MIDI())
			rootDir := rootDirection(prevRoot, chord.Root)
			sameDirection := melodyDir != 0 && rootDir == melodyDir

			if prevInterval == curInterval && sameDirection && (curInterval == 7 || curInterval == 0) {
				name := "octaves"
				if curInterval == 7 {
					name = "fifths"
				}
				out = append(out, Violation{
					RuleID:   r.ID(),
					Location: noteLocation(frag, n),
					Severity: SeverityError,
					Message:  fmt.Sprintf("parallel %s between melody and chord roots", name),
				})
			}
		}

		prevNote = &frag.Notes[i]
		prevRoot = chord.Root
		havePrev = true
	}
	return out
}

// soundingChord returns the chord sounding at the given beat, if any.
func soundingChord(frag *music.Fragment, at music.Beat) (music.Chord, bool) {
	for i := len(frag.Chords) - 1; i >= 0; i-- {
		c := frag.Chords[i]
		if c.Start.Cmp(at) <= 0 && c.End().Cmp(at) > 0 {
			return c, true
		}
	}
	return music.Chord{}, false
}

// barlineCrossingRule enforces rhythmic legality at measure boundaries: a
// note may not sound across a barline unless it is tied.
type barlineCrossingRule struct{}

func (barlineCrossingRule) ID() string { return "barline-crossing" }

func (r barlineCrossingRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	measureLen := frag.Time.MeasureLength()
	if !measureLen.IsPositive() {
		return nil
	}
	for _, n := range frag.Notes {
		if n.Tied || !n.Duration.IsPositive() || n.Start.IsNegative() {
			continue
		}
		measure := frag.MeasureAt(n.Start)
		boundary := measureLen.Mul(int64(measure)+1, 1)
		if n.End().Cmp(boundary) > 0 {
			out = append(out, Violation{
				RuleID:   r.ID(),
				Location: noteLocation(frag, n),
				Severity: SeverityError,
				Message:  fmt.Sprintf("note crosses barline at beat %s without a tie", boundary),
			})
		}
	}
	return out
}

// rhythmicLegalityRule checks basic timing sanity for notes and chords.
type rhythmicLegalityRule struct{}

func (rhythmicLegalityRule) ID() string { return "rhythmic-legality" }

func (r rhythmicLegalityRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	total := frag.TotalBeats()

	check := func(loc Location, start, duration music.Beat, what string) {
		if start.IsNegative() {
			out = append(out, Violation{
				RuleID: r.ID(), Location: loc, Severity: SeverityError,
				Message: fmt.Sprintf("%s starts before beat 0", what),
			})
		}
		if !duration.IsPositive() {
			out = append(out, Violation{
				RuleID: r.ID(), Location: loc, Severity: SeverityError,
				Message: fmt.Sprintf("%s has non-positive duration", what),
			})
		}
		if total.IsPositive() && start.Add(duration).Cmp(total) > 0 {
			out = append(out, Violation{
				RuleID: r.ID(), Location: loc, Severity: SeverityError,
				Message: fmt.Sprintf("%s extends past fragment end (%s beats)", what, total),
			})
		}
	}

	for _, n := range frag.Notes {
		check(noteLocation(frag, n), n.Start, n.Duration, "note")
	}
	for _, c := range frag.Chords {
		check(chordLocation(frag, c), c.Start, c.Duration, "chord")
	}
	return out
}

// velocityRangeRule checks MIDI velocity bounds on sounding notes.
type velocityRangeRule struct{}

func (velocityRangeRule) ID() string { return "velocity-range" }

func (r velocityRangeRule) Check(frag *music.Fragment) []Violation {
	var out []Violation
	for _, n := range frag.Notes {
		if n.Rest {
			continue
		}
		if n.Velocity < music.VelocityMin || n.Velocity > music.VelocityMax {
			out = append(out, Violation{
				RuleID:   r.ID(),
				Location: noteLocation(frag, n),
				Severity: SeverityError,
				Message:  fmt.Sprintf("velocity %d outside %d-%d", n.Velocity, music.VelocityMin, music.VelocityMax),
			})
		}
	}
	return out
}

// rootDirection infers melodic direction between two pitch classes by taking
// the shorter way around the circle: up to a tritone reads as ascending.
func rootDirection(from, to int) int {
	iv := intervalClass(to - from)
	switch {
	case iv == 0:
		return 0
	case iv <= 6:
		return 1
	default:
		return -1
	}
}

func intervalClass(n int) int {
	return ((n % 12) + 12) % 12
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
