package theory

import (
	"testing"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cMajorFragment(t *testing.T, measures int) *music.Fragment {
	t.Helper()
	key, err := music.ParseKey("C")
	require.NoError(t, err)
	return &music.Fragment{
		Key:            key,
		Time:           music.TimeSignature{Beats: 4, Unit: 4},
		Tempo:          120,
		LengthMeasures: measures,
	}
}

func note(t *testing.T, name string, start, duration music.Beat) music.Note {
	t.Helper()
	p, err := music.ParsePitch(name)
	require.NoError(t, err)
	return music.Note{Pitch: p, Start: start, Duration: duration, Velocity: 96}
}

func chord(t *testing.T, root string, quality music.ChordQuality, start, duration music.Beat) music.Chord {
	t.Helper()
	class, err := music.ParsePitchClass(root)
	require.NoError(t, err)
	c, err := music.NewChord(class, quality, start, duration)
	require.NoError(t, err)
	return c
}

func ruleIDs(violations []Violation) []string {
	ids := make([]string, 0, len(violations))
	for _, v := range violations {
		ids = append(ids, v.RuleID)
	}
	return ids
}

func TestValidateCleanFragmentPasses(t *testing.T) {
	frag := cMajorFragment(t, 2)
	frag.Notes = []music.Note{
		note(t, "C4", music.WholeBeats(0), music.WholeBeats(1)),
		note(t, "D4", music.WholeBeats(1), music.WholeBeats(1)),
		note(t, "E4", music.WholeBeats(2), music.WholeBeats(2)),
		note(t, "G4", music.WholeBeats(4), music.WholeBeats(4)),
	}
	frag.Chords = []music.Chord{
		chord(t, "C", music.QualityMajor7, music.WholeBeats(0), music.WholeBeats(4)),
		chord(t, "A", music.QualityMinor7, music.WholeBeats(4), music.WholeBeats(4)),
	}

	result := NewValidator().Validate(frag)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Errors())
}

func TestValidatePassesWithWarnings(t *testing.T) {
	frag := cMajorFragment(t, 1)
	// F# between F and G: chromatic passing tone, warning only.
	frag.Notes = []music.Note{
		note(t, "F4", music.WholeBeats(0), music.WholeBeats(1)),
		note(t, "F#4", music.WholeBeats(1), music.WholeBeats(1)),
		note(t, "G4", music.WholeBeats(2), music.WholeBeats(2)),
	}

	result := NewValidator().Validate(frag)
	assert.True(t, result.Passed)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "scale-membership", result.Violations[0].RuleID)
	assert.Equal(t, SeverityWarning, result.Violations[0].Severity)
}

func TestScaleMembershipErrorForLeaps(t *testing.T) {
	frag := cMajorFragment(t, 1)
	// C# approached by leap is not a passing tone.
	frag.Notes = []music.Note{
		note(t, "C4", music.WholeBeats(0), music.WholeBeats(1)),
		note(t, "C#5", music.WholeBeats(1), music.WholeBeats(1)),
		note(t, "G4", music.WholeBeats(2), music.WholeBeats(2)),
	}

	result := NewValidator().Validate(frag)
	assert.False(t, result.Passed)
	require.Len(t, result.Errors(), 1)
	assert.Equal(t, "scale-membership", result.Errors()[0].RuleID)
}

func TestVoiceRangeRule(t *testing.T) {
	frag := cMajorFragment(t, 1)
	low := music.Note{Pitch: music.PitchFromMIDI(15), Start: music.WholeBeats(0), Duration: music.WholeBeats(1), Velocity: 80}
	frag.Notes = []music.Note{low}

	violations := voiceRangeRule{}.Check(frag)
	require.Len(t, violations, 1)
	assert.Equal(t, SeverityError, violations[0].Severity)
}

func TestBarlineCrossingRule(t *testing.T) {
	frag := cMajorFragment(t, 2)
	crossing := note(t, "E4", music.WholeBeats(3), music.WholeBeats(2)) // beats 3..5 over the bar
	frag.Notes = []music.Note{crossing}

	violations := barlineCrossingRule{}.Check(frag)
	require.Len(t, violations, 1)
	assert.Equal(t, 0, violations[0].Location.Measure)

	// A tie legitimizes the crossing.
	frag.Notes[0].Tied = true
	assert.Empty(t, barlineCrossingRule{}.Check(frag))

	// Ending exactly on the barline is fine.
	frag.Notes = []music.Note{note(t, "E4", music.WholeBeats(3), music.WholeBeats(1))}
	assert.Empty(t, barlineCrossingRule{}.Check(frag))
}

func TestChordRootMembershipRule(t *testing.T) {
	frag := cMajorFragment(t, 1)
	bad := chord(t, "C", music.QualityMajor, music.WholeBeats(0), music.WholeBeats(4))
	bad.Root = 1 // corrupt the invariant
	frag.Chords = []music.Chord{bad}

	violations := chordRootMembershipRule{}.Check(frag)
	require.Len(t, violations, 1)
	assert.Equal(t, SeverityError, violations[0].Severity)
}

func TestChordScaleConsistencyWarnsOutOfKey(t *testing.T) {
	frag := cMajorFragment(t, 1)
	frag.Chords = []music.Chord{
		chord(t, "E", music.QualityMajor, music.WholeBeats(0), music.WholeBeats(4)), // G# out of C major
	}

	violations := chordScaleConsistencyRule{}.Check(frag)
	require.Len(t, violations, 1)
	assert.Equal(t, SeverityWarning, violations[0].Severity)
}

func TestParallelPerfectsRule(t *testing.T) {
	frag := cMajorFragment(t, 2)
	// Melody a fifth above each chord root, roots moving C -> D, melody G -> A.
	frag.Chords = []music.Chord{
		chord(t, "C", music.QualityMajor, music.WholeBeats(0), music.WholeBeats(4)),
		chord(t, "D", music.QualityMinor, music.WholeBeats(4), music.WholeBeats(4)),
	}
	frag.Notes = []music.Note{
		note(t, "G4", music.WholeBeats(0), music.WholeBeats(4)),
		note(t, "A4", music.WholeBeats(4), music.WholeBeats(4)),
	}

	violations := parallelPerfectsRule{}.Check(frag)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "fifths")

	// Contrary motion clears it: melody falls to the third instead.
	frag.Notes[1] = note(t, "F4", music.WholeBeats(4), music.WholeBeats(4))
	assert.Empty(t, parallelPerfectsRule{}.Check(frag))
}

func TestRhythmicLegalityRule(t *testing.T) {
	frag := cMajorFragment(t, 1)
	frag.Notes = []music.Note{
		{Pitch: music.PitchFromMIDI(60), Start: music.WholeBeats(0), Duration: music.WholeBeats(0), Velocity: 80},
		{Pitch: music.PitchFromMIDI(62), Start: music.WholeBeats(-1), Duration: music.WholeBeats(1), Velocity: 80},
		{Pitch: music.PitchFromMIDI(64), Start: music.WholeBeats(3), Duration: music.WholeBeats(4), Velocity: 80},
	}

	violations := rhythmicLegalityRule{}.Check(frag)
	assert.Len(t, violations, 3)
}

func TestVelocityRangeRule(t *testing.T) {
	frag := cMajorFragment(t, 1)
	bad := note(t, "C4", music.WholeBeats(0), music.WholeBeats(1))
	bad.Velocity = 200
	frag.Notes = []music.Note{bad}

	violations := velocityRangeRule{}.Check(frag)
	require.Len(t, violations, 1)
}

func TestValidateOrdersViolationsByPosition(t *testing.T) {
	frag := cMajorFragment(t, 2)
	late := note(t, "C#5", music.WholeBeats(4), music.WholeBeats(1))
	early := note(t, "C4", music.WholeBeats(0), music.WholeBeats(1))
	early.Velocity = -3
	frag.Notes = []music.Note{late, early}

	result := NewValidator().Validate(frag)
	require.GreaterOrEqual(t, len(result.Violations), 2)
	assert.Equal(t, music.WholeBeats(0), result.Violations[0].Location.Beat)
	assert.Contains(t, ruleIDs(result.Violations), "velocity-range")
	assert.Contains(t, ruleIDs(result.Violations), "scale-membership")
}
