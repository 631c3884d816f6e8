package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

func sampleFragment(t *testing.T) *music.Fragment {
	t.Helper()
	key, err := music.ParseKey("G")
	require.NoError(t, err)

	e4, _ := music.ParsePitch("E4")
	fs4, _ := music.ParsePitch("F#4")
	g4, _ := music.ParsePitch("G4")

	gRoot, _ := music.ParsePitchClass("G")
	dRoot, _ := music.ParsePitchClass("D")
	chord1, err := music.NewChord(gRoot, music.QualityMajor, music.NewBeat(0, 1), music.NewBeat(4, 1))
	require.NoError(t, err)
	chord2, err := music.NewChord(dRoot, music.QualityDominant7, music.NewBeat(4, 1), music.NewBeat(4, 1))
	require.NoError(t, err)

	return &music.Fragment{
		Key:            key,
		Time:           music.TimeSignature{Beats: 4, Unit: 4},
		Tempo:          120,
		LengthMeasures: 2,
		Notes: []music.Note{
			{Pitch: g4, Start: music.NewBeat(0, 1), Duration: music.NewBeat(3, 2), Velocity: 100},
			{Rest: true, Start: music.NewBeat(3, 2), Duration: music.NewBeat(1, 2)},
			{Pitch: fs4, Start: music.NewBeat(2, 1), Duration: music.NewBeat(2, 1), Velocity: 88},
			{Pitch: e4, Start: music.NewBeat(4, 1), Duration: music.NewBeat(4, 1), Velocity: 92, Tied: false},
		},
		Chords: []music.Chord{chord1, chord2},
	}
}

func TestNotationRoundTrip(t *testing.T) {
	frag := sampleFragment(t)

	blob, err := ToNotation(frag)
	require.NoError(t, err)

	back, err := FromNotation(blob)
	require.NoError(t, err)

	assert.Equal(t, frag.Key, back.Key)
	assert.Equal(t, frag.Time, back.Time)
	assert.Equal(t, frag.Tempo, back.Tempo)
	assert.Equal(t, frag.LengthMeasures, back.LengthMeasures)
	assert.Equal(t, frag.Notes, back.Notes)
	assert.Equal(t, frag.Chords, back.Chords)
}

func TestNotationDeterministic(t *testing.T) {
	frag := sampleFragment(t)

	first, err := ToNotation(frag)
	require.NoError(t, err)
	second, err := ToNotation(frag)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNotationPreservesExactFractions(t *testing.T) {
	frag := sampleFragment(t)
	// Triplet fraction that would drift through float encoding.
	frag.Notes[0].Duration = music.NewBeat(1, 3)

	blob, err := ToNotation(frag)
	require.NoError(t, err)
	back, err := FromNotation(blob)
	require.NoError(t, err)

	assert.Equal(t, music.NewBeat(1, 3), back.Notes[0].Duration)
}

func TestFromNotationRejectsGarbage(t *testing.T) {
	_, err := FromNotation([]byte("not json"))
	require.Error(t, err)

	_, err = FromNotation([]byte(`{"version": 99, "key": "C", "time": "4/4"}`))
	require.Error(t, err)

	_, err = FromNotation([]byte(`{"version": 1, "key": "H", "time": "4/4"}`))
	require.Error(t, err)

	_, err = FromNotation([]byte(`{"version": 1, "key": "C", "time": "waltz"}`))
	require.Error(t, err)
}
