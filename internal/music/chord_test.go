package music

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChordDerivesClasses(t *testing.T) {
	c, err := NewChord(2, QualityMinor7, WholeBeats(0), WholeBeats(4)) // Dm7
	require.NoError(t, err)

	assert.Equal(t, []int{2, 5, 9, 0}, c.Classes)
	assert.True(t, c.ContainsRoot())
}

func TestNewChordUnknownQuality(t *testing.T) {
	_, err := NewChord(0, ChordQuality("mystery"), WholeBeats(0), WholeBeats(4))
	assert.Error(t, err)
}

func TestChordMIDINotes(t *testing.T) {
	c, err := NewChord(0, QualityMajor7, WholeBeats(0), WholeBeats(4)) // Cmaj7
	require.NoError(t, err)

	assert.Equal(t, []int{60, 64, 67, 71}, c.MIDINotes(4))
}

func TestParseChordQualityAliases(t *testing.T) {
	cases := map[string]ChordQuality{
		"maj7":   QualityMajor7,
		"m7":     QualityMinor7,
		"7":      QualityDominant7,
		"m7b5":   QualityHalfDiminished,
		"minor":  QualityMinor,
		"major7": QualityMajor7,
	}
	for in, want := range cases {
		got, err := ParseChordQuality(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseChordQuality("power")
	assert.Error(t, err)
}

func TestChordSymbol(t *testing.T) {
	dm7, err := NewChord(2, QualityMinor7, WholeBeats(0), WholeBeats(4))
	require.NoError(t, err)
	assert.Equal(t, "Dm7", dm7.Symbol())

	g7, err := NewChord(7, QualityDominant7, WholeBeats(0), WholeBeats(4))
	require.NoError(t, err)
	assert.Equal(t, "G7", g7.Symbol())
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("C")
	require.NoError(t, err)
	assert.Equal(t, KeySignature{Tonic: 0, Mode: ModeMajor}, k)

	k, err = ParseKey("Am")
	require.NoError(t, err)
	assert.Equal(t, KeySignature{Tonic: 9, Mode: ModeMinor}, k)

	k, err = ParseKey("F#m")
	require.NoError(t, err)
	assert.Equal(t, KeySignature{Tonic: 6, Mode: ModeMinor}, k)

	_, err = ParseKey("H")
	assert.Error(t, err)
}

func TestKeyScaleMembership(t *testing.T) {
	c := KeySignature{Tonic: 0, Mode: ModeMajor}
	assert.Equal(t, []int{0, 2, 4, 5, 7, 9, 11}, c.ScaleClasses())
	assert.True(t, c.InScale(4))
	assert.False(t, c.InScale(6))

	am := KeySignature{Tonic: 9, Mode: ModeMinor}
	// Natural minor of A shares C major's pitch classes.
	assert.ElementsMatch(t, c.ScaleClasses(), am.ScaleClasses())
}

func TestTimeSignatureMeasureLength(t *testing.T) {
	assert.Equal(t, WholeBeats(4), TimeSignature{Beats: 4, Unit: 4}.MeasureLength())
	assert.Equal(t, WholeBeats(3), TimeSignature{Beats: 3, Unit: 4}.MeasureLength())
	assert.Equal(t, NewBeat(3, 1), TimeSignature{Beats: 6, Unit: 8}.MeasureLength())
}

func TestFragmentMeasureAt(t *testing.T) {
	f := &Fragment{Time: TimeSignature{Beats: 4, Unit: 4}, LengthMeasures: 4}
	assert.Equal(t, 0, f.MeasureAt(WholeBeats(0)))
	assert.Equal(t, 0, f.MeasureAt(NewBeat(7, 2)))
	assert.Equal(t, 1, f.MeasureAt(WholeBeats(4)))
	assert.Equal(t, 3, f.MeasureAt(NewBeat(25, 2)))
	assert.Equal(t, WholeBeats(16), f.TotalBeats())
}
