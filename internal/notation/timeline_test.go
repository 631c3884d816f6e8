package notation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

func TestToTimelineOrdering(t *testing.T) {
	frag := sampleFragment(t)
	tl := ToTimeline(frag, 120)

	require.NotEmpty(t, tl.Events)

	// Events are time-ordered.
	for i := 1; i < len(tl.Events); i++ {
		assert.LessOrEqual(t, tl.Events[i-1].Time, tl.Events[i].Time)
	}

	// At offset zero the chord attacks precede the melody attack and the
	// chord tones come up in ascending pitch.
	var zeroOns []Event
	for _, e := range tl.Events {
		if e.Time == 0 && e.Type == NoteOn {
			zeroOns = append(zeroOns, e)
		}
	}
	require.Len(t, zeroOns, 4) // G major triad + melody G4
	assert.Equal(t, uint8(ChordChannel), zeroOns[0].Channel)
	assert.Equal(t, uint8(ChordChannel), zeroOns[1].Channel)
	assert.Equal(t, uint8(ChordChannel), zeroOns[2].Channel)
	assert.Equal(t, uint8(MelodyChannel), zeroOns[3].Channel)
	assert.Less(t, zeroOns[0].Key, zeroOns[1].Key)
	assert.Less(t, zeroOns[1].Key, zeroOns[2].Key)
}

func TestToTimelineReleasesBeforeAttacksAtSameOffset(t *testing.T) {
	frag := sampleFragment(t)
	tl := ToTimeline(frag, 120)

	// At beat 4 (2s at 120 BPM) the first chord releases and the second
	// attacks.
	boundary := 2 * time.Second
	var atBoundary []Event
	for _, e := range tl.Events {
		if e.Time == boundary {
			atBoundary = append(atBoundary, e)
		}
	}
	require.NotEmpty(t, atBoundary)

	seenOn := false
	for _, e := range atBoundary {
		if e.Type == NoteOn {
			seenOn = true
		}
		if e.Type == NoteOff {
			assert.False(t, seenOn, "a release was scheduled after an attack at the same offset")
		}
	}
}

func TestToTimelineTempoScaling(t *testing.T) {
	frag := sampleFragment(t)

	fast := ToTimeline(frag, 120)
	slow := ToTimeline(frag, 60)

	require.Len(t, slow.Events, len(fast.Events))
	assert.Equal(t, 2*fast.Length, slow.Length)

	for i := range fast.Events {
		// Same event order, doubled offsets.
		assert.Equal(t, fast.Events[i].Type, slow.Events[i].Type)
		assert.Equal(t, fast.Events[i].Channel, slow.Events[i].Channel)
		assert.Equal(t, fast.Events[i].Key, slow.Events[i].Key)
		assert.Equal(t, 2*fast.Events[i].Time, slow.Events[i].Time)
	}
}

func TestToTimelineTempoScalingWithTriplets(t *testing.T) {
	frag := sampleFragment(t)

	// Triplet subdivisions produce beat offsets with no exact nanosecond
	// representation; doubled offsets must still match exactly.
	g4, _ := music.ParsePitch("G4")
	a4, _ := music.ParsePitch("A4")
	b4, _ := music.ParsePitch("B4")
	frag.Notes = []music.Note{
		{Pitch: g4, Start: music.NewBeat(0, 1), Duration: music.NewBeat(1, 3), Velocity: 96},
		{Pitch: a4, Start: music.NewBeat(1, 3), Duration: music.NewBeat(1, 3), Velocity: 90},
		{Pitch: b4, Start: music.NewBeat(2, 3), Duration: music.NewBeat(1, 3), Velocity: 90},
	}

	fast := ToTimeline(frag, 120)
	slow := ToTimeline(frag, 60)

	require.Len(t, slow.Events, len(fast.Events))
	for i := range fast.Events {
		assert.Equal(t, fast.Events[i].Key, slow.Events[i].Key)
		assert.Equal(t, 2*fast.Events[i].Time, slow.Events[i].Time,
			"event %d: halving the tempo must double the offset exactly", i)
	}
}

func TestToTimelineSkipsRests(t *testing.T) {
	frag := sampleFragment(t)
	tl := ToTimeline(frag, 120)

	for _, e := range tl.Events {
		if e.Type == NoteOn {
			assert.NotZero(t, e.Velocity)
		}
	}
}

func TestToTimelineFallsBackToFragmentTempo(t *testing.T) {
	frag := sampleFragment(t)
	tl := ToTimeline(frag, 0)
	assert.Equal(t, frag.Tempo, tl.Tempo)
}
