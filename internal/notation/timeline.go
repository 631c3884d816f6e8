package notation

import (
	"math"
	"sort"
	"time"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

// EventType distinguishes timeline events.
type EventType int

const (
	NoteOff EventType = iota
	NoteOn
)

func (t EventType) String() string {
	if t == NoteOn {
		return "note_on"
	}
	return "note_off"
}

// Channel assignment: accompaniment chords on 0, the melody line on 1.
const (
	ChordChannel  = 0
	MelodyChannel = 1
)

// chordOctave places chord voicings below the melody register.
const chordOctave = 3

// Event is one scheduled MIDI event at an absolute offset from the start of
// playback.
type Event struct {
	Time     time.Duration `json:"time"`
	Type     EventType     `json:"type"`
	Channel  uint8         `json:"channel"`
	Key      uint8         `json:"key"`
	Velocity uint8         `json:"velocity"`
}

// Timeline is the playable form of a fragment at a fixed tempo. It is
// immutable; rendering the same fragment at another tempo produces a new
// timeline with identical event order and proportionally scaled times.
type Timeline struct {
	Tempo  float64       `json:"tempo"`
	Length time.Duration `json:"length"`
	Events []Event       `json:"events"`
}

// chordVelocity is the fixed accompaniment dynamic.
const chordVelocity = 80

// ToTimeline renders a fragment into absolute-time events. A non-positive
// tempo falls back to the fragment's own tempo.
func ToTimeline(frag *music.Fragment, tempo float64) *Timeline {
	if tempo <= 0 {
		tempo = frag.Tempo
	}

	var events []Event

	for _, c := range frag.Chords {
		for _, key := range c.MIDINotes(chordOctave) {
			events = append(events,
				Event{Time: beatTime(c.Start, tempo), Type: NoteOn, Channel: ChordChannel, Key: uint8(key), Velocity: chordVelocity},
				Event{Time: beatTime(c.End(), tempo), Type: NoteOff, Channel: ChordChannel, Key: uint8(key)},
			)
		}
	}

	for _, n := range frag.Notes {
		if n.Rest {
			continue
		}
		key := uint8(n.Pitch.MIDI())
		events = append(events,
			Event{Time: beatTime(n.Start, tempo), Type: NoteOn, Channel: MelodyChannel, Key: key, Velocity: uint8(n.Velocity)},
			Event{Time: beatTime(n.End(), tempo), Type: NoteOff, Channel: MelodyChannel, Key: key},
		)
	}

	// At equal offsets: releases before attacks, then chord channel before
	// melody, then ascending pitch.
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.Key < b.Key
	})

	return &Timeline{
		Tempo:  tempo,
		Length: beatTime(frag.TotalBeats(), tempo),
		Events: events,
	}
}

// ticksPerBeat is the timeline's time grid. Beat offsets quantize to this
// grid once, before any tempo enters the math, so rendering the same
// fragment at a doubled or halved tempo scales every event time exactly.
const ticksPerBeat = 1000

// beatTime converts a beat offset to wall time at the given tempo. The
// result is tick count times an integer per-tick duration; the grid error
// is at most half a millibeat, well inside the dispatch jitter budget.
func beatTime(b music.Beat, tempo float64) time.Duration {
	ticks := (b.Num*ticksPerBeat + b.Den/2) / b.Den
	nsPerTick := int64(math.Round(60e9 / (tempo * ticksPerBeat)))
	return time.Duration(ticks * nsPerTick)
}
