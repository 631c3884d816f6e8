package audio

import (
	"sort"
	"sync"
	"time"

	"github.com/Conceptual-Machines/aideas-api/internal/notation"
)

// State is the player lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

type noteKey struct {
	channel uint8
	key     uint8
}

// Player schedules one timeline against a sink. Each Start spawns a single
// dispatch goroutine that sleeps until the next event's absolute offset and
// checks for cancellation before every send, so no event escapes after
// Pause or Stop returns.
type Player struct {
	timeline *notation.Timeline
	sink     Sink

	mu      sync.Mutex
	state   State
	offset  time.Duration // playback position while not running
	base    time.Time     // wall-clock zero of the active run
	loop    bool
	stopRun chan struct{}
	active  map[noteKey]struct{}
}

// NewPlayer creates a player for one timeline.
func NewPlayer(timeline *notation.Timeline, sink Sink) *Player {
	return &Player{
		timeline: timeline,
		sink:     sink,
		active:   make(map[noteKey]struct{}),
	}
}

// State returns the current lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Position returns the current playback offset.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StatePlaying {
		return time.Since(p.base)
	}
	return p.offset
}

// SetLoop re-arms playback from offset zero whenever the timeline ends.
func (p *Player) SetLoop(loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = loop
}

// Start begins or resumes playback from the current position.
func (p *Player) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StatePlaying {
		return
	}
	p.startLocked(p.offset)
}

func (p *Player) startLocked(from time.Duration) {
	stop := make(chan struct{})
	p.stopRun = stop
	p.base = time.Now().Add(-from)
	p.state = StatePlaying
	go p.run(stop, p.firstEventAt(from))
}

// Pause freezes playback, keeping the position for a later Start. Sounding
// notes are released.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return
	}
	p.offset = time.Since(p.base)
	p.haltLocked(StatePaused)
}

// Stop cancels playback and discards all remaining events. The position
// resets to zero.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = 0
	if p.state != StatePlaying {
		p.state = StateStopped
		return
	}
	p.haltLocked(StateStopped)
}

// Seek moves the position. Only events at or after the target offset play
// afterwards; if playback is running it continues from the new position.
func (p *Player) Seek(offset time.Duration) {
	if offset < 0 {
		offset = 0
	}
	if offset > p.timeline.Length {
		offset = p.timeline.Length
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	wasPlaying := p.state == StatePlaying
	if wasPlaying {
		p.haltLocked(StatePaused)
	}
	p.offset = offset
	if wasPlaying {
		p.startLocked(offset)
	}
}

func (p *Player) haltLocked(next State) {
	close(p.stopRun)
	p.stopRun = nil
	p.state = next
	p.silenceLocked()
}

// silenceLocked releases every sounding note so nothing hangs after a halt.
func (p *Player) silenceLocked() {
	for nk := range p.active {
		p.sink.NoteOff(nk.channel, nk.key) //nolint:errcheck
	}
	p.active = make(map[noteKey]struct{})
}

func (p *Player) firstEventAt(offset time.Duration) int {
	events := p.timeline.Events
	return sort.Search(len(events), func(i int) bool {
		return events[i].Time >= offset
	})
}

func (p *Player) run(stop chan struct{}, idx int) {
	events := p.timeline.Events

	for {
		if idx >= len(events) {
			if !p.rearm(stop) {
				return
			}
			idx = 0
			continue
		}

		e := events[idx]

		p.mu.Lock()
		wait := time.Until(p.base.Add(e.Time))
		p.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		// Cancellation check before every dispatch.
		select {
		case <-stop:
			return
		default:
		}

		p.dispatch(stop, e)
		idx++
	}
}

// rearm waits out the timeline tail, then either restarts from zero (loop
// mode) or winds the player down. Returns false when the run is over.
func (p *Player) rearm(stop chan struct{}) bool {
	p.mu.Lock()
	wait := time.Until(p.base.Add(p.timeline.Length))
	p.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	select {
	case <-stop:
		return false
	default:
	}

	if p.loop {
		p.base = time.Now()
		return true
	}

	p.state = StateIdle
	p.offset = 0
	p.stopRun = nil
	return false
}

func (p *Player) dispatch(stop chan struct{}, e notation.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A halt may have won the lock between the cancellation check and here.
	select {
	case <-stop:
		return
	default:
	}

	nk := noteKey{channel: e.Channel, key: e.Key}
	switch e.Type {
	case notation.NoteOn:
		p.sink.NoteOn(e.Channel, e.Key, e.Velocity) //nolint:errcheck
		p.active[nk] = struct{}{}
	case notation.NoteOff:
		p.sink.NoteOff(e.Channel, e.Key) //nolint:errcheck
		delete(p.active, nk)
	}
}
