package audio

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Sink receives scheduled note events. The player never cares whether the
// other end is a hardware port or a test recorder.
type Sink interface {
	NoteOn(channel, key, velocity uint8) error
	NoteOff(channel, key uint8) error
}

// MIDISink plays events on a system MIDI output port.
type MIDISink struct {
	port interface{ Close() error }
	send func(midi.Message) error
}

// NewMIDISink opens the named output port. An empty name picks the first
// available port.
func NewMIDISink(portName string) (*MIDISink, error) {
	ports := midi.GetOutPorts()
	if len(ports) == 0 {
		return nil, fmt.Errorf("no MIDI output ports available")
	}

	port := ports[0]
	if portName != "" {
		found, err := midi.FindOutPort(portName)
		if err != nil {
			return nil, fmt.Errorf("MIDI output port %q not found: %w", portName, err)
		}
		port = found
	}

	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("failed to open MIDI output port %q: %w", port.String(), err)
	}

	return &MIDISink{port: port, send: send}, nil
}

func (s *MIDISink) NoteOn(channel, key, velocity uint8) error {
	return s.send(midi.NoteOn(channel, key, velocity))
}

func (s *MIDISink) NoteOff(channel, key uint8) error {
	return s.send(midi.NoteOff(channel, key))
}

// Close releases the output port.
func (s *MIDISink) Close() error {
	return s.port.Close()
}

// NullSink discards all events. It keeps playback sessions usable on hosts
// with no MIDI output, where clients only poll position state.
type NullSink struct{}

func (NullSink) NoteOn(_, _, _ uint8) error { return nil }
func (NullSink) NoteOff(_, _ uint8) error   { return nil }
