package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

const providerNameSynthetic = "synthetic"

// SyntheticProvider is the rule-based fallback generator: a deterministic
// scale-walk melody over a diatonic progression, seeded from the request so
// retries draw different material. It needs no network and no API key.
type SyntheticProvider struct{}

// NewSyntheticProvider creates the rule-based fallback provider.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

// Name returns the provider name
func (p *SyntheticProvider) Name() string {
	return providerNameSynthetic
}

// progressionStep is one chord of a diatonic progression, as a zero-based
// scale degree plus qualities for the seventh-chord and triad renditions.
type progressionStep struct {
	degree  int
	seventh music.ChordQuality
	triad   music.ChordQuality
}

// Degree sequences are chosen so consecutive roots always move by three or
// more semitones; with a stepwise melody that rules out parallel perfects
// against the roots.
var (
	majorProgression = []progressionStep{
		{0, music.QualityMajor7, music.QualityMajor},    // I
		{5, music.QualityMinor7, music.QualityMinor},    // vi
		{1, music.QualityMinor7, music.QualityMinor},    // ii
		{4, music.QualityDominant7, music.QualityMajor}, // V
	}
	minorProgression = []progressionStep{
		{0, music.QualityMinor7, music.QualityMinor}, // i
		{5, music.QualityMajor7, music.QualityMajor}, // VI
		{2, music.QualityMajor7, music.QualityMajor}, // III
		{4, music.QualityMinor7, music.QualityMinor}, // v
	}
)

// Styles that take seventh chords rather than plain triads.
var seventhChordStyles = map[string]bool{
	"swing": true, "jazz": true, "bossa": true, "blues": true,
}

// Generate produces a deterministic fragment for the request's spec and
// serializes it in the same wire shape LLM providers emit.
func (p *SyntheticProvider) Generate(ctx context.Context, request *ProviderRequest) (*RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransportError(providerNameSynthetic, err)
	}

	spec := request.Spec
	if spec.Measures <= 0 {
		spec.Measures = 4
	}
	if spec.Time.Beats <= 0 || spec.Time.Unit <= 0 {
		spec.Time = music.TimeSignature{Beats: 4, Unit: 4}
	}

	rng := rand.New(rand.NewSource(spec.Seed))
	raw := rawFragment{
		Chords: p.buildChords(spec),
		Notes:  p.buildMelody(spec, rng),
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", providerNameSynthetic, ErrProvider, err)
	}

	log.Printf("🎵 SYNTHETIC GENERATION: %d notes, %d chords (seed=%d)", len(raw.Notes), len(raw.Chords), spec.Seed)
	return &RawOutput{
		Text:     string(data),
		Provider: providerNameSynthetic,
	}, nil
}

// buildChords lays one progression chord per measure, cycling.
func (p *SyntheticProvider) buildChords(spec FragmentSpec) []rawChord {
	progression := majorProgression
	if spec.Key.Mode == music.ModeMinor {
		progression = minorProgression
	}
	useSevenths := seventhChordStyles[strings.ToLower(spec.Style)]
	scale := spec.Key.ScaleClasses()
	measureLen := spec.Time.MeasureLength()

	chords := make([]rawChord, 0, spec.Measures)
	for m := 0; m < spec.Measures; m++ {
		step := progression[m%len(progression)]
		quality := step.triad
		if useSevenths {
			quality = step.seventh
		}
		chords = append(chords, rawChord{
			Root:          music.PitchClassName(scale[step.degree]),
			Quality:       string(quality),
			StartBeats:    measureLen.Mul(int64(m), 1),
			DurationBeats: measureLen,
		})
	}
	return chords
}

// buildMelody walks the scale stepwise, one note per grid slot. Difficulty
// picks the grid: beginners get quarters, everyone else eighths, with
// advanced material occasionally merging a pair into a quarter.
func (p *SyntheticProvider) buildMelody(spec FragmentSpec, rng *rand.Rand) []rawNote {
	difficulty := strings.ToUpper(spec.Difficulty)
	measureLen := spec.Time.MeasureLength()

	slotDur := music.NewBeat(2, int64(spec.Time.Unit)) // eighths
	if difficulty == "BEGINNER" {
		slotDur = music.NewBeat(4, int64(spec.Time.Unit)) // quarters
	}

	// Degree 7 is the tonic one octave above the base register.
	const degreeLow, degreeHigh = 0, 13
	degree := 7
	direction := 1

	var notes []rawNote
	for m := 0; m < spec.Measures; m++ {
		measureStart := measureLen.Mul(int64(m), 1)
		offset := music.Beat{}
		for measureStart.Add(offset).Cmp(measureLen.Mul(int64(m)+1, 1)) < 0 {
			dur := slotDur
			if difficulty == "ADVANCED" && rng.Intn(4) == 0 {
				dur = slotDur.Mul(2, 1)
			}
			// Never let a merged slot cross the barline.
			remaining := measureLen.Mul(int64(m)+1, 1).Sub(measureStart.Add(offset))
			if dur.Cmp(remaining) > 0 {
				dur = remaining
			}

			velocity := 84 + rng.Intn(8)
			if offset.IsZero() {
				velocity = 100
			}

			notes = append(notes, rawNote{
				Pitch:         degreePitch(spec.Key, degree).String(),
				StartBeats:    measureStart.Add(offset),
				DurationBeats: dur,
				Velocity:      velocity,
			})

			// Stepwise walk with occasional direction change.
			if rng.Intn(10) < 3 {
				direction = -direction
			}
			degree += direction
			if degree <= degreeLow || degree >= degreeHigh {
				direction = -direction
				degree += 2 * direction
			}

			offset = offset.Add(dur)
		}
	}
	return notes
}

// degreePitch maps an absolute scale-degree index to a pitch, with degree 0
// anchored at the tonic in the octave of MIDI 48.
func degreePitch(key music.KeySignature, degree int) music.Pitch {
	scale := key.ScaleClasses()
	octave := degree / 7
	idx := degree % 7
	tonicOffset := scale[idx] - key.Tonic
	if tonicOffset < 0 {
		tonicOffset += 12
	}
	midi := 48 + key.Tonic + tonicOffset + 12*octave
	return music.PitchFromMIDI(midi)
}
