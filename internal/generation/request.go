package generation

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Conceptual-Machines/aideas-api/internal/llm"
	"github.com/Conceptual-Machines/aideas-api/internal/models"
	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

// Tempo and length guardrails for inbound requests.
const (
	TempoMin = 20.0
	TempoMax = 300.0

	LengthMin = 1
	LengthMax = 32

	defaultTempo  = 120.0
	defaultLength = 4
)

// Request is one inbound content-generation request. Two requests with the
// same canonical form are the same piece of content.
type Request struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	Style      string         `json:"style,omitempty"`
	Difficulty string         `json:"difficulty,omitempty"`
	Tempo      float64        `json:"tempo,omitempty"`
	Length     int            `json:"length,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Normalize fills defaults and validates ranges. The returned request is the
// canonical form used for fingerprinting.
func (r Request) Normalize() (Request, error) {
	if r.Type == "" {
		r.Type = models.ContentTypeFragment
	}
	if r.Type != models.ContentTypeFragment {
		return r, fmt.Errorf("unsupported content type %q", r.Type)
	}

	if _, err := music.ParseKey(r.Key); err != nil {
		return r, err
	}

	if r.Tempo == 0 {
		r.Tempo = defaultTempo
	}
	if r.Tempo < TempoMin || r.Tempo > TempoMax {
		return r, fmt.Errorf("tempo %.1f out of range [%.0f, %.0f]", r.Tempo, TempoMin, TempoMax)
	}

	if r.Length == 0 {
		r.Length = defaultLength
	}
	if r.Length < LengthMin || r.Length > LengthMax {
		return r, fmt.Errorf("length %d out of range [%d, %d]", r.Length, LengthMin, LengthMax)
	}

	return r, nil
}

// Fingerprint hashes the canonical serialization of the request. Map keys
// are serialized in sorted order, so semantically equal requests always
// produce the same fingerprint.
func (r Request) Fingerprint() string {
	canonical := map[string]any{
		"type":       r.Type,
		"key":        r.Key,
		"style":      r.Style,
		"difficulty": r.Difficulty,
		"tempo":      r.Tempo,
		"length":     r.Length,
		"parameters": r.Parameters,
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		// Parameters came from JSON in the first place; a marshal failure
		// means a programming error upstream.
		panic(fmt.Sprintf("unmarshalable generation request: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FragmentSpec converts the request into the provider-facing spec. The seed
// comes from the "seed" parameter when given, otherwise it is derived from
// the fingerprint so the synthetic provider stays deterministic per request.
func (r Request) FragmentSpec() (llm.FragmentSpec, error) {
	key, err := music.ParseKey(r.Key)
	if err != nil {
		return llm.FragmentSpec{}, err
	}

	timeSig := music.TimeSignature{Beats: 4, Unit: 4}
	if raw, ok := r.Parameters["timeSignature"].(string); ok {
		var beats, unit int
		if _, err := fmt.Sscanf(raw, "%d/%d", &beats, &unit); err != nil || beats <= 0 || unit <= 0 {
			return llm.FragmentSpec{}, fmt.Errorf("invalid time signature %q", raw)
		}
		timeSig = music.TimeSignature{Beats: beats, Unit: unit}
	}

	seed := fingerprintSeed(r.Fingerprint())
	if v, ok := r.Parameters["seed"].(float64); ok {
		seed = int64(v)
	}

	return llm.FragmentSpec{
		Key:        key,
		Time:       timeSig,
		Tempo:      r.Tempo,
		Measures:   r.Length,
		Style:      r.Style,
		Difficulty: r.Difficulty,
		Seed:       seed,
	}, nil
}

func fingerprintSeed(fingerprint string) int64 {
	raw, err := hex.DecodeString(fingerprint[:16])
	if err != nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw)) //nolint:gosec
}
