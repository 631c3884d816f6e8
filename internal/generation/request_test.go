package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/aideas-api/internal/models"
	"github.com/Conceptual-Machines/aideas-api/internal/music"
)

func TestNormalizeDefaults(t *testing.T) {
	norm, err := Request{Key: "C"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeFragment, norm.Type)
	assert.Equal(t, 120.0, norm.Tempo)
	assert.Equal(t, 4, norm.Length)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := Request{Key: "X"}.Normalize()
	require.Error(t, err)

	_, err = Request{Key: "C", Type: "symphony"}.Normalize()
	require.Error(t, err)

	_, err = Request{Key: "C", Tempo: 10}.Normalize()
	require.Error(t, err)

	_, err = Request{Key: "C", Length: -1}.Normalize()
	require.Error(t, err)
}

func TestFingerprintStable(t *testing.T) {
	a := Request{Key: "C", Style: "pop", Tempo: 120, Length: 4, Parameters: map[string]any{"b": 1.0, "a": 2.0}}
	b := Request{Key: "C", Style: "pop", Tempo: 120, Length: 4, Parameters: map[string]any{"a": 2.0, "b": 1.0}}

	// Parameter insertion order does not change identity.
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}

func TestFingerprintDistinguishesRequests(t *testing.T) {
	base := Request{Key: "C", Style: "pop", Tempo: 120, Length: 4}

	changedKey := base
	changedKey.Key = "G"
	assert.NotEqual(t, base.Fingerprint(), changedKey.Fingerprint())

	changedTempo := base
	changedTempo.Tempo = 90
	assert.NotEqual(t, base.Fingerprint(), changedTempo.Fingerprint())

	withParams := base
	withParams.Parameters = map[string]any{"seed": 7.0}
	assert.NotEqual(t, base.Fingerprint(), withParams.Fingerprint())
}

func TestFragmentSpec(t *testing.T) {
	req, err := Request{
		Key:        "Am",
		Style:      "swing",
		Difficulty: "ADVANCED",
		Tempo:      140,
		Length:     8,
		Parameters: map[string]any{"timeSignature": "3/4", "seed": 99.0},
	}.Normalize()
	require.NoError(t, err)

	spec, err := req.FragmentSpec()
	require.NoError(t, err)
	assert.Equal(t, music.ModeMinor, spec.Key.Mode)
	assert.Equal(t, music.TimeSignature{Beats: 3, Unit: 4}, spec.Time)
	assert.Equal(t, 140.0, spec.Tempo)
	assert.Equal(t, 8, spec.Measures)
	assert.Equal(t, int64(99), spec.Seed)
}

func TestFragmentSpecSeedDerivedFromFingerprint(t *testing.T) {
	a, err := Request{Key: "C"}.Normalize()
	require.NoError(t, err)
	b, err := Request{Key: "G"}.Normalize()
	require.NoError(t, err)

	specA, err := a.FragmentSpec()
	require.NoError(t, err)
	specA2, err := a.FragmentSpec()
	require.NoError(t, err)
	specB, err := b.FragmentSpec()
	require.NoError(t, err)

	assert.Equal(t, specA.Seed, specA2.Seed)
	assert.NotEqual(t, specA.Seed, specB.Seed)
}

func TestFragmentSpecRejectsBadTimeSignature(t *testing.T) {
	req := Request{Key: "C", Parameters: map[string]any{"timeSignature": "common"}}
	norm, err := req.Normalize()
	require.NoError(t, err)
	_, err = norm.FragmentSpec()
	require.Error(t, err)
}
