package music

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeatNormalization(t *testing.T) {
	assert.Equal(t, Beat{Num: 1, Den: 2}, NewBeat(2, 4))
	assert.Equal(t, Beat{Num: 3, Den: 1}, NewBeat(3, 1))
	assert.Equal(t, Beat{Num: -1, Den: 2}, NewBeat(1, -2).normalize())
}

func TestBeatArithmetic(t *testing.T) {
	half := NewBeat(1, 2)
	third := NewBeat(1, 3)

	assert.Equal(t, NewBeat(5, 6), half.Add(third))
	assert.Equal(t, NewBeat(1, 6), half.Sub(third))
	assert.Equal(t, NewBeat(3, 2), half.Mul(3, 1))
	assert.Equal(t, 1, half.Cmp(third))
	assert.Equal(t, -1, third.Cmp(half))
	assert.Equal(t, 0, half.Cmp(NewBeat(2, 4)))
}

func TestBeatStringRoundTrip(t *testing.T) {
	cases := []string{"3/2", "1/3", "2", "0", "7/4"}
	for _, s := range cases {
		b, err := ParseBeat(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, b.String())
	}
}

func TestBeatParseErrors(t *testing.T) {
	for _, s := range []string{"", "x", "1/0", "1/-2", "1/x"} {
		_, err := ParseBeat(s)
		assert.Error(t, err, s)
	}
}

func TestBeatJSON(t *testing.T) {
	b := NewBeat(3, 2)
	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, `"3/2"`, string(data))

	var parsed Beat
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, b, parsed)

	// Plain integers are accepted too
	require.NoError(t, json.Unmarshal([]byte(`2`), &parsed))
	assert.Equal(t, WholeBeats(2), parsed)
}
