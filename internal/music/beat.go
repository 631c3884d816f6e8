package music

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Beat is an exact rational beat offset or duration. Keeping beats rational
// (rather than float64) lets the notation converter round-trip timing exactly,
// including triplet subdivisions like 1/3.
type Beat struct {
	Num int64
	Den int64
}

// NewBeat returns the normalized rational num/den. A zero or negative
// denominator is treated as 1.
func NewBeat(num, den int64) Beat {
	if den <= 0 {
		den = 1
	}
	b := Beat{Num: num, Den: den}
	return b.normalize()
}

// WholeBeats returns n as a Beat.
func WholeBeats(n int64) Beat {
	return Beat{Num: n, Den: 1}
}

func (b Beat) normalize() Beat {
	if b.Den == 0 {
		b.Den = 1
	}
	if b.Den < 0 {
		b.Num = -b.Num
		b.Den = -b.Den
	}
	g := gcd(abs64(b.Num), b.Den)
	if g > 1 {
		b.Num /= g
		b.Den /= g
	}
	return b
}

// Add returns b + o.
func (b Beat) Add(o Beat) Beat {
	return Beat{Num: b.Num*o.Den + o.Num*b.Den, Den: b.Den * o.Den}.normalize()
}

// Sub returns b - o.
func (b Beat) Sub(o Beat) Beat {
	return Beat{Num: b.Num*o.Den - o.Num*b.Den, Den: b.Den * o.Den}.normalize()
}

// Mul returns b scaled by num/den.
func (b Beat) Mul(num, den int64) Beat {
	if den <= 0 {
		den = 1
	}
	return Beat{Num: b.Num * num, Den: b.Den * den}.normalize()
}

// Cmp returns -1, 0 or 1 comparing b to o.
func (b Beat) Cmp(o Beat) int {
	l := b.Num * o.Den
	r := o.Num * b.Den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// Float64 returns the beat value as a float, for tempo-realized timing.
func (b Beat) Float64() float64 {
	return float64(b.Num) / float64(b.Den)
}

// IsZero reports whether the beat value is exactly zero.
func (b Beat) IsZero() bool { return b.Num == 0 }

// IsNegative reports whether the beat value is below zero.
func (b Beat) IsNegative() bool { return b.Num < 0 }

// IsPositive reports whether the beat value is above zero.
func (b Beat) IsPositive() bool { return b.Num > 0 }

// String renders "3/2", or "2" when the denominator is 1.
func (b Beat) String() string {
	b = b.normalize()
	if b.Den == 1 {
		return strconv.FormatInt(b.Num, 10)
	}
	return fmt.Sprintf("%d/%d", b.Num, b.Den)
}

// ParseBeat parses "3/2" or "2" into a Beat.
func ParseBeat(s string) (Beat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Beat{}, fmt.Errorf("empty beat value")
	}
	if idx := strings.Index(s, "/"); idx >= 0 {
		num, err := strconv.ParseInt(s[:idx], 10, 64)
		if err != nil {
			return Beat{}, fmt.Errorf("invalid beat numerator %q: %w", s, err)
		}
		den, err := strconv.ParseInt(s[idx+1:], 10, 64)
		if err != nil {
			return Beat{}, fmt.Errorf("invalid beat denominator %q: %w", s, err)
		}
		if den <= 0 {
			return Beat{}, fmt.Errorf("beat denominator must be positive in %q", s)
		}
		return NewBeat(num, den), nil
	}
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Beat{}, fmt.Errorf("invalid beat value %q: %w", s, err)
	}
	return WholeBeats(num), nil
}

// MarshalJSON encodes the beat as its string form, e.g. "3/2".
func (b Beat) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// UnmarshalJSON accepts the string form ("3/2") or a plain JSON integer.
func (b *Beat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, perr := ParseBeat(s)
		if perr != nil {
			return perr
		}
		*b = parsed
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("beat must be a \"num/den\" string or integer: %s", string(data))
	}
	*b = WholeBeats(n)
	return nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
