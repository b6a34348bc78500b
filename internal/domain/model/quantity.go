package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Quantity is a rep count or a weight. It decodes leniently: JSON numbers,
// numeric strings and null are accepted; anything else becomes NaN so the
// scorer can treat the set as malformed instead of rejecting the workout.
type Quantity float64

// Float returns the value, mapping non-finite values to 0.
func (q Quantity) Float() float64 {
	f := float64(q)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Valid reports whether q holds a finite number.
func (q Quantity) Valid() bool {
	f := float64(q)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*q = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*q = Quantity(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			*q = 0
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			*q = Quantity(f)
			return nil
		}
	}
	*q = Quantity(math.NaN())
	return nil
}

// MarshalJSON implements json.Marshaler. Non-finite values encode as the
// strings "NaN", "+Inf" or "-Inf" so they decode back unchanged.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid() {
		return json.Marshal(strconv.FormatFloat(float64(q), 'g', -1, 64))
	}
	return json.Marshal(float64(q))
}
