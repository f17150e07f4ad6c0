package climate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Reading is a single optional measurement. The zero value is Missing.
type Reading struct {
	value float64
	valid bool
}

// Missing marks an absent reading. It never compares equal to a real zero.
var Missing = Reading{}

// Value wraps a measured value. NaN and infinities are stored as Missing.
func Value(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing
	}
	return Reading{value: v, valid: true}
}

// Get returns the value and whether it is present.
func (r Reading) Get() (float64, bool) {
	return r.value, r.valid
}

// Valid reports whether the reading holds a value.
func (r Reading) Valid() bool {
	return r.valid
}

func (r Reading) String() string {
	if !r.valid {
		return "missing"
	}
	return strconv.FormatFloat(r.value, 'g', -1, 64)
}

// MarshalJSON encodes a missing reading as null.
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(r.value, 'g', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null.
func (r *Reading) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = Missing
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode reading: %w", err)
	}
	*r = Value(v)
	return nil
}
