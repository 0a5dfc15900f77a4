package dataset

import "strconv"

// Value is a numeric observation that may be missing. The zero Value is
// missing, so no float is reserved as a sentinel.
type Value struct {
	v  float64
	ok bool
}

// Observed wraps an observed number.
func Observed(v float64) Value {
	return Value{v: v, ok: true}
}

// Missing returns the missing Value.
func Missing() Value {
	return Value{}
}

// Values wraps a slice of observed numbers.
func Values(vs ...float64) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Observed(v)
	}
	return out
}

// Float returns the number and whether it was observed.
func (v Value) Float() (float64, bool) {
	return v.v, v.ok
}

// IsMissing reports whether no observation is present.
func (v Value) IsMissing() bool {
	return !v.ok
}

// Or returns the number, or def when missing.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

func (v Value) String() string {
	if !v.ok {
		return "?"
	}
	return strconv.FormatFloat(v.v, 'g', -1, 64)
}
