package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds v to places decimals, half away from zero. NaN and Inf are
// returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// RoundPtr rounds v and returns a pointer to the result.
func RoundPtr(v float64, places int32) *float64 {
	return Ptr(Round(v, places))
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p or zero when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// Div returns a/b, or 0 when b is zero.
func Div(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// DivOr returns a/b, or def when b is zero.
func DivOr(a, b, def float64) float64 {
	if b == 0 {
		return def
	}
	return a / b
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
