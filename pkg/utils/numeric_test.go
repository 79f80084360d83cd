package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   float64
	}{
		{2.875, 2, 2.88},
		{-2.875, 2, -2.88},
		{0.123456, 4, 0.1235},
		{1234567.5, 0, 1234568},
		{12.04999, 1, 12.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in, tt.places), "Round(%v, %d)", tt.in, tt.places)
	}

	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestDivHelpers(t *testing.T) {
	assert.Equal(t, 0.0, Div(5, 0))
	assert.Equal(t, 2.5, Div(5, 2))
	assert.Equal(t, 1.0, DivOr(5, 0, 1))
	assert.Equal(t, 0.5, DivOr(1, 2, 1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.02, Clamp(0.01, 0.02, 0.2))
	assert.Equal(t, 0.2, Clamp(0.45, 0.02, 0.2))
	assert.Equal(t, 0.07, Clamp(0.07, 0.02, 0.2))
}

func TestPtrDeref(t *testing.T) {
	p := Ptr(3.5)
	assert.Equal(t, 3.5, Deref(p))

	var nilPtr *float64
	assert.Equal(t, 0.0, Deref(nilPtr))
}
