package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatScore(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{
			name:     "zero value",
			input:    0.0,
			expected: "0.0000",
		},
		{
			name:     "perfect positive",
			input:    1.0,
			expected: "1.0000",
		},
		{
			name:     "perfect negative",
			input:    -1.0,
			expected: "-1.0000",
		},
		{
			name:     "short decimal keeps width",
			input:    0.3,
			expected: "0.3000",
		},
		{
			name:     "negative coefficient",
			input:    -0.3,
			expected: "-0.3000",
		},
		{
			name:     "already four places",
			input:    0.8765,
			expected: "0.8765",
		},
		{
			name:     "extra precision rounds",
			input:    0.87654321,
			expected: "0.8765",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatScore(tt.input))
		})
	}
}

func TestFormatScorePtr(t *testing.T) {
	assert.Equal(t, "NA", formatScorePtr(nil))

	v := 0.1235
	assert.Equal(t, "0.1235", formatScorePtr(&v))
}

func TestFormatPValue(t *testing.T) {
	assert.Equal(t, "NA", formatPValue(nil))

	zero := 0.0
	assert.Equal(t, "0.000000", formatPValue(&zero))

	p := 0.623215
	assert.Equal(t, "0.623215", formatPValue(&p))
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", formatInt(0))
	assert.Equal(t, "42", formatInt(42))
	assert.Equal(t, "-3", formatInt(-3))
}
