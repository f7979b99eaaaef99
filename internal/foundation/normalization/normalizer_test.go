package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testEnum string

const (
	testAlpha testEnum = "alpha"
	testBeta  testEnum = "beta"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]testEnum{
		"":      testAlpha,
		"alpha": testAlpha,
		"Beta":  testBeta,
		"b":     testBeta,
	})

	tests := []struct {
		input string
		want  testEnum
		ok    bool
	}{
		{"alpha", testAlpha, true},
		{"  ALPHA ", testAlpha, true},
		{"beta", testBeta, true},
		{"B", testBeta, true},
		{"", testAlpha, true},
		{"gamma", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := n.Normalize(tt.input)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}

	require.Equal(t, []string{"alpha", "b", "beta"}, n.ValidKeys())
	require.Equal(t, "alpha, b, beta", n.Valid())
}
