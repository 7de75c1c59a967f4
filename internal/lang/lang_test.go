package lang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tc := []struct {
		in   string
		want string
		ok   bool
	}{
		{"en", "en", true},
		{"en-GB", "en", true},
		{"EN-us", "en", true},
		{"deu", "de", true},
		{"ja", "ja", true},
		{"", "", false},
		{"not a language", "", false},
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			require := require.New(t)
			got, ok := Normalize(tt.in)
			require.Equal(tt.ok, ok)
			require.Equal(tt.want, got)
		})
	}
}

func TestOrDefault(t *testing.T) {
	require := require.New(t)

	require.Equal("fr", OrDefault("fr-CA", "en"))
	require.Equal("en", OrDefault("", "en"))
}
