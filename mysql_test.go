//go:build !sqlite && !postgres

package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeOptions(t *testing.T) {
	tc := map[string]struct {
		dsn, options, want string
	}{
		"no options":     {"u:p@/db", "", "u:p@/db"},
		"no query":       {"u:p@/db", "charset=utf8mb4&parseTime=True", "u:p@/db?charset=utf8mb4&parseTime=True"},
		"existing query": {"u:p@/db?timeout=5s", "parseTime=True", "u:p@/db?timeout=5s&parseTime=True"},
		"already set":    {"u:p@/db?loc=UTC", "parseTime=True&loc=Local", "u:p@/db?loc=UTC&parseTime=True"},
	}
	for name, tc := range tc {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, mergeOptions(tc.dsn, tc.options))
		})
	}
}
