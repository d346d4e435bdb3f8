package slugger

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	assert.Equal(t, "kalahari-cafe", Make("Kalahari Cafe"))
	assert.Equal(t, "auto-and-repairs", Make("Auto & Repairs"))
	assert.Equal(t, "maun-branch", Make("  Maun   Branch  "))
}

func TestUnique_PrefixAndSuffix(t *testing.T) {
	s := Unique("Kalahari Cafe")

	assert.True(t, strings.HasPrefix(s, "kalahari-cafe-"))

	suffix := strings.TrimPrefix(s, "kalahari-cafe-")
	assert.Len(t, suffix, suffixBytes*2)
}

func TestUnique_DiffersAcrossCalls(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		s := Unique("Kalahari Cafe")
		assert.False(t, seen[s], "slug %s repeated", s)
		seen[s] = true
	}
}
