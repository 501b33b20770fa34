package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genc-murat/fragbench/pkg/utils/pattern"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		str     string
		want    bool
	}{
		{"*", "no_compact", true},
		{"slab_*", "slab_auto_compact", true},
		{"slab_*", "auto_compact", false},
		{"*_compact", "manual_compact", true},
		{"no_?hurn", "no_churn", true},
		{"[mn]*", "manual_compact", true},
		{"[mn]*", "auto_compact", false},
		{"smoke", "smoke", true},
		{"smoke", "smoke2", false},
		{"a.b", "a.b", true},
		{"a.b", "axb", false},
		{"\\*", "*", true},
		{"\\?", "?", true},
		{"[", "[", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.str, func(t *testing.T) {
			got := pattern.Match(tt.pattern, tt.str)
			if got != tt.want {
				t.Errorf("Match(%q, %q) = %v; want %v", tt.pattern, tt.str, got, tt.want)
			}
		})
	}
}

func TestIsPattern(t *testing.T) {
	assert.True(t, pattern.IsPattern("slab_*"))
	assert.True(t, pattern.IsPattern("no_?"))
	assert.True(t, pattern.IsPattern("[ab]"))
	assert.False(t, pattern.IsPattern("manual_compact"))
	assert.False(t, pattern.IsPattern("a\\*"))
}

func TestFilter(t *testing.T) {
	names := []string{"slab_no_compact", "no_compact", "slab_manual_compact", "smoke"}

	assert.Equal(t, []string{"slab_manual_compact", "slab_no_compact"}, pattern.Filter(names, "slab_*"))
	assert.Equal(t, []string{"no_compact", "slab_no_compact", "smoke"}, pattern.Filter(names, "*no_*", "smoke"))
	assert.Equal(t, []string{"no_compact", "slab_manual_compact", "slab_no_compact", "smoke"}, pattern.Filter(names))
	assert.Nil(t, pattern.Filter(names, "zzz"))
}
