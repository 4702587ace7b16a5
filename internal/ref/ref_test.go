package ref

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorRefsUniqueAndOrdered(t *testing.T) {
	t.Parallel()

	g := NewGenerator()
	refs := make([]string, 100)
	for i := range refs {
		refs[i] = g.New()
	}

	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		assert.Len(t, r, 26)
		assert.False(t, seen[r], "duplicate ref %s", r)
		seen[r] = true
	}

	assert.True(t, sort.StringsAreSorted(refs), "refs must issue in lexical order")
}
