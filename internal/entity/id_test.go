package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	t.Run("carries the kind's prefix", func(t *testing.T) {
		for _, kind := range Kinds() {
			id := NewID(kind)
			assert.True(t, strings.HasPrefix(id, kind.Prefix()+"_"), "id %s should start with %s_", id, kind.Prefix())
		}
	})

	t.Run("round-trips through the resolver", func(t *testing.T) {
		for _, kind := range Kinds() {
			resolved, ok := KindFromID(NewID(kind))
			require.True(t, ok)
			assert.Equal(t, kind, resolved)
		}
	})

	t.Run("is pairwise distinct at volume", func(t *testing.T) {
		const n = 10000
		seen := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			id := NewID(KindTask)
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %s after %d generations", id, i)
			seen[id] = struct{}{}
		}
	})
}
