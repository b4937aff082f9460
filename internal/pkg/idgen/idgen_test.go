package idgen_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"chatventure.world/internal/pkg/idgen"
)

func TestPrefixedGenerator(t *testing.T) {
	gen := idgen.NewPrefixed("item")

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.True(t, strings.HasPrefix(id1, "item_"))
	assert.NotEqual(t, id1, id2)
	assert.Len(t, strings.Split(id1, "_"), 3)
}

func TestUUIDGenerator(t *testing.T) {
	gen := &idgen.UUIDGenerator{}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Generate()
		assert.False(t, seen[id], "duplicate uuid %s", id)
		seen[id] = true
	}
}

func TestSequentialGenerator(t *testing.T) {
	gen := idgen.NewSequential("chatventure")

	assert.Equal(t, "chatventure_1", gen.Generate())
	assert.Equal(t, "chatventure_2", gen.Generate())

	bare := idgen.NewSequential("")
	assert.Equal(t, "1", bare.Generate())
}
