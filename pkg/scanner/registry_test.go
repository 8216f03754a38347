package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AdaptiveRegistered(t *testing.T) {
	factory, ok := Lookup(KindAdaptive)
	require.True(t, ok)

	s, err := factory(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Orchestrator{}, s)
}

func TestRegistry_UnknownKind(t *testing.T) {
	_, ok := Lookup("no-such-scanner")
	assert.False(t, ok)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	Register("registry-test-dup", func(Config) (Scanner, error) { return nil, nil })
	assert.Panics(t, func() {
		Register("registry-test-dup", func(Config) (Scanner, error) { return nil, nil })
	})
}

func TestRegistry_KindsSorted(t *testing.T) {
	kinds := Kinds()
	assert.Contains(t, kinds, KindAdaptive)
	for i := 1; i < len(kinds); i++ {
		assert.Less(t, kinds[i-1], kinds[i])
	}
}
