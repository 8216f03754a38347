package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sqlscout/sqlscout/pkg/finding"
)

// Scanner runs a complete scan from a seed URL.
type Scanner interface {
	Scan(ctx context.Context, seed string) (*finding.ScanResult, error)
}

// Kind names a registered scanner implementation.
type Kind string

// Factory builds a scanner from a config.
type Factory func(cfg Config) (Scanner, error)

var (
	registryMu sync.RWMutex
	registry   = map[Kind]Factory{}
)

// Register adds a scanner implementation under kind. Registering the same
// kind twice panics, it is always a programming error.
func Register(kind Kind, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[kind]; dup {
		panic(fmt.Sprintf("scanner: kind %q registered twice", kind))
	}
	registry[kind] = factory
}

// Lookup returns the factory registered under kind.
func Lookup(kind Kind) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[kind]
	return f, ok
}

// Kinds lists registered scanner names in sorted order.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
