// Package ops collects the tiling strategies of every operator family.
package ops

import (
	"slices"
	"sync"

	"github.com/born-ml/tiling/internal/ops/broadcast"
	"github.com/born-ml/tiling/internal/ops/elementwise"
	"github.com/born-ml/tiling/internal/ops/pad"
	"github.com/born-ml/tiling/internal/ops/roll"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ErrUnknownTag is returned when a tag names no variant of its family.
var ErrUnknownTag = errors.New("unknown kernel tag")

// Decoder maps a family's kernel tag back to its variant.
type Decoder func(tag uint64) (tiling.Variant, bool)

type entry struct {
	strategy tiling.Strategy
	decode   Decoder
}

// Registry maps operator families to their strategies. It implements
// tiling.Resolver and is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[tiling.Family]entry
}

// NewRegistry returns a registry holding every built-in family.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[tiling.Family]entry)}
	r.Register(roll.New(), decoder(roll.FromTag))
	r.Register(pad.New(), decoder(pad.FromTag))
	r.Register(broadcast.New(), decoder(broadcast.FromTag))
	r.Register(elementwise.New(), decoder(elementwise.FromTag))
	return r
}

func decoder[V tiling.Variant](from func(uint64) (V, bool)) Decoder {
	return func(tag uint64) (tiling.Variant, bool) {
		v, ok := from(tag)
		return v, ok
	}
}

// Register adds or replaces the strategy of s.Family().
func (r *Registry) Register(s tiling.Strategy, d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[s.Family()] = entry{strategy: s, decode: d}
}

// Strategy implements tiling.Resolver.
func (r *Registry) Strategy(f tiling.Family) (tiling.Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[f]
	return e.strategy, ok
}

// Families returns the registered families in ascending order.
func (r *Registry) Families() []tiling.Family {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fs := lo.Keys(r.entries)
	slices.Sort(fs)
	return fs
}

// Variant decodes tag for family f.
func (r *Registry) Variant(f tiling.Family, tag uint64) (tiling.Variant, error) {
	r.mu.RLock()
	e, ok := r.entries[f]
	r.mu.RUnlock()
	if !ok || e.decode == nil {
		return nil, errors.Wrapf(ErrUnknownTag, "family %s is not registered", f)
	}
	v, ok := e.decode(tag)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTag, "%s tag %d", f, tag)
	}
	return v, nil
}

// KernelName returns "family/variant" for a tag.
func (r *Registry) KernelName(f tiling.Family, tag uint64) (string, error) {
	v, err := r.Variant(f, tag)
	if err != nil {
		return "", err
	}
	return f.String() + "/" + v.String(), nil
}

var defaultRegistry = sync.OnceValue(NewRegistry)

// Default returns the shared built-in registry.
func Default() *Registry {
	return defaultRegistry()
}

// KernelName decodes a tag against the built-in families.
func KernelName(f tiling.Family, tag uint64) (string, error) {
	return Default().KernelName(f, tag)
}
