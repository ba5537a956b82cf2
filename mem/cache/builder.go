package cache

import (
	"github.com/adkrueger/Cachelab/mem/cache/internal/tagging"
	"github.com/adkrueger/Cachelab/sim/hooking"
)

// Builder can build cache simulators.
type Builder struct {
	numSetIndexBits    uint
	wayAssociativity   uint
	numBlockOffsetBits uint
	replaceStrategy    string
	hooks              []hooking.Hook
}

// MakeBuilder creates a new builder. The default is a single direct-mapped
// line of one byte.
func MakeBuilder() Builder {
	return Builder{
		wayAssociativity: 1,
		replaceStrategy:  "lru",
	}
}

// WithNumSetIndexBits sets the number of set index bits; the cache has
// 2^n sets.
func (b Builder) WithNumSetIndexBits(n uint) Builder {
	b.numSetIndexBits = n
	return b
}

// WithWayAssociativity sets the number of lines per set.
func (b Builder) WithWayAssociativity(n uint) Builder {
	b.wayAssociativity = n
	return b
}

// WithNumBlockOffsetBits sets the number of block offset bits; blocks are
// 2^n bytes.
func (b Builder) WithNumBlockOffsetBits(n uint) Builder {
	b.numBlockOffsetBits = n
	return b
}

// WithGeometry sets all three geometry parameters at once.
func (b Builder) WithGeometry(g Geometry) Builder {
	b.numSetIndexBits = g.NumSetIndexBits
	b.wayAssociativity = g.Associativity
	b.numBlockOffsetBits = g.NumBlockOffsetBits

	return b
}

// WithReplaceStrategy sets the replacement strategy. Only "lru" is supported.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// WithHook registers a hook on the simulator being built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(b.hooks[:len(b.hooks):len(b.hooks)], hook)
	return b
}

// Build builds a simulator. It returns a *ConfigurationError if the geometry
// cannot be simulated.
func (b Builder) Build(name string) (*Simulator, error) {
	geometry := Geometry{
		NumSetIndexBits:    b.numSetIndexBits,
		Associativity:      b.wayAssociativity,
		NumBlockOffsetBits: b.numBlockOffsetBits,
	}

	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	victimFinder, err := b.createVictimFinder()
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		name: name,
		tags: tagging.NewTagArray(geometry, victimFinder),
	}

	for _, h := range b.hooks {
		s.AcceptHook(h)
	}

	return s, nil
}

func (b Builder) createVictimFinder() (tagging.VictimFinder, error) {
	switch b.replaceStrategy {
	case "lru":
		return tagging.NewLRUVictimFinder(), nil
	default:
		return nil, &ConfigurationError{
			Field:  "replace strategy",
			Reason: "must be lru, got " + b.replaceStrategy,
		}
	}
}
