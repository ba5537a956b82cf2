// Package cache simulates a set-associative cache with LRU replacement and
// counts its hits, misses, and evictions.
package cache

import (
	"github.com/adkrueger/Cachelab/mem/cache/internal/tagging"
	"github.com/adkrueger/Cachelab/sim/hooking"
)

// Simulator replays accesses one at a time against a cache. It owns all the
// simulation state: the tag array, the counters, and the recency clock. It is
// not safe for concurrent use.
type Simulator struct {
	hooking.HookableBase

	name  string
	tags  tagging.TagArray
	clock uint64
	stats Stats
}

// Name returns the name given at build time.
func (s *Simulator) Name() string {
	return s.name
}

// Geometry returns the shape of the simulated cache.
func (s *Simulator) Geometry() Geometry {
	return s.tags.Geometry()
}

// Stats returns the counters accumulated since construction or the last
// Reset.
func (s *Simulator) Stats() Stats {
	return s.stats
}

// Clock returns the recency clock value of the latest access.
func (s *Simulator) Clock() uint64 {
	return s.clock
}

// Access applies one access. A Modify is applied as a Load then a Store to the
// same address, each counted separately. The returned slice holds one outcome
// per evaluated access.
func (s *Simulator) Access(kind AccessKind, address uint64) []Outcome {
	tag, setIndex := s.tags.Geometry().Decode(address)

	switch kind {
	case Load, Store:
		return []Outcome{s.access(kind, kind, address, tag, setIndex)}
	case Modify:
		return []Outcome{
			s.access(kind, Load, address, tag, setIndex),
			s.access(kind, Store, address, tag, setIndex),
		}
	default:
		panic("unknown access kind")
	}
}

func (s *Simulator) access(
	kind, subKind AccessKind,
	address, tag, setIndex uint64,
) Outcome {
	s.clock++

	result := s.tags.Access(tag, setIndex, s.clock)
	s.stats.Count(result.Outcome)

	if s.NumHooks() > 0 {
		s.traceAccess(kind, subKind, address, result)
	}

	return result.Outcome
}

func (s *Simulator) traceAccess(
	kind, subKind AccessKind,
	address uint64,
	result tagging.AccessResult,
) {
	info := AccessInfo{
		Clock:    s.clock,
		Kind:     kind,
		SubKind:  subKind,
		Address:  address,
		SetIndex: result.Block.SetID,
		Tag:      result.Block.Tag,
		WayID:    result.Block.WayID,
		Outcome:  result.Outcome,
	}

	if result.Outcome == MissEvict {
		info.EvictedTag = result.Victim.Tag
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosAccess,
		Item:   info,
	})
}

// Reset invalidates every line and zeroes the counters and the clock. A reset
// simulator behaves exactly like a newly built one; hooks stay registered and
// are told through HookPosReset.
func (s *Simulator) Reset() {
	s.tags.Reset()
	s.clock = 0
	s.stats = Stats{}

	if s.NumHooks() > 0 {
		s.InvokeHook(hooking.HookCtx{
			Domain: s,
			Pos:    HookPosReset,
		})
	}
}
