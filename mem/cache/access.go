package cache

import (
	"github.com/adkrueger/Cachelab/mem/cache/internal/tagging"
	"github.com/adkrueger/Cachelab/sim/hooking"
)

// AccessKind is the kind of memory access presented to the simulator.
type AccessKind int

// All access kinds. A Modify is a Load immediately followed by a Store to the
// same address.
const (
	Load AccessKind = iota
	Store
	Modify
)

func (k AccessKind) String() string {
	switch k {
	case Load:
		return "load"
	case Store:
		return "store"
	case Modify:
		return "modify"
	default:
		return "unknown"
	}
}

// Outcome is the result of one access against the cache.
type Outcome = tagging.Outcome

// All access outcomes.
const (
	Hit       = tagging.Hit
	MissFill  = tagging.MissFill
	MissEvict = tagging.MissEvict
)

// Geometry describes the shape of the cache.
type Geometry = tagging.Geometry

// ConfigurationError reports a geometry that cannot be simulated.
type ConfigurationError = tagging.ConfigurationError

// HookPosAccess is triggered once per evaluated access, which is twice for a
// Modify. The hook item is an AccessInfo.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// HookPosReset is triggered after the simulator is reset. The hook item is
// nil.
var HookPosReset = &hooking.HookPos{Name: "CacheReset"}

// AccessInfo describes a single evaluated access.
type AccessInfo struct {
	// Clock is the recency clock value assigned to this access.
	Clock    uint64
	Kind     AccessKind
	SubKind  AccessKind
	Address  uint64
	SetIndex uint64
	Tag      uint64
	WayID    int
	Outcome  Outcome

	// EvictedTag is the tag that left the cache. Only meaningful when
	// Outcome is MissEvict.
	EvictedTag uint64
}
