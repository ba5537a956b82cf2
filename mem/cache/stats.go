package cache

import "fmt"

// Stats holds the aggregate counters of a simulation run.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Accesses returns the number of evaluated accesses.
func (s Stats) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of accesses that hit, or 0 before any access.
func (s Stats) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses())
}

func (s Stats) String() string {
	return fmt.Sprintf("hits:%d misses:%d evictions:%d",
		s.Hits, s.Misses, s.Evictions)
}

// Count adds one access with outcome o to the counters.
func (s *Stats) Count(o Outcome) {
	switch o {
	case Hit:
		s.Hits++
	case MissFill:
		s.Misses++
	case MissEvict:
		s.Misses++
		s.Evictions++
	}
}
