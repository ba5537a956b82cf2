package tagging

// A VictimFinder decides which block of a set receives a missing tag.
type VictimFinder interface {
	FindVictim(set *Set) Block
}

// LRUVictimFinder fills an invalid block if there is one and otherwise picks
// the least recently used block.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the lowest-way invalid block, or else the block with the
// smallest recency. Ties go to the lowest way.
func (e *LRUVictimFinder) FindVictim(set *Set) Block {
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block
		}
	}

	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if block.Recency < victim.Recency {
			victim = block
		}
	}

	return victim
}
