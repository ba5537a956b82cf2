// Package tagging keeps the tag state of a set-associative cache: which block
// of memory each line holds and how recently it was used.
package tagging

// Outcome is the result of presenting one tag to its set.
type Outcome int

// All access outcomes.
const (
	Hit Outcome = iota
	MissFill
	MissEvict
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case MissFill:
		return "miss"
	case MissEvict:
		return "miss eviction"
	default:
		return "unknown"
	}
}

// IsHit tells if the tag was already present.
func (o Outcome) IsHit() bool {
	return o == Hit
}

// IsEviction tells if a valid line had to be replaced.
func (o Outcome) IsEviction() bool {
	return o == MissEvict
}

// Tags returns the words printed for the outcome in a verbose trace.
func (o Outcome) Tags() []string {
	switch o {
	case Hit:
		return []string{"hit"}
	case MissFill:
		return []string{"miss"}
	case MissEvict:
		return []string{"miss", "eviction"}
	default:
		return nil
	}
}

// A Block of a cache is the information that is associated with a cache line.
// Recency is a logical timestamp; a larger value means more recently used.
type Block struct {
	SetID   uint64
	WayID   int
	Tag     uint64
	IsValid bool
	Recency uint64
}

// A Set is a list of blocks where a certain piece memory can be stored at.
type Set struct {
	Blocks []Block
}

func newSet(setID uint64, numWays int) *Set {
	s := &Set{Blocks: make([]Block, numWays)}
	for i := range s.Blocks {
		s.Blocks[i] = Block{SetID: setID, WayID: i}
	}

	return s
}

func (s *Set) clone() Set {
	blocks := make([]Block, len(s.Blocks))
	copy(blocks, s.Blocks)

	return Set{Blocks: blocks}
}

// AccessResult describes a single access to the tag array.
type AccessResult struct {
	Outcome Outcome

	// Block is the line holding the requested tag after the access.
	Block Block

	// Victim is the previous content of Block. Only meaningful when Outcome
	// is MissEvict.
	Victim Block
}

// A TagArray owns every set of a cache and applies accesses to them.
type TagArray interface {
	Geometry() Geometry
	Lookup(tag, setIndex uint64) (Block, bool)
	Update(block Block)
	Visit(block Block, clock uint64)
	GetSet(setIndex uint64) Set
	Access(tag, setIndex, clock uint64) AccessResult
	Reset()
}

// NewTagArray creates a tag array with every line invalid. The geometry is
// assumed to be validated.
func NewTagArray(geometry Geometry, victimFinder VictimFinder) TagArray {
	t := &tagArrayImpl{
		geometry:     geometry,
		numWays:      int(geometry.Associativity),
		victimFinder: victimFinder,
	}

	t.Reset()

	return t
}

// tagArrayImpl materializes sets the first time they are touched, so that
// geometries with many set index bits stay cheap. An untouched set behaves
// exactly like a set of invalid blocks.
type tagArrayImpl struct {
	geometry     Geometry
	numWays      int
	victimFinder VictimFinder
	sets         map[uint64]*Set
}

func (t *tagArrayImpl) Geometry() Geometry {
	return t.geometry
}

func (t *tagArrayImpl) set(setIndex uint64) *Set {
	s, ok := t.sets[setIndex]
	if !ok {
		s = newSet(setIndex, t.numWays)
		t.sets[setIndex] = s
	}

	return s
}

// GetSet returns a copy of the set at setIndex.
func (t *tagArrayImpl) GetSet(setIndex uint64) Set {
	s, ok := t.sets[setIndex]
	if !ok {
		return *newSet(setIndex, t.numWays)
	}

	return s.clone()
}

// Lookup finds the valid block holding tag in the given set.
func (t *tagArrayImpl) Lookup(tag, setIndex uint64) (Block, bool) {
	s, ok := t.sets[setIndex]
	if !ok {
		return Block{}, false
	}

	for _, block := range s.Blocks {
		if block.IsValid && block.Tag == tag {
			return block, true
		}
	}

	return Block{}, false
}

// Update overwrites the block at the block's set and way.
func (t *tagArrayImpl) Update(block Block) {
	t.set(block.SetID).Blocks[block.WayID] = block
}

// Visit marks the block as used at the given clock value.
func (t *tagArrayImpl) Visit(block Block, clock uint64) {
	t.set(block.SetID).Blocks[block.WayID].Recency = clock
}

// Access presents tag to its set. On a hit only the recency changes; on a
// miss the victim finder picks the line to fill and the tag is installed.
// Exactly one block is modified either way.
func (t *tagArrayImpl) Access(tag, setIndex, clock uint64) AccessResult {
	if block, found := t.Lookup(tag, setIndex); found {
		t.Visit(block, clock)
		block.Recency = clock

		return AccessResult{Outcome: Hit, Block: block}
	}

	s := t.set(setIndex)
	victim := t.victimFinder.FindVictim(s)

	outcome := MissFill
	if victim.IsValid {
		outcome = MissEvict
	}

	block := victim
	block.IsValid = true
	block.Tag = tag
	block.Recency = clock
	t.Update(block)

	return AccessResult{Outcome: outcome, Block: block, Victim: victim}
}

// Reset will mark all the blocks in the array invalid.
func (t *tagArrayImpl) Reset() {
	t.sets = make(map[uint64]*Set)
}
