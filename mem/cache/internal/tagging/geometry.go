package tagging

import "fmt"

// AddressWidth is the number of bits in a simulated address.
const AddressWidth = 64

// MaxAssociativity is the largest number of lines per set. Every way of a
// touched set is allocated up front.
const MaxAssociativity = 1 << 20

// Geometry describes the shape of a set-associative cache. A zero
// NumSetIndexBits gives a single set, that is, a fully associative cache.
type Geometry struct {
	NumSetIndexBits    uint
	Associativity      uint
	NumBlockOffsetBits uint
}

// A ConfigurationError reports a geometry that cannot be simulated.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid cache configuration: %s %s", e.Field, e.Reason)
}

// Validate checks that the geometry can be simulated.
func (g Geometry) Validate() error {
	if g.Associativity < 1 {
		return &ConfigurationError{
			Field:  "associativity",
			Reason: "must be at least 1",
		}
	}

	if g.Associativity > MaxAssociativity {
		return &ConfigurationError{
			Field:  "associativity",
			Reason: fmt.Sprintf("must be at most %d", MaxAssociativity),
		}
	}

	if g.NumSetIndexBits+g.NumBlockOffsetBits > AddressWidth {
		return &ConfigurationError{
			Field: "set index bits + block offset bits",
			Reason: fmt.Sprintf("(%d + %d) exceeds the %d-bit address width",
				g.NumSetIndexBits, g.NumBlockOffsetBits, AddressWidth),
		}
	}

	return nil
}

// NumSets returns 2^NumSetIndexBits. It overflows to 0 when all 64 address
// bits select the set; use SetMask for address arithmetic.
func (g Geometry) NumSets() uint64 {
	return uint64(1) << g.NumSetIndexBits
}

// BlockSize returns the number of bytes per block.
func (g Geometry) BlockSize() uint64 {
	return uint64(1) << g.NumBlockOffsetBits
}

// SetMask returns the mask applied to a shifted address to get the set index.
func (g Geometry) SetMask() uint64 {
	return g.NumSets() - 1
}

// Decode splits an address into its tag and set index.
func (g Geometry) Decode(address uint64) (tag, setIndex uint64) {
	setIndex = (address >> g.NumBlockOffsetBits) & g.SetMask()
	tag = address >> (g.NumSetIndexBits + g.NumBlockOffsetBits)

	return tag, setIndex
}

// TotalSize returns the maximum number of bytes can be stored in the cache,
// saturating if the product does not fit in 64 bits.
func (g Geometry) TotalSize() uint64 {
	bits := g.NumSetIndexBits + g.NumBlockOffsetBits
	if bits >= AddressWidth {
		return ^uint64(0)
	}

	lines := uint64(1) << bits
	if uint64(g.Associativity) > ^uint64(0)/lines {
		return ^uint64(0)
	}

	return lines * uint64(g.Associativity)
}
