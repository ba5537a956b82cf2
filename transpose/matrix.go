// Package transpose measures how matrix transpose routines use a small
// direct-mapped cache.
package transpose

import (
	"github.com/adkrueger/Cachelab/mem/cache"
)

// Memory layout of the two operands. Both live in fixed-size arrays of
// MaxDim x MaxDim elements; a routine only touches the leading rows*cols
// elements of each.
const (
	MaxDim      = 256
	ElementSize = 4
	BaseA       = uint64(0x10000)
	BaseB       = BaseA + MaxDim*MaxDim*ElementSize
)

// An Accessor applies accesses to a cache. *cache.Simulator is an Accessor.
type Accessor interface {
	Access(kind cache.AccessKind, address uint64) []cache.Outcome
}

// A Matrix is a rows x cols block of 32-bit integers stored row-major at base.
// Get and Set go through the cache; Fill and At do not.
type Matrix struct {
	rows, cols int
	base       uint64
	data       []int32
	mem        Accessor
}

// NewMatrix creates a zeroed matrix whose element reads and writes are
// reported to mem.
func NewMatrix(rows, cols int, base uint64, mem Accessor) *Matrix {
	return &Matrix{
		rows: rows,
		cols: cols,
		base: base,
		data: make([]int32, rows*cols),
		mem:  mem,
	}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	return m.rows
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	return m.cols
}

// Address returns the simulated address of element (i, j).
func (m *Matrix) Address(i, j int) uint64 {
	return m.base + uint64(i*m.cols+j)*ElementSize
}

func (m *Matrix) index(i, j int) int {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic("matrix index out of range")
	}

	return i*m.cols + j
}

// Get loads element (i, j).
func (m *Matrix) Get(i, j int) int32 {
	idx := m.index(i, j)
	m.mem.Access(cache.Load, m.Address(i, j))

	return m.data[idx]
}

// Set stores v to element (i, j).
func (m *Matrix) Set(i, j int, v int32) {
	idx := m.index(i, j)
	m.mem.Access(cache.Store, m.Address(i, j))
	m.data[idx] = v
}

// At reads element (i, j) without touching the cache.
func (m *Matrix) At(i, j int) int32 {
	return m.data[m.index(i, j)]
}

// Fill initializes every element with f(i, j) without touching the cache.
func (m *Matrix) Fill(f func(i, j int) int32) {
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			m.data[i*m.cols+j] = f(i, j)
		}
	}
}

// IsTranspose tells if b holds the transpose of a.
func IsTranspose(a, b *Matrix) bool {
	if a.rows != b.cols || a.cols != b.rows {
		return false
	}

	for i := 0; i < a.rows; i++ {
		for j := 0; j < a.cols; j++ {
			if a.At(i, j) != b.At(j, i) {
				return false
			}
		}
	}

	return true
}
