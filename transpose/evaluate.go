package transpose

import (
	"errors"
	"fmt"

	"github.com/adkrueger/Cachelab/mem/cache"
)

// LabGeometry is the cache routines are graded on: 1 KB, direct mapped, with
// 32-byte blocks.
var LabGeometry = cache.Geometry{
	NumSetIndexBits:    5,
	Associativity:      1,
	NumBlockOffsetBits: 5,
}

// ErrInvalidShape is returned for matrix dimensions outside 1..MaxDim.
var ErrInvalidShape = errors.New("invalid matrix shape")

// A Result is what one routine did on one shape.
type Result struct {
	Desc    string      `json:"desc"`
	M       int         `json:"m"`
	N       int         `json:"n"`
	Stats   cache.Stats `json:"stats"`
	Correct bool        `json:"correct"`
}

func (r Result) String() string {
	status := "correct"
	if !r.Correct {
		status = "incorrect"
	}

	return fmt.Sprintf("%s (%dx%d): %s, %s", r.Desc, r.M, r.N, r.Stats, status)
}

// Evaluate runs fn on an n x m input against a fresh cache of LabGeometry.
func Evaluate(fn Function, m, n int) (Result, error) {
	s, err := cache.MakeBuilder().WithGeometry(LabGeometry).Build("Transpose")
	if err != nil {
		return Result{}, err
	}

	return EvaluateOn(s, fn, m, n)
}

// EvaluateOn runs fn on an n x m input against s, starting from a reset
// cache. Only the accesses made by fn are counted.
func EvaluateOn(s *cache.Simulator, fn Function, m, n int) (Result, error) {
	if m < 1 || m > MaxDim || n < 1 || n > MaxDim {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrInvalidShape, m, n)
	}

	s.Reset()

	a := NewMatrix(n, m, BaseA, s)
	b := NewMatrix(m, n, BaseB, s)
	a.Fill(func(i, j int) int32 { return int32(i*m + j) })

	fn.Run(m, n, a, b)

	return Result{
		Desc:    fn.Desc,
		M:       m,
		N:       n,
		Stats:   s.Stats(),
		Correct: IsTranspose(a, b),
	}, nil
}
