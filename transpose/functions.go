package transpose

// Func transposes a, which has n rows and m columns, into b, which has m rows
// and n columns.
type Func func(m, n int, a, b *Matrix)

// A Function is a transpose routine and the description it is reported by.
type Function struct {
	Desc string
	Run  Func
}

// Descriptions of the built-in routines.
const (
	SubmissionDesc = "Transpose submission"
	SimpleDesc     = "Simple row-wise scan transpose"
)

// Functions returns the built-in routines in evaluation order.
func Functions() []Function {
	return []Function{
		{Desc: SubmissionDesc, Run: Submission},
		{Desc: SimpleDesc, Run: Simple},
	}
}

// Lookup finds a built-in routine by its description.
func Lookup(desc string) (Function, bool) {
	for _, f := range Functions() {
		if f.Desc == desc {
			return f, true
		}
	}

	return Function{}, false
}

const blockSize = 8

// Submission transposes 8x8 blocks. For the 32x32 shape, the diagonal element
// of each row in a diagonal block is held back and written after the rest of
// the row so that A and B do not evict each other in the middle of the row.
// Other shapes walk the blocks column-block first.
func Submission(m, n int, a, b *Matrix) {
	if n == 32 {
		submission32(a, b)
		return
	}

	for cblock := 0; cblock < m; cblock += blockSize {
		for rblock := 0; rblock < n; rblock += blockSize {
			for i := rblock; i < rblock+blockSize && i < n; i++ {
				for j := cblock; j < cblock+blockSize && j < m; j++ {
					if i != j {
						b.Set(j, i, a.Get(i, j))
					} else if rblock == cblock {
						b.Set(i, j, a.Get(i, j))
					}
				}
			}
		}
	}
}

func submission32(a, b *Matrix) {
	var diag int32

	for rblock := 0; rblock < 32; rblock += blockSize {
		for cblock := 0; cblock < 32; cblock += blockSize {
			for i := rblock; i < rblock+blockSize; i++ {
				for j := cblock; j < cblock+blockSize; j++ {
					if i == j {
						diag = a.Get(i, i)
					} else {
						b.Set(j, i, a.Get(i, j))
					}
				}

				if rblock == cblock {
					b.Set(i, i, diag)
				}
			}
		}
	}
}

// Simple is the baseline row-wise scan.
func Simple(m, n int, a, b *Matrix) {
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			b.Set(j, i, a.Get(i, j))
		}
	}
}
