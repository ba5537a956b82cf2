package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adkrueger/Cachelab/transpose"
)

var errIncorrectTranspose = errors.New("incorrect transpose")

func newTransposeCmd() *cobra.Command {
	var (
		m, n int
		desc string
	)

	transposeCmd := &cobra.Command{
		Use:   "transpose",
		Short: "Evaluate the matrix transpose routines.",
		Long: "`transpose -M 32 -N 32` counts the cache misses of every " +
			"transpose routine on a 1 KB direct-mapped cache with 32-byte " +
			"blocks. Use --func to pick a single routine by description.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fns := transpose.Functions()
			if desc != "" {
				fn, ok := transpose.Lookup(desc)
				if !ok {
					return fmt.Errorf("unknown transpose routine %q", desc)
				}

				fns = []transpose.Function{fn}
			}

			var failed error

			for _, fn := range fns {
				result, err := transpose.Evaluate(fn, m, n)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), result)

				if !result.Correct {
					failed = fmt.Errorf("%w: %s", errIncorrectTranspose, fn.Desc)
				}
			}

			return failed
		},
	}

	transposeCmd.Flags().IntVarP(&m, "cols", "M", 32, "number of columns of A")
	transposeCmd.Flags().IntVarP(&n, "rows", "N", 32, "number of rows of A")
	transposeCmd.Flags().StringVar(&desc, "func", "", "only evaluate this routine")

	return transposeCmd
}
