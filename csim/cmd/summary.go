package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/adkrueger/Cachelab/mem/cache"
)

// printSummary writes the one-line summary shown at the end of every run.
func printSummary(w io.Writer, stats cache.Stats) {
	fmt.Fprintln(w, stats.String())
}

// writeResults stores "hits misses evictions" for the grading scripts. An
// empty path disables the file.
func writeResults(path string, stats cache.Stats) error {
	if path == "" {
		return nil
	}

	content := fmt.Sprintf("%d %d %d\n", stats.Hits, stats.Misses, stats.Evictions)

	return os.WriteFile(path, []byte(content), 0o644)
}
