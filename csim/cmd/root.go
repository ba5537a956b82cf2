// Package cmd provides the command-line interface of csim.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// newRootCmd creates the csim command. Flag defaults come from the
// environment, which may be seeded from a .env file.
func newRootCmd() *cobra.Command {
	var c Config

	rootCmd := &cobra.Command{
		Use:   "csim -s <s> -E <E> -b <b> -t <tracefile>",
		Short: "csim replays a valgrind memory trace against an LRU cache.",
		Long: `csim replays a valgrind memory trace against a set-associative ` +
			`cache with LRU replacement and prints the number of hits, misses, ` +
			`and evictions.

  -h         Print this help message.
  -v         Optional verbose flag that displays trace info.
  -s <num>   Number of set index bits.
  -E <num>   Number of lines per set.
  -b <num>   Number of block offset bits.
  -t <file>  Trace file.

Examples:
  csim -s 4 -E 1 -b 4 -t traces/yi.trace
  csim -v -s 8 -E 2 -b 4 -t traces/yi.trace`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := simulate(c, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
	}

	defaults, err := defaultConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring environment defaults: %v\n", err)
	}

	flags := rootCmd.Flags()
	flags.IntVarP(&c.SetIndexBits, "set-bits", "s", defaults.SetIndexBits,
		"number of set index bits")
	flags.IntVarP(&c.Associativity, "lines", "E", defaults.Associativity,
		"number of lines per set")
	flags.IntVarP(&c.BlockOffsetBits, "block-bits", "b", defaults.BlockOffsetBits,
		"number of block offset bits")
	flags.StringVarP(&c.TracePath, "trace", "t", defaults.TracePath,
		"valgrind trace file to replay")
	flags.BoolVarP(&c.Verbose, "verbose", "v", defaults.Verbose,
		"print the outcome of every record")
	flags.StringVar(&c.RecordPath, "record", "",
		"record every access into an SQLite database with this name")
	flags.BoolVar(&c.Monitor, "monitor", false,
		"serve the simulation state over HTTP")
	flags.IntVar(&c.MonitorPort, "monitor-port", 0,
		"port of the monitoring server, random if 0")
	flags.BoolVar(&c.OpenBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	flags.StringVar(&c.ResultsPath, "results", defaults.ResultsPath,
		"file receiving \"hits misses evictions\", empty to disable")

	rootCmd.AddCommand(newTransposeCmd())

	return rootCmd
}

// Execute runs the csim command and exits non-zero on failure.
func Execute() {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	rootCmd := newRootCmd()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
