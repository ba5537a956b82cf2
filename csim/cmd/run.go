package cmd

import (
	"fmt"
	"io"
	"log"

	"github.com/adkrueger/Cachelab/datarecording"
	"github.com/adkrueger/Cachelab/mem/cache"
	"github.com/adkrueger/Cachelab/mem/trace"
	"github.com/adkrueger/Cachelab/monitoring"
)

// simulate replays the configured trace. Configuration errors are returned
// before anything is printed. Once the replay has been attempted the summary
// is always printed, even if the trace could not be read.
func simulate(c Config, stdout, stderr io.Writer) (cache.Stats, error) {
	geometry, err := c.Geometry()
	if err != nil {
		return cache.Stats{}, err
	}

	if err := c.validateOptions(); err != nil {
		return cache.Stats{}, err
	}

	s, err := cache.MakeBuilder().WithGeometry(geometry).Build("Cache")
	if err != nil {
		return cache.Stats{}, err
	}

	replayer := trace.NewReplayer(s)

	if c.Verbose {
		replayer.AcceptHook(trace.NewTracer(log.New(stdout, "", 0)))
	}

	if c.RecordPath != "" {
		recorder := datarecording.New(c.RecordPath)
		defer recorder.Close()

		tracer := trace.NewDBTracer(recorder)
		s.AcceptHook(tracer)
		replayer.AcceptHook(tracer)
	}

	if c.Monitor {
		monitor := monitoring.NewMonitor().
			WithPortNumber(c.MonitorPort).
			WithBrowser(c.OpenBrowser)
		monitor.RegisterSimulator(s)
		monitor.RegisterReplayer(replayer)

		if err := monitor.StartServer(); err != nil {
			fmt.Fprintf(stderr, "Cannot start monitor: %v\n", err)
		} else {
			defer monitor.StopServer()
		}
	}

	_, replayErr := replayer.ReplayFile(c.TracePath)
	if replayErr != nil {
		fmt.Fprintln(stderr, replayErr)
	}

	stats := s.Stats()
	printSummary(stdout, stats)

	if err := writeResults(c.ResultsPath, stats); err != nil {
		log.Printf("cannot write %s: %v", c.ResultsPath, err)
	}

	return stats, replayErr
}
