package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adkrueger/Cachelab/mem/cache"
	"github.com/adkrueger/Cachelab/sim/hooking"
)

// Hook positions of a Replayer.
var (
	// HookPosReplayStart is triggered before the first line is read. The item
	// is a ReplayStart.
	HookPosReplayStart = &hooking.HookPos{Name: "ReplayStart"}

	// HookPosRecord is triggered after each record is applied to the cache.
	// The item is a Replayed.
	HookPosRecord = &hooking.HookPos{Name: "ReplayRecord"}

	// HookPosReplayEnd is triggered after the last line. The item is the
	// final ReplayStats.
	HookPosReplayEnd = &hooking.HookPos{Name: "ReplayEnd"}
)

// An Accessor applies accesses to a cache. *cache.Simulator is an Accessor.
type Accessor interface {
	Access(kind cache.AccessKind, address uint64) []cache.Outcome
}

// ReplayStart describes a trace about to be replayed. Size is the length of
// the source in bytes, or -1 when unknown.
type ReplayStart struct {
	Source string
	Size   int64
}

// Replayed is a record together with what happened to it.
type Replayed struct {
	Record   Record
	Outcomes []cache.Outcome

	// Line is the 1-based line number and Offset the number of bytes consumed
	// so far.
	Line   int
	Offset int64
}

// String formats the record followed by its outcome words, for example
// "M 20,1 miss hit".
func (r Replayed) String() string {
	words := []string{r.Record.String()}
	for _, o := range r.Outcomes {
		words = append(words, o.Tags()...)
	}

	return strings.Join(words, " ")
}

// ReplayStats counts what a replay did with the lines it read.
type ReplayStats struct {
	Source       string `json:"source"`
	Lines        int    `json:"lines"`
	Records      int    `json:"records"`
	Instructions int    `json:"instructions"`
	Skipped      int    `json:"skipped"`
}

// A Replayer feeds trace records to an Accessor in file order.
type Replayer struct {
	hooking.HookableBase

	accessor Accessor
}

// NewReplayer creates a Replayer driving accessor.
func NewReplayer(accessor Accessor) *Replayer {
	return &Replayer{accessor: accessor}
}

// ReplayFile replays the trace at path. If the file cannot be opened nothing
// is replayed and the error wraps ErrSourceUnavailable.
func (r *Replayer) ReplayFile(path string) (ReplayStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReplayStats{Source: path}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	size := int64(-1)
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		size = info.Size()
	}

	return r.replay(path, size, f)
}

// Replay replays every line of reader. Malformed lines are skipped and
// instruction fetches are ignored. A read failure stops the replay and wraps
// ErrSourceUnavailable; the records before it stay applied.
func (r *Replayer) Replay(reader io.Reader) (ReplayStats, error) {
	return r.replay("", -1, reader)
}

func (r *Replayer) replay(
	source string,
	size int64,
	reader io.Reader,
) (ReplayStats, error) {
	stats := ReplayStats{Source: source}
	r.invoke(HookPosReplayStart, ReplayStart{Source: source, Size: size})

	br := bufio.NewReader(reader)
	offset := int64(0)

	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			offset += int64(len(line))
			stats.Lines++
			r.replayLine(line, stats.Lines, offset, &stats)
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			r.invoke(HookPosReplayEnd, stats)
			return stats, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
	}

	r.invoke(HookPosReplayEnd, stats)

	return stats, nil
}

func (r *Replayer) replayLine(
	line string,
	lineNumber int,
	offset int64,
	stats *ReplayStats,
) {
	record, err := ParseRecord(line)
	if err != nil {
		stats.Skipped++
		return
	}

	kind, ok := record.Op.AccessKind()
	if !ok {
		stats.Instructions++
		return
	}

	outcomes := r.accessor.Access(kind, record.Address)
	stats.Records++

	r.invoke(HookPosRecord, Replayed{
		Record:   record,
		Outcomes: outcomes,
		Line:     lineNumber,
		Offset:   offset,
	})
}

func (r *Replayer) invoke(pos *hooking.HookPos, item any) {
	if r.NumHooks() == 0 {
		return
	}

	r.InvokeHook(hooking.HookCtx{
		Domain: r,
		Pos:    pos,
		Item:   item,
	})
}
