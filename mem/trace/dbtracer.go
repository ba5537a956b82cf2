package trace

import (
	"strconv"

	"github.com/adkrueger/Cachelab/datarecording"
	"github.com/adkrueger/Cachelab/mem/cache"
	"github.com/adkrueger/Cachelab/sim"
	"github.com/adkrueger/Cachelab/sim/hooking"
)

// Table names used by the DBTracer.
const (
	AccessTableName = "cache_accesses"
	ReplayTableName = "cache_replays"
)

// AccessEntry is a row of the access table. Addresses and tags are stored as
// hex strings because SQLite integers are signed 64-bit.
type AccessEntry struct {
	ID         string `json:"id" csim_data:"unique"`
	Cache      string `json:"cache" csim_data:"index"`
	Clock      uint64 `json:"clock" csim_data:"index"`
	Kind       string `json:"kind" csim_data:"index"`
	SubKind    string `json:"sub_kind"`
	Address    string `json:"address" csim_data:"index"`
	SetIndex   string `json:"set_index"`
	Tag        string `json:"tag"`
	WayID      int    `json:"way_id"`
	Outcome    string `json:"outcome" csim_data:"index"`
	EvictedTag string `json:"evicted_tag"`
}

// ReplayEntry is a row of the replay table, written when a replay ends.
type ReplayEntry struct {
	ID           string `json:"id" csim_data:"unique"`
	Source       string `json:"source"`
	Lines        int    `json:"lines"`
	Records      int    `json:"records"`
	Instructions int    `json:"instructions"`
	Skipped      int    `json:"skipped"`
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
	Evictions    uint64 `json:"evictions"`
}

// A DBTracer records accesses and replay summaries into a DataRecorder.
// Register it on both the cache simulator and the replayer.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	idGenerator  sim.IDGenerator
	stats        cache.Stats
}

// NewDBTracer creates a DBTracer and the tables it writes to.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
		idGenerator:  sim.GetIDGenerator(),
	}

	t.dataRecorder.CreateTable(AccessTableName, AccessEntry{})
	t.dataRecorder.CreateTable(ReplayTableName, ReplayEntry{})

	return t
}

// Func records the item carried by the hook context.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		t.recordAccess(ctx)
	case cache.HookPosReset:
		t.stats = cache.Stats{}
	case HookPosReplayEnd:
		t.recordReplay(ctx.Item.(ReplayStats))
	}
}

func (t *DBTracer) recordAccess(ctx hooking.HookCtx) {
	info := ctx.Item.(cache.AccessInfo)

	name := ""
	if named, ok := ctx.Domain.(interface{ Name() string }); ok {
		name = named.Name()
	}

	entry := AccessEntry{
		ID:       t.idGenerator.Generate(),
		Cache:    name,
		Clock:    info.Clock,
		Kind:     info.Kind.String(),
		SubKind:  info.SubKind.String(),
		Address:  hex(info.Address),
		SetIndex: hex(info.SetIndex),
		Tag:      hex(info.Tag),
		WayID:    info.WayID,
		Outcome:  info.Outcome.String(),
	}

	if info.Outcome == cache.MissEvict {
		entry.EvictedTag = hex(info.EvictedTag)
	}

	t.stats.Count(info.Outcome)
	t.dataRecorder.InsertData(AccessTableName, entry)
}

func (t *DBTracer) recordReplay(stats ReplayStats) {
	t.dataRecorder.InsertData(ReplayTableName, ReplayEntry{
		ID:           t.idGenerator.Generate(),
		Source:       stats.Source,
		Lines:        stats.Lines,
		Records:      stats.Records,
		Instructions: stats.Instructions,
		Skipped:      stats.Skipped,
		Hits:         t.stats.Hits,
		Misses:       t.stats.Misses,
		Evictions:    t.stats.Evictions,
	})

	t.stats = cache.Stats{}
}

func hex(v uint64) string {
	return "0x" + strconv.FormatUint(v, 16)
}
