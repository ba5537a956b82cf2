package trace

import (
	"log"

	"github.com/adkrueger/Cachelab/sim/hooking"
)

// A tracer is a hook that prints every replayed record with its outcomes.
type tracer struct {
	hooking.LogHookBase
}

// NewTracer creates a hook for a Replayer that writes one line per applied
// record, such as "L 10,1 miss eviction", to logger. Create the logger without
// prefix or flags to get the classic verbose output.
func NewTracer(logger *log.Logger) hooking.Hook {
	return &tracer{LogHookBase: hooking.LogHookBase{Logger: logger}}
}

// Func prints the record if the hook is triggered after a record.
func (t *tracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosRecord {
		return
	}

	replayed, ok := ctx.Item.(Replayed)
	if !ok {
		return
	}

	t.Println(replayed.String())
}
