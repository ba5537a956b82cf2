// Package trace reads valgrind-style memory traces and replays them against a
// cache simulator.
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adkrueger/Cachelab/mem/cache"
)

// ErrMalformedRecord is returned for a line that is not a trace record.
var ErrMalformedRecord = errors.New("malformed trace record")

// ErrSourceUnavailable is returned when a trace cannot be opened or read.
var ErrSourceUnavailable = errors.New("trace source unavailable")

// Op is the one-letter operation of a trace record.
type Op byte

// All trace operations.
const (
	OpInstruction Op = 'I'
	OpLoad        Op = 'L'
	OpStore       Op = 'S'
	OpModify      Op = 'M'
)

// AccessKind maps the operation to the cache access it causes. Instruction
// fetches cause none.
func (o Op) AccessKind() (cache.AccessKind, bool) {
	switch o {
	case OpLoad:
		return cache.Load, true
	case OpStore:
		return cache.Store, true
	case OpModify:
		return cache.Modify, true
	default:
		return 0, false
	}
}

func (o Op) valid() bool {
	switch o {
	case OpInstruction, OpLoad, OpStore, OpModify:
		return true
	default:
		return false
	}
}

// A Record is one decoded trace line. Size is carried along but does not
// affect the cache model.
type Record struct {
	Op      Op
	Address uint64
	Size    uint32
}

// String formats the record the way it is echoed in verbose output.
func (r Record) String() string {
	return fmt.Sprintf("%c %x,%d", r.Op, r.Address, r.Size)
}

// ParseRecord decodes a line of the form "<op> <hex address>,<decimal size>".
// Leading and trailing blanks are ignored and the address may carry a 0x
// prefix.
func ParseRecord(line string) (Record, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return Record{}, fmt.Errorf("%w: empty line", ErrMalformedRecord)
	}

	op := Op(s[0])
	if !op.valid() {
		return Record{}, fmt.Errorf("%w: unknown operation %q", ErrMalformedRecord, s[0])
	}

	addrStr, sizeStr, found := strings.Cut(strings.TrimLeft(s[1:], " \t"), ",")
	if !found {
		return Record{}, fmt.Errorf("%w: missing size in %q", ErrMalformedRecord, line)
	}

	addrStr = strings.TrimSpace(addrStr)
	addrStr = strings.TrimPrefix(strings.TrimPrefix(addrStr, "0x"), "0X")

	address, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad address in %q", ErrMalformedRecord, line)
	}

	size, err := strconv.ParseUint(strings.TrimSpace(sizeStr), 10, 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad size in %q", ErrMalformedRecord, line)
	}

	return Record{Op: op, Address: address, Size: uint32(size)}, nil
}
