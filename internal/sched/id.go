package sched

import (
	"fmt"
	"math"

	"ticksched/internal/errors"
)

// TaskID uniquely identifies a task in the wheel that spawned it. Ids of two
// different wheels may collide.
type TaskID uint64

func (id TaskID) String() string {
	return fmt.Sprintf("0x%X", uint64(id))
}

// idAllocator hands out strictly increasing ids starting at 1. Once limit has
// been issued it refuses to continue instead of wrapping around.
type idAllocator struct {
	last  uint64
	limit uint64
}

func newIDAllocator(limit uint64) idAllocator {
	if limit == 0 {
		limit = math.MaxUint64
	}

	return idAllocator{limit: limit}
}

func (a *idAllocator) next() (TaskID, error) {
	if a.last >= a.limit {
		return 0, errors.Errorf("allocating task id past %d: %w", a.limit, ErrExhausted)
	}

	a.last++

	return TaskID(a.last), nil
}

func (a *idAllocator) exhausted() bool {
	return a.last >= a.limit
}

func taskIDComparator(a, b any) int {
	ka, kb := a.(TaskID), b.(TaskID)

	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}
