package tasks

import (
	"sync"
	"time"
)

// Stats tracks per-task tick counters for the status endpoint. Safe for
// concurrent use.
type Stats struct {
	mu           sync.Mutex
	ticks        uint64
	skipped      uint64
	lastTick     time.Time
	lastDuration time.Duration
	lastItems    int
	itemErrors   uint64
}

// Snapshot is a point-in-time copy of a task's counters.
type Snapshot struct {
	Ticks        uint64        `json:"ticks"`
	TicksSkipped uint64        `json:"ticks_skipped"`
	LastTick     time.Time     `json:"last_tick"`
	LastDuration time.Duration `json:"last_duration_ns"`
	// LastItems is the number of units of work the last tick completed:
	// grants written for the processor, grants revoked for the sweeper.
	LastItems  int    `json:"last_items"`
	ItemErrors uint64 `json:"item_errors"`
}

func (s *Stats) recordTick(start time.Time, items int, itemErrors int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	s.lastTick = start
	s.lastDuration = time.Since(start)
	s.lastItems = items
	s.itemErrors += uint64(itemErrors)
}

func (s *Stats) recordSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// Snapshot returns a copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Ticks:        s.ticks,
		TicksSkipped: s.skipped,
		LastTick:     s.lastTick,
		LastDuration: s.lastDuration,
		LastItems:    s.lastItems,
		ItemErrors:   s.itemErrors,
	}
}
