package source

import (
	"fmt"
	"github.com/golang/groupcache/lru"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rotblauer/potholed/types/sensor"
	"sync"
	"time"
)

// FixBuffer keeps the newest location fix until the scheduler takes it.
// Fix arrival need not match the tick rate: fixes arriving between ticks
// overwrite each other, and a tick without a new fix gets none.
type FixBuffer struct {
	// Now stamps fixes that arrive without a receipt time.
	Now func() time.Time

	mu      sync.Mutex
	pending *sensor.GeoFix
	dedupe  *lru.Cache

	received, dropped uint64
}

// NewFixBuffer returns a buffer. A positive dedupeSize enables
// suppression of repeated identical provider reports.
func NewFixBuffer(dedupeSize int) *FixBuffer {
	b := &FixBuffer{Now: time.Now}
	if dedupeSize > 0 {
		b.dedupe = lru.New(dedupeSize)
	}
	return b
}

type fixKey struct {
	Lat, Lon     float64
	ReportedTime int64
}

// dedupePass returns true if the fix is not a duplicate.
// Fixes without a provider timestamp are never considered duplicates,
// since a stationary device legitimately reports the same coordinates.
func (b *FixBuffer) dedupePass(fix *sensor.GeoFix) bool {
	if b.dedupe == nil || fix.ReportedTime.IsZero() {
		return true
	}
	hash, err := hashstructure.Hash(fixKey{fix.Lat, fix.Lon, fix.ReportedTime.UnixNano()}, hashstructure.FormatV2, nil)
	if err != nil {
		return true
	}
	key := fmt.Sprintf("%d", hash)
	if _, ok := b.dedupe.Get(key); ok {
		return false
	}
	b.dedupe.Add(key, true)
	return true
}

// Offer buffers a fix, replacing any fix not yet taken.
// A fix with a zero Time is stamped with the receipt time from Now.
// It returns false if the fix was dropped as a duplicate.
func (b *FixBuffer) Offer(fix *sensor.GeoFix) bool {
	if fix == nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.received++
	if !b.dedupePass(fix) {
		b.dropped++
		return false
	}
	if fix.Time.IsZero() {
		fix = fix.WithTime(b.Now())
	} else {
		cp := *fix
		fix = &cp
	}
	b.pending = fix
	return true
}

// Take returns the buffered fix, at most once, or nil if none arrived since the last Take.
func (b *FixBuffer) Take() *sensor.GeoFix {
	b.mu.Lock()
	defer b.mu.Unlock()
	fix := b.pending
	b.pending = nil
	return fix
}

// Stats returns the number of fixes offered and dropped as duplicates.
func (b *FixBuffer) Stats() (received, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.received, b.dropped
}
