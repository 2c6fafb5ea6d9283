/*
Package source holds the host side of sensor acquisition.
Records are read from a line-oriented input (stdin, a file, or a serial port),
and the newest acceleration reading and location fix are kept
for the scheduler to pick up on each tick.
*/
package source

import (
	"github.com/rotblauer/potholed/types/sensor"
	"sync"
	"time"
)

// Latest holds the most recent acceleration reading.
// The scheduler polls it once per tick; a reading is reused until superseded,
// unless StaleAfter is set and the reading has aged out.
type Latest struct {
	StaleAfter time.Duration

	mu     sync.Mutex
	sample *sensor.AccelSample
	at     time.Time
}

func NewLatest(staleAfter time.Duration) *Latest {
	return &Latest{StaleAfter: staleAfter}
}

// Set replaces the held reading. A nil sample marks the sensor as having no usable reading.
func (l *Latest) Set(sample *sensor.AccelSample, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if sample != nil {
		cp := *sample
		sample = &cp
	}
	l.sample = sample
	l.at = at
}

// Get returns a copy of the held reading, or nil when there is none or it is stale.
func (l *Latest) Get(now time.Time) *sensor.AccelSample {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sample == nil {
		return nil
	}
	if l.StaleAfter > 0 && now.Sub(l.at) > l.StaleAfter {
		return nil
	}
	cp := *l.sample
	return &cp
}
