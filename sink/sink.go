/*
Package sink delivers classified events to their consumers:
a remote JSON store, InfluxDB, a local bbolt store, a gzipped NDJSON archive.

Sinks never reach back into the pipeline. A failing sink is logged and skipped;
the event is not retried.
*/
package sink

import (
	"context"
	"github.com/rotblauer/potholed/types/roadevent"
)

type Sink interface {
	Name() string
	Handle(ctx context.Context, e *roadevent.ClassifiedEvent) error
	Close() error
}
