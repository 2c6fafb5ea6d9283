package sink

import (
	"context"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/potholed/types/roadevent"
	"log/slog"
	"sync"
)

// Dispatcher fans events from a feed out to sinks, one goroutine per sink.
type Dispatcher struct {
	Sinks []Sink

	// QueueSize bounds each sink's backlog.
	QueueSize int

	// Blocking makes a full sink queue hold up the feed rather than drop the event.
	// Replays use it so every event reaches every sink.
	Blocking bool

	// OnError, if set, is called after a sink failure is logged.
	OnError func(sink string, err error)

	logger *slog.Logger
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		Sinks:     sinks,
		QueueSize: 64,
		logger:    slog.With("d", "sink"),
	}
}

// Run subscribes every sink to feed and handles events until ctx is done.
// Events already sent on the feed when ctx is done are still delivered.
// Sinks are closed before Run returns.
func (d *Dispatcher) Run(ctx context.Context, feed *event.FeedOf[*roadevent.ClassifiedEvent]) {
	<-d.Start(ctx, feed)
}

// Start subscribes every sink before returning, so no event sent afterwards is missed.
// The returned channel is closed once every sink has drained and closed.
func (d *Dispatcher) Start(ctx context.Context, feed *event.FeedOf[*roadevent.ClassifiedEvent]) <-chan struct{} {
	wg := &sync.WaitGroup{}
	for _, s := range d.Sinks {
		ch := make(chan *roadevent.ClassifiedEvent, d.QueueSize)
		sub := feed.Subscribe(ch)
		queue := make(chan *roadevent.ClassifiedEvent, d.QueueSize)

		wg.Add(2)
		go func(s Sink) {
			defer wg.Done()
			defer close(queue)
			defer sub.Unsubscribe()
			for {
				select {
				case <-ctx.Done():
					sub.Unsubscribe()
					for {
						select {
						case e := <-ch:
							queue <- e
						default:
							return
						}
					}
				case err := <-sub.Err():
					if err != nil {
						d.logger.Error("Sink subscription failed", "sink", s.Name(), "error", err)
					}
					return
				case e := <-ch:
					d.enqueue(s, queue, e)
				}
			}
		}(s)

		go func(s Sink) {
			defer wg.Done()
			for e := range queue {
				// Handles are not cancelled with ctx; each sink bounds its own calls.
				if err := s.Handle(context.Background(), e); err != nil {
					d.fail(s, err)
				}
			}
			if err := s.Close(); err != nil {
				d.fail(s, err)
			}
		}(s)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (d *Dispatcher) enqueue(s Sink, queue chan<- *roadevent.ClassifiedEvent, e *roadevent.ClassifiedEvent) {
	if d.Blocking {
		queue <- e
		return
	}
	select {
	case queue <- e:
	default:
		d.logger.Warn("Sink queue full, dropping event", "sink", s.Name(), "seq", e.Seq)
	}
}

func (d *Dispatcher) fail(s Sink, err error) {
	d.logger.Warn("Sink failed", "sink", s.Name(), "error", err)
	if d.OnError != nil {
		d.OnError(s.Name(), err)
	}
}
