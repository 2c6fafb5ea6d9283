package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Remote posts every event to a JSON collection endpoint
// and periodically clears the collection with DELETE.
type Remote struct {
	Config *params.RemoteSinkConfig
	Client *http.Client

	// sinceReset counts samples since the last successful purge.
	sinceReset purgeCounter
	offline    atomic.Bool
	logger     *slog.Logger
}

func NewRemote(config *params.RemoteSinkConfig) (*Remote, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("remote sink: url required")
	}
	return &Remote{
		Config: config,
		Client: &http.Client{Timeout: config.Timeout},
		logger: slog.With("sink", "remote"),
	}, nil
}

func (r *Remote) Name() string { return "remote" }

// Offline reports whether the last POST failed.
func (r *Remote) Offline() bool {
	return r.offline.Load()
}

// Handle posts the event. Every PurgeEvery samples, counted by sequence number,
// it also tries to purge the collection, retrying on each following event
// until a purge succeeds.
// A failed post does not skip the purge.
func (r *Remote) Handle(ctx context.Context, e *roadevent.ClassifiedEvent) error {
	postErr := r.post(ctx, e)
	r.offline.Store(postErr != nil)

	r.sinceReset.advance(e.Seq)
	if r.sinceReset.due(r.Config.PurgeEvery) {
		if err := r.purge(ctx); err != nil {
			r.logger.Warn("Remote clear failed", "error", err, "since", r.sinceReset.since)
		} else {
			r.logger.Info("Remote data cleared", "since", r.sinceReset.since)
			r.sinceReset.reset()
		}
	}
	return postErr
}

func (r *Remote) post(ctx context.Context, e *roadevent.ClassifiedEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Config.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req)
}

func (r *Remote) purge(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, r.Config.URL, nil)
	if err != nil {
		return err
	}
	return r.do(req)
}

func (r *Remote) do(req *http.Request) error {
	res, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Redacted(), res.Status)
	}
	return nil
}

func (r *Remote) Close() error {
	r.Client.CloseIdleConnections()
	return nil
}
