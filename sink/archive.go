package sink

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"github.com/rotblauer/potholed/eventdb/flat"
	"github.com/rotblauer/potholed/types/roadevent"
)

// Archive appends every event as a JSON line to a gzipped file.
type Archive struct {
	w   *flat.Appender
	enc *json.Encoder
}

func NewArchive(path string) (*Archive, error) {
	w, err := flat.OpenAppender(path, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	return &Archive{w: w, enc: json.NewEncoder(w)}, nil
}

func (a *Archive) Name() string { return "archive" }

func (a *Archive) Handle(_ context.Context, e *roadevent.ClassifiedEvent) error {
	return a.enc.Encode(e)
}

func (a *Archive) Path() string {
	return a.w.Path()
}

func (a *Archive) Close() error {
	return a.w.Close()
}
