package sink

import (
	"context"
	"github.com/rotblauer/potholed/eventdb/boltdb"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"log/slog"
)

// Store keeps events and hotspot counts in a local bbolt database.
type Store struct {
	DB     *boltdb.Store
	Config *params.StoreSinkConfig

	sinceReset purgeCounter
	// leaveOpen is set when the database belongs to someone else, e.g. the web daemon.
	leaveOpen bool
}

func NewStore(config *params.StoreSinkConfig) (*Store, error) {
	db, err := boltdb.Open(config.Path, config.HotspotCellLevel, false)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, Config: config}, nil
}

// NewStoreWithDB uses an already open database; Close leaves it open.
func NewStoreWithDB(db *boltdb.Store, config *params.StoreSinkConfig) *Store {
	return &Store{DB: db, Config: config, leaveOpen: true}
}

func (s *Store) Name() string { return "store" }

func (s *Store) Handle(_ context.Context, e *roadevent.ClassifiedEvent) error {
	if err := s.DB.PutEvent(e); err != nil {
		return err
	}
	s.sinceReset.advance(e.Seq)
	if s.sinceReset.due(s.Config.PurgeEvery) {
		n, err := s.DB.PurgeEvents()
		if err != nil {
			return err
		}
		slog.Debug("Purged stored events", "n", n)
		s.sinceReset.reset()
	}
	return nil
}

func (s *Store) Close() error {
	if s.leaveOpen {
		return nil
	}
	return s.DB.Close()
}
