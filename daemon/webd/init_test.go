package webd

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/potholed/eventdb/boltdb"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// newTestWebDaemon creates a WebDaemon with private feeds and a fresh store,
// served by an httptest server.
func newTestWebDaemon(t *testing.T) (*WebDaemon, *httptest.Server) {
	t.Helper()
	d := NewWebDaemon(params.DefaultTestWebDaemonConfig())
	d.ClassifiedFeed = &event.FeedOf[*roadevent.ClassifiedEvent]{}
	d.StatusFeed = &event.FeedOf[string]{}

	store, err := boltdb.Open(filepath.Join(t.TempDir(), params.EventsStoreFileName), 20, false)
	if err != nil {
		t.Fatal(err)
	}
	d.Store = store

	srv := httptest.NewServer(d.NewRouter())
	t.Cleanup(func() {
		srv.Close()
		_ = d.melodyInstance.Close()
		store.Close()
	})
	return d, srv
}
