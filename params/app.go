package params

import (
	"os"
	"path/filepath"
)

var DefaultDatadirRoot = func() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".potholed")
}()

const (
	EventsStoreFileName   = "events.db"
	EventsArchiveFileName = "events.ndjson.gz"
)

var DefaultConfigFileName = ".potholed.yaml"
