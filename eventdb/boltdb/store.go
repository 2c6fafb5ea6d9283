/*
Package boltdb persists classified events and pothole hotspot counts in a local bbolt file.

Events are keyed by insertion sequence and may be purged; hotspots are
per-s2-cell pothole counts and are kept.
*/
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/golang/geo/s2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/rotblauer/potholed/types/roadevent"
	"go.etcd.io/bbolt"
	"sort"
	"time"
)

var (
	eventsBucket   = []byte("events")
	hotspotsBucket = []byte("hotspots")
	stateBucket    = []byte("state")

	lastEventKey = []byte("last")
)

const maxCellLevel = 30

var ErrNoEvent = errors.New("no event")

// OpenTimeout bounds the wait for the file lock held by another process.
var OpenTimeout = time.Second

type Store struct {
	DB        *bbolt.DB
	CellLevel int

	// cells is a write-through cache of hotspot counts.
	cells *lru.Cache[s2.CellID, uint64]
	rOnly bool
}

// Open opens or creates the store at path.
// A writable DB locks out all other writers and readers of the file;
// a second Open fails after OpenTimeout.
func Open(path string, cellLevel int, readOnly bool) (*Store, error) {
	if cellLevel < 0 || cellLevel > maxCellLevel {
		return nil, fmt.Errorf("invalid cell level: %d", cellLevel)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: readOnly, Timeout: OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			for _, b := range [][]byte{eventsBucket, hotspotsBucket, stateBucket} {
				if _, err := tx.CreateBucketIfNotExists(b); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	cells, err := lru.New[s2.CellID, uint64](10_000)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{DB: db, CellLevel: cellLevel, cells: cells, rOnly: readOnly}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// PutEvent appends an event and records it as the last event.
// Potholes with a position also increment their hotspot cell.
func (s *Store) PutEvent(e *roadevent.ClassifiedEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	var cell s2.CellID
	var count uint64
	err = s.DB.Update(func(tx *bbolt.Tx) error {
		events := tx.Bucket(eventsBucket)
		id, err := events.NextSequence()
		if err != nil {
			return err
		}
		if err := events.Put(itob(id), data); err != nil {
			return err
		}
		if err := tx.Bucket(stateBucket).Put(lastEventKey, data); err != nil {
			return err
		}
		if !e.IsPothole || !e.HasPosition() {
			return nil
		}
		cell = s.CellID(e.Lat, e.Lon)
		count, err = s.incrementCell(tx, cell)
		return err
	})
	if err == nil && cell != 0 {
		s.cells.Add(cell, count)
	}
	return err
}

func (s *Store) incrementCell(tx *bbolt.Tx, cell s2.CellID) (uint64, error) {
	b := tx.Bucket(hotspotsBucket)
	key := itob(uint64(cell))
	n, ok := s.cells.Get(cell)
	if !ok {
		if v := b.Get(key); v != nil {
			n = binary.BigEndian.Uint64(v)
		}
	}
	n++
	return n, b.Put(key, itob(n))
}

// CellID returns the hotspot cell containing the position.
func (s *Store) CellID(lat, lon float64) s2.CellID {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(s.CellLevel)
}

// PurgeEvents removes every stored event and returns how many were removed.
// Hotspot counts are kept.
func (s *Store) PurgeEvents() (int, error) {
	n := 0
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(eventsBucket).Stats().KeyN
		if err := tx.DeleteBucket(eventsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(eventsBucket)
		return err
	})
	return n, err
}

func (s *Store) CountEvents() (int, error) {
	n := 0
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		if b == nil {
			return nil
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

// ScanEvents calls fn with each stored event in insertion order until fn returns false.
func (s *Store) ScanEvents(fn func(*roadevent.ClassifiedEvent) bool) error {
	return s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			e := &roadevent.ClassifiedEvent{}
			if err := json.Unmarshal(v, e); err != nil {
				return fmt.Errorf("event %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if !fn(e) {
				return nil
			}
		}
		return nil
	})
}

func (s *Store) LastEvent() (*roadevent.ClassifiedEvent, error) {
	var got []byte
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(stateBucket)
		if b == nil {
			return nil
		}
		// Gotcha! The value returned by Get is only valid in the scope of the transaction.
		if v := b.Get(lastEventKey); v != nil {
			got = append([]byte{}, v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if got == nil {
		return nil, ErrNoEvent
	}
	e := &roadevent.ClassifiedEvent{}
	return e, json.Unmarshal(got, e)
}

type Hotspot struct {
	Cell  string  `json:"cell"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Count uint64  `json:"count"`
}

// Hotspots returns the cells with at least min potholes, most potholes first.
func (s *Store) Hotspots(min uint64) ([]Hotspot, error) {
	out := []Hotspot{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(hotspotsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			n := binary.BigEndian.Uint64(v)
			if n < min {
				return nil
			}
			cell := s2.CellID(binary.BigEndian.Uint64(k))
			ll := cell.LatLng()
			out = append(out, Hotspot{
				Cell:  cell.ToToken(),
				Lat:   ll.Lat.Degrees(),
				Lon:   ll.Lng.Degrees(),
				Count: n,
			})
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out, err
}

func (h Hotspot) Point() orb.Point {
	return orb.Point{h.Lon, h.Lat}
}
