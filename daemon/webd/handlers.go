package webd

import (
	"encoding/json"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/potholed/metrics"
	"github.com/rotblauer/potholed/params"
	"net/http"
	"strconv"
	"time"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time               `json:"started_at"`
	Uptime    string                  `json:"uptime"`
	Config    *params.WebDaemonConfig `json:"config"`
	WSOpen    bool                    `json:"ws_open"`
	WSConns   int                     `json:"ws_conns"`
	Status    string                  `json:"status,omitempty"`
	Pipeline  *metrics.Summary        `json:"pipeline,omitempty"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Config:    s.Config,
		Status:    s.lastStatus.Load().(string),
	}
	if s.Summary != nil {
		sum := s.Summary()
		st.Pipeline = &sum
	}
	j, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal status", "error", err)
		http.Error(w, "Failed to marshal status", http.StatusInternalServerError)
		return
	}
	if _, err = w.Write(j); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

// handleLast returns the most recent event, or 204 if none was seen within the cache TTL.
func (s *WebDaemon) handleLast(w http.ResponseWriter, r *http.Request) {
	item := s.lastCache.Get(lastEventKey)
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := json.NewEncoder(w).Encode(item.Value()); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

// handleHotspots returns pothole hotspot cells as a GeoJSON FeatureCollection.
// ?min=N limits the result to cells with at least N potholes.
func (s *WebDaemon) handleHotspots(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "No event store", http.StatusNotFound)
		return
	}
	min := uint64(1)
	if v := r.URL.Query().Get("min"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "Invalid min", http.StatusBadRequest)
			return
		}
		min = n
	}
	spots, err := s.Store.Hotspots(min)
	if err != nil {
		s.logger.Warn("Failed to read hotspots", "error", err)
		http.Error(w, "Failed to read hotspots", http.StatusInternalServerError)
		return
	}
	fc := geojson.NewFeatureCollection()
	for _, h := range spots {
		f := geojson.NewFeature(h.Point())
		f.Properties["Cell"] = h.Cell
		f.Properties["Count"] = h.Count
		fc.Append(f)
	}
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}
