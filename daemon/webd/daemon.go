package webd

import (
	"context"
	"errors"
	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/potholed/eventdb/boltdb"
	"github.com/rotblauer/potholed/events"
	"github.com/rotblauer/potholed/metrics"
	"github.com/rotblauer/potholed/params"
	"github.com/rotblauer/potholed/types/roadevent"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"
)

const lastEventKey = "last"

// WebDaemon presents the live pipeline over HTTP and a websocket.
type WebDaemon struct {
	Config *params.WebDaemonConfig

	// Store, if set, serves hotspots.
	Store *boltdb.Store

	// Summary, if set, adds pipeline counters to the status report.
	Summary func() metrics.Summary

	ClassifiedFeed *event.FeedOf[*roadevent.ClassifiedEvent]
	StatusFeed     *event.FeedOf[string]

	logger         *slog.Logger
	started        time.Time
	melodyInstance *melody.Melody
	lastCache      *ttlcache.Cache[string, *roadevent.ClassifiedEvent]
	lastStatus     atomic.Value // string
}

func NewWebDaemon(config *params.WebDaemonConfig) *WebDaemon {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	s := &WebDaemon{
		Config:         config,
		ClassifiedFeed: &events.ClassifiedFeed,
		StatusFeed:     &events.StatusFeed,
		logger:         slog.With("d", "web"),
		started:        time.Now(),
		lastCache: ttlcache.New[string, *roadevent.ClassifiedEvent](
			ttlcache.WithTTL[string, *roadevent.ClassifiedEvent](config.LastEventTTL)),
	}
	s.lastStatus.Store("")
	s.initMelody()
	return s
}

// Run serves until ctx is done, then shuts the server down.
func (s *WebDaemon) Run(ctx context.Context) error {
	ln, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *WebDaemon) Serve(ctx context.Context, ln net.Listener) error {
	go s.lastCache.Start()
	defer s.lastCache.Stop()

	if s.Store != nil {
		if last, err := s.Store.LastEvent(); err == nil {
			s.lastCache.Set(lastEventKey, last, ttlcache.DefaultTTL)
		} else if !errors.Is(err, boltdb.ErrNoEvent) {
			s.logger.Warn("Failed to read last event", "error", err)
		}
	}

	go s.subscribe(ctx)

	server := &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.melodyInstance.Close()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Starting web daemon", "address", ln.Addr().String())
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	// Handle websocket.
	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = s.melodyInstance.HandleRequest(w, r)
	})

	apiRoutes := router.NewRoute().Subrouter()

	// All API routes use permissive CORS settings.
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/last").HandlerFunc(s.handleLast).Methods(http.MethodGet)
	apiJSONRoutes.Path("/hotspots").HandlerFunc(s.handleHotspots).Methods(http.MethodGet)

	return router
}
