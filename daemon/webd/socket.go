package webd

import (
	"context"
	"encoding/json"
	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/potholed/types/roadevent"
)

type websocketAction string

const (
	websocketActionEvent  websocketAction = "event"
	websocketActionStatus websocketAction = "status"
)

type broadcast struct {
	Action websocketAction            `json:"action"`
	Event  *roadevent.ClassifiedEvent `json:"event,omitempty"`
	Status string                     `json:"status,omitempty"`
}

// initMelody sets up the websocket handler.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	// New clients get the last event right away.
	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Debug("Websocket connected", "remote", session.Request.RemoteAddr)
		if item := s.lastCache.Get(lastEventKey); item != nil {
			b, err := json.Marshal(broadcast{Action: websocketActionEvent, Event: item.Value()})
			if err == nil {
				_ = session.Write(b)
			}
		}
	})

	// Right now don't care about incoming messages from clients. Log and drop.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "msg", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Debug("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "error", e, "remote", session.Request.RemoteAddr)
	})
}

// subscribe caches and broadcasts pipeline output until ctx is done.
func (s *WebDaemon) subscribe(ctx context.Context) {
	classified := make(chan *roadevent.ClassifiedEvent, 16)
	statuses := make(chan string, 16)
	eventSub := s.ClassifiedFeed.Subscribe(classified)
	defer eventSub.Unsubscribe()
	statusSub := s.StatusFeed.Subscribe(statuses)
	defer statusSub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-classified:
			s.observeEvent(e)
		case line := <-statuses:
			s.observeStatus(line)
		case err := <-eventSub.Err():
			s.logger.Error("Event subscription failed", "error", err)
			return
		case err := <-statusSub.Err():
			s.logger.Error("Status subscription failed", "error", err)
			return
		}
	}
}

func (s *WebDaemon) observeEvent(e *roadevent.ClassifiedEvent) {
	s.lastCache.Set(lastEventKey, e, ttlcache.DefaultTTL)
	s.broadcast(broadcast{Action: websocketActionEvent, Event: e})
}

func (s *WebDaemon) observeStatus(line string) {
	s.lastStatus.Store(line)
	s.broadcast(broadcast{Action: websocketActionStatus, Status: line})
}

func (s *WebDaemon) broadcast(bc broadcast) {
	if s.melodyInstance.Len() == 0 {
		return
	}
	b, err := json.Marshal(bc)
	if err != nil {
		s.logger.Error("Failed to marshal broadcast", "error", err)
		return
	}
	if err := s.melodyInstance.Broadcast(b); err != nil {
		s.logger.Warn("Failed to broadcast", "error", err)
	}
}
