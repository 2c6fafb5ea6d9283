package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/potholed/types/roadevent"
)

// ClassifiedFeed is emitted for every event the pipeline produces, one per processed sample.
// Send blocks until every subscriber has received the value,
// so subscribers should read from buffered channels and hand off slow work.
var ClassifiedFeed = event.FeedOf[*roadevent.ClassifiedEvent]{}

// StatusFeed carries the human-readable status line for the latest event.
var StatusFeed = event.FeedOf[string]{}
