package metrics

import (
	"github.com/rotblauer/potholed/types/roadevent"
	"testing"
)

func TestPipelineMeters(t *testing.T) {
	m := NewPipelineMeters()
	defer m.Stop()

	m.MarkEvent(&roadevent.ClassifiedEvent{})
	m.MarkEvent(&roadevent.ClassifiedEvent{IsPothole: true})
	m.MarkSkipped()
	m.MarkFix()
	m.MarkFix()
	m.MarkSinkError()

	s := m.Snapshot()
	want := Summary{Processed: 2, Potholes: 1, Skipped: 1, Fixes: 2, SinkErrors: 1}
	s.Rate1 = 0
	if s != want {
		t.Errorf("Expected %+v, but got %+v", want, s)
	}
}
