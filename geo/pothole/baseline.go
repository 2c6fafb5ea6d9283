package pothole

import (
	"github.com/montanaflynn/stats"
	"github.com/rotblauer/potholed/common"
	"github.com/rotblauer/potholed/params"
)

// BaselineState is a strict sliding window over the most recent filtered samples.
// Baseline is the mean of the window whenever the window is non-empty,
// otherwise it keeps its last value.
type BaselineState struct {
	Window   *common.RingBuffer[float64]
	Baseline float64
}

func NewBaselineState(config *params.DetectorConfig) BaselineState {
	return BaselineState{
		Window:   common.NewRingBuffer[float64](config.BaselineWindow),
		Baseline: config.InitialFilteredZ,
	}
}

// BaselineEstimator averages the window. At a 0.5s cadence and 10 samples
// the baseline lags gravity by about 5s, so short pothole transients
// do not drag it along.
//
// A NaN entering the window makes the mean NaN until it is evicted;
// the detector never classifies a NaN deviation as a pothole.
type BaselineEstimator struct{}

func NewBaselineEstimator() *BaselineEstimator {
	return &BaselineEstimator{}
}

// Update appends filteredZ, evicting the oldest value beyond the window size,
// and returns the recomputed baseline.
func (b *BaselineEstimator) Update(s *BaselineState, filteredZ float64) float64 {
	s.Window.Add(filteredZ)
	mean, err := stats.Float64Data(s.Window.Get()).Mean()
	if err != nil {
		return s.Baseline
	}
	s.Baseline = mean
	return s.Baseline
}
