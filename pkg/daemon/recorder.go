package daemon

import (
	"sync"
	"time"
)

// sampleRecorder remembers the last N sample times so the monitor can notice
// ticks that never fired, which on laptops usually means the system slept.
type sampleRecorder struct {
	maxRecordCount int
	sampleTimes    []time.Time
	mu             sync.Mutex
}

func newSampleRecorder(maxRecordCount int) *sampleRecorder {
	return &sampleRecorder{maxRecordCount: maxRecordCount}
}

func (r *sampleRecorder) add(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Round to strip the monotonic clock reading. The monotonic clock stops
	// during system sleep and would hide exactly the gaps we want to see.
	t = t.Round(0)

	if len(r.sampleTimes) >= r.maxRecordCount {
		r.sampleTimes = r.sampleTimes[1:]
	}
	r.sampleTimes = append(r.sampleTimes, t)
}

// gapSince returns the time elapsed between the last recorded sample and now.
// The second return is false when nothing was recorded yet.
func (r *sampleRecorder) gapSince(now time.Time) (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sampleTimes) == 0 {
		return 0, false
	}
	return now.Sub(r.sampleTimes[len(r.sampleTimes)-1]), true
}

// recentCount returns how many recorded samples fall within the last d.
func (r *sampleRecorder) recentCount(now time.Time, d time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for i := len(r.sampleTimes) - 1; i >= 0; i-- {
		if now.Sub(r.sampleTimes[i]) > d {
			break
		}
		count++
	}
	return count
}
