package scan

import (
	"sync"
	"time"

	"github.com/getlantern/golog"
)

// timings tracks how long ruleset lookups take across all workers.
type timings struct {
	mx        sync.Mutex
	runs      int64
	totalTime time.Duration
	max       time.Duration
	maxURL    string
}

func (s *timings) add(url string, dur time.Duration) {
	s.mx.Lock()
	s.runs++
	s.totalTime += dur
	if dur > s.max {
		s.max = dur
		s.maxURL = url
	}
	s.mx.Unlock()
}

// Average returns the mean lookup time, zero before any lookup.
func (s *timings) Average() time.Duration {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.runs == 0 {
		return 0
	}
	return s.totalTime / time.Duration(s.runs)
}

func (s *timings) log(log golog.Logger) {
	s.mx.Lock()
	runs, max, maxURL := s.runs, s.max, s.maxURL
	s.mx.Unlock()
	if runs == 0 {
		return
	}
	log.Debugf("Average lookup time: %v over %v urls", s.Average(), runs)
	log.Debugf("Max lookup time: %v for url: %v", max, maxURL)
}
