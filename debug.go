package ember

import (
	"fmt"
	"time"
)

// globalDebug enables extra checks in code that has no System at hand.
// Set through System.SetDebugMode.
var globalDebug bool

// Stats holds lightweight counters sampled by every update.
type Stats struct {
	ParticlesMax  int
	ParticlesUsed int
	Updates       int
	LastUpdate    time.Duration
	TotalUpdate   time.Duration
}

// AverageUpdate returns the mean update duration.
func (st Stats) AverageUpdate() time.Duration {
	if st.Updates == 0 {
		return 0
	}
	return st.TotalUpdate / time.Duration(st.Updates)
}

// Stats returns the counters as of the last update.
func (s *System) Stats() Stats { return s.stats }

// SetLogging prints a stats line every n updates. 0 disables it.
func (s *System) SetLogging(n int) {
	if n < 0 {
		n = 0
	}
	s.logEvery = n
}

// SetDebugMode enables panics on programmer errors (unknown enum values,
// tree depth warnings).
func (s *System) SetDebugMode(v bool) {
	s.debug = v
	globalDebug = v
}

func (s *System) recordUpdate(d time.Duration) {
	s.stats.Updates++
	s.stats.LastUpdate = d
	s.stats.TotalUpdate += d
	if s.logEvery > 0 && s.stats.Updates%s.logEvery == 0 {
		s.logStats()
	}
}

// logStats prints the counters to LogOutput.
func (s *System) logStats() {
	st := s.stats
	_, _ = fmt.Fprintf(LogOutput,
		"[ember] time: %dms | particles: %d/%d | update: %v | avg: %v | updates: %d\n",
		s.time, st.ParticlesUsed, st.ParticlesMax, st.LastUpdate, st.AverageUpdate(), st.Updates)
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		warnf("tree depth %d exceeds %d (node %q)", depth, debugMaxTreeDepth, n.Name)
	}
}
