package ember

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// captureLog redirects LogOutput for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := LogOutput
	LogOutput = &buf
	t.Cleanup(func() { LogOutput = old })
	return &buf
}

func countLines(s, substr string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func TestWarnfPrefix(t *testing.T) {
	buf := captureLog(t)
	warnf("value %d", 3)
	if got := buf.String(); got != "[ember] warning: value 3\n" {
		t.Errorf("warnf = %q", got)
	}
}

func TestStatsAverageUpdate(t *testing.T) {
	var st Stats
	if st.AverageUpdate() != 0 {
		t.Errorf("AverageUpdate with no updates = %v, want 0", st.AverageUpdate())
	}
	st = Stats{Updates: 4, TotalUpdate: 8 * time.Millisecond}
	if got := st.AverageUpdate(); got != 2*time.Millisecond {
		t.Errorf("AverageUpdate = %v, want 2ms", got)
	}
}

func TestStatsCounters(t *testing.T) {
	s := newTestSystem()
	addSprites(s, 50, 100, 10000)
	s.Tick(100)
	s.Tick(100)

	st := s.Stats()
	if st.Updates != 2 {
		t.Errorf("Updates = %d, want 2", st.Updates)
	}
	if st.ParticlesMax != 50 {
		t.Errorf("ParticlesMax = %d, want 50", st.ParticlesMax)
	}
	if st.ParticlesUsed != 20 {
		t.Errorf("ParticlesUsed = %d, want 20", st.ParticlesUsed)
	}
}

func TestSetLogging(t *testing.T) {
	buf := captureLog(t)
	s := newTestSystem()
	s.SetLogging(2)
	for i := 0; i < 5; i++ {
		s.Tick(16)
	}
	if got := countLines(buf.String(), "[ember] time:"); got != 2 {
		t.Errorf("stats lines = %d, want 2:\n%s", got, buf.String())
	}

	buf.Reset()
	s.SetLogging(-1)
	s.Tick(16)
	s.Tick(16)
	if buf.Len() != 0 {
		t.Errorf("logging disabled but got %q", buf.String())
	}
}

func TestDebugModeUnknownParticleTypePanics(t *testing.T) {
	s := newTestSystem()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)
	p := NewSpriteParticle("bad", 1)
	p.Type = 42
	s.AddParticle(p)
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	s.Tick(16)
}

func TestUnknownParticleTypeIgnoredWithoutDebug(t *testing.T) {
	s := newTestSystem()
	p := NewSpriteParticle("bad", 1)
	p.Type = 42
	s.AddParticle(p)
	s.Tick(16)
	if p.Buffer().Count() != 0 {
		t.Errorf("Count = %d, want 0", p.Buffer().Count())
	}
}
