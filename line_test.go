package ember

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func addLines(s *System, segments int, lifeMs int) (*Particle, *Emitter) {
	p := NewLineParticle("lines", 4, segments)
	p.FadeInEffect = FadeNone
	p.FadeOutEffect = FadeNone
	h := s.AddParticle(p)
	e := NewEmitter("e", h)
	e.LifeSpan = lifeMs
	e.Velocity = NewVectorDirection(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{})
	s.AddEmitter(e)
	e.Burst(1, 0)
	return p, e
}

func TestLineHistoryGrowsToSegmentCount(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 4, 10000)
	p.Line.LengthDeltaMin = 0.5

	for i, want := range []int{1, 2, 3, 4, 4} {
		s.Tick(100)
		if got := len(p.LineHistory(0)); got != want {
			t.Errorf("tick %d: history = %d, want %d", i, got, want)
		}
	}
	hist := p.LineHistory(0)
	for i, want := range []float32{1, 2, 3, 4} {
		assertNear(t, "x", hist[i].Position[0], want)
	}
}

func TestLineBufferPacksPoints(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 4, 10000)
	p.Line.LengthDeltaMin = 0.5
	p.Line.AlphaFade = 1
	for i := 0; i < 5; i++ {
		s.Tick(100)
	}

	buf := p.Buffer()
	if buf.Count() != p.LinePoints() {
		t.Fatalf("Count = %d, want %d", buf.Count(), p.LinePoints())
	}
	head := buf.Record(0)
	assertNear(t, "head x", head[0], 4)
	assertNear(t, "head alpha", head[9], 1)
	assertNear(t, "head u", head[11], 4)
	tail := buf.Record(3)
	assertNear(t, "tail x", tail[0], 1)
	assertNear(t, "tail alpha", tail[9], 0)
	// The unused last point repeats the tail.
	assertNear(t, "pad x", buf.Record(4)[0], 1)
}

func TestLineSkipsSmallMoves(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 4, 10000)
	p.Line.LengthDeltaMin = 5
	for i := 0; i < 3; i++ {
		s.Tick(100)
	}
	// Moved 2 units, less than LengthDeltaMin.
	if got := len(p.LineHistory(0)); got != 1 {
		t.Errorf("history = %d, want 1", got)
	}
	// The live head is still packed ahead of the history.
	assertNear(t, "head x", p.Buffer().Record(0)[0], 2)
}

func TestLineFixedLengthSpacing(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 4, 10000)
	p.Line.Length = 2
	s.Tick(100)
	s.Tick(100)

	hist := p.LineHistory(0)
	if len(hist) != 3 {
		t.Fatalf("history = %d, want 3", len(hist))
	}
	for i := 1; i < len(hist); i++ {
		assertNear(t, "spacing", hist[i].Position[0]-hist[i-1].Position[0], 0.5)
	}
}

func TestLineBinormalPerpendicular(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 2, 10000)
	p.Line.LengthDeltaMin = 0.1
	s.Tick(100)
	s.Tick(100)
	b := mgl32.Vec3{p.Buffer().Record(0)[3], p.Buffer().Record(0)[4], p.Buffer().Record(0)[5]}
	assertNear(t, "binormal length", b.Len(), 1)
	assertNear(t, "binormal dot tangent", b.Dot(mgl32.Vec3{1, 0, 0}), 0)
}

func TestLineEOLFadeOut(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 4, 250)
	p.Line.LengthDeltaMin = 0.1
	p.Line.EOLFadeOutDuration = 200

	s.Tick(100) // born at 100ms, dies at 350ms
	s.Tick(100)
	s.Tick(100)
	if p.Alive() != 1 || p.FadingTrails() != 0 {
		t.Fatalf("at 300ms: alive %d fading %d, want 1 and 0", p.Alive(), p.FadingTrails())
	}

	s.Tick(100)
	if p.Alive() != 0 || p.FadingTrails() != 1 {
		t.Fatalf("at 400ms: alive %d fading %d, want 0 and 1", p.Alive(), p.FadingTrails())
	}
	assertNear(t, "alpha", p.Buffer().Record(0)[9], 0.75)

	s.Tick(100)
	assertNear(t, "alpha", p.Buffer().Record(0)[9], 0.25)

	s.Tick(100)
	if p.FadingTrails() != 0 || p.Buffer().Count() != 0 {
		t.Errorf("at 600ms: fading %d count %d, want 0 and 0", p.FadingTrails(), p.Buffer().Count())
	}
}

func TestLineTrailContinuity(t *testing.T) {
	s := newTestSystem()
	p, e := addLines(s, 8, 10000)
	p.Line.LengthDeltaMin = 0.05
	e.Velocity = NewVectorDirection(mgl32.Vec3{3, 4, 0}, mgl32.Vec3{})
	const speed = 5

	s.Tick(16) // born at 16ms
	for i := 0; i < 30; i++ {
		s.Tick(16)
	}

	hist := p.LineHistory(0)
	if len(hist) != 8 {
		t.Fatalf("history = %d, want 8", len(hist))
	}
	dir := mgl32.Vec3{0.6, 0.8, 0}
	for i := 1; i < len(hist); i++ {
		step := hist[i].Position.Sub(hist[i-1].Position)
		if cross := step.Normalize().Cross(dir).Len(); cross > 1e-3 {
			t.Errorf("segment %d direction %v is not colinear with %v", i, step, dir)
		}
		if d := hist[i].Length - hist[i-1].Length - step.Len(); math.Abs(float64(d)) > 1e-3 {
			t.Errorf("segment %d: length step off by %v", i, d)
		}
	}
	elapsed := float32(s.Time()-16) / 1000
	if got, want := hist[len(hist)-1].Length, speed*elapsed; math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("head Length = %v, want %v", got, want)
	}
}

func TestLineEOLFadeOutOnReusedSlot(t *testing.T) {
	s := newTestSystem()
	p := NewLineParticle("lines", 1, 4)
	p.FadeInEffect = FadeNone
	p.FadeOutEffect = FadeNone
	p.Line.LengthDeltaMin = 0.1
	p.Line.EOLFadeOutDuration = 500
	h := s.AddParticle(p)
	e := NewEmitter("e", h)
	e.LifeSpan = 250
	e.Velocity = NewVectorDirection(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{})
	s.AddEmitter(e)

	e.Burst(1, 0)
	s.Tick(100) // born at 100ms, dies at 350ms
	s.Tick(100)
	s.Tick(100)
	e.Burst(1, 0) // takes the only slot in the frame the first trail dies
	s.Tick(100)

	if p.Alive() != 1 || p.FadingTrails() != 1 {
		t.Fatalf("at 400ms: alive %d fading %d, want 1 and 1", p.Alive(), p.FadingTrails())
	}
	n := p.LinePoints()
	if got := p.Buffer().Count(); got != 2*n {
		t.Fatalf("records = %d, want %d", got, 2*n)
	}
	// Echo written after the live trail, fading from the old death time.
	assertNear(t, "alpha", p.Buffer().Record(n)[9], 0.9)
}

func TestLineWithoutEOLDropsImmediately(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 4, 150)
	s.Tick(100)
	s.Tick(100)
	s.Tick(100)
	if p.FadingTrails() != 0 || p.Buffer().Count() != 0 {
		t.Errorf("fading %d count %d, want 0 and 0", p.FadingTrails(), p.Buffer().Count())
	}
}

func TestLineTexcoordModes(t *testing.T) {
	points := []LineSample{{Length: 3}, {Length: 2}, {Length: 1}}
	tests := []struct {
		mode TexcoordMode
		want []float32
	}{
		{TexcoordAbsolute, []float32{3, 2, 1}},
		{TexcoordRelative, []float32{0, 1, 2}},
		{TexcoordFill, []float32{0, 0.5, 1}},
	}
	for _, tt := range tests {
		p := NewLineParticle("l", 1, 2)
		p.Line.TexcoordMode = tt.mode
		p.buffer.begin(0)
		p.writeLine(points, 1)
		p.buffer.Commit()
		for i, w := range tt.want {
			assertNear(t, "u", p.Buffer().Record(i)[11], w)
		}
	}
}

func TestLineSeekBackResetsHistory(t *testing.T) {
	s := newTestSystem()
	p, _ := addLines(s, 4, 10000)
	p.Line.LengthDeltaMin = 0.5
	for i := 0; i < 4; i++ {
		s.Tick(100)
	}
	s.SetTime(250)
	if got := len(p.LineHistory(0)); got != 1 {
		t.Errorf("history after seek back = %d, want 1", got)
	}
}
