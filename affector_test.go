package ember

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// runAffector prepares a against s and applies it to a particle at rest at
// pos with the given lifetime, at age seconds.
func runAffector(s *System, a *Affector, d *SpawnRecord, pos mgl32.Vec3, age float32) CurrentRecord {
	a.prepare(s)
	c := CurrentRecord{Position: pos, Scale: mgl32.Vec3{1, 1, 1}, Color: mgl32.Vec4{1, 1, 1, 1}}
	a.affect(s, d, &c, age)
	return c
}

func TestAffectorTypeString(t *testing.T) {
	if got := AffectorPointRotator.String(); got != "pointrotator" {
		t.Errorf("String = %q, want pointrotator", got)
	}
	if got := AffectorType(77).String(); got != "unknown" {
		t.Errorf("String = %q, want unknown", got)
	}
}

// --- Gravity ---

func TestGravity(t *testing.T) {
	s := newTestSystem()
	g := NewGravity("g", 10, mgl32.Vec3{0, -2, 0})
	c := runAffector(s, g, &SpawnRecord{Lifetime: 5}, mgl32.Vec3{}, 2)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{0, -20, 0})
	assertVec3Near(t, "velocity", c.Velocity, mgl32.Vec3{0, -20, 0})
}

func TestGravityFollowsNodeRotation(t *testing.T) {
	s := newTestSystem()
	g := NewGravity("g", 4, mgl32.Vec3{0, -1, 0})
	g.Node.SetRotation(0, 0, 90)
	s.Node.AddChild(g.Node)
	c := runAffector(s, g, &SpawnRecord{Lifetime: 5}, mgl32.Vec3{}, 1)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{2, 0, 0})
}

func TestGravityZeroDirection(t *testing.T) {
	s := newTestSystem()
	g := NewGravity("g", 4, mgl32.Vec3{})
	c := runAffector(s, g, &SpawnRecord{Lifetime: 5}, mgl32.Vec3{1, 2, 3}, 1)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{1, 2, 3})
}

func TestGravityInSystem(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 4, 0, 10000)
	e.Burst(1, 0)
	s.AddAffector(NewGravity("g", 10, mgl32.Vec3{0, -1, 0}))
	s.Tick(100)
	s.Tick(500)
	assertNear(t, "y", p.Buffer().Record(0)[1], -1.25)
}

// --- Attractor ---

func TestAttractorBlendsOverLifetime(t *testing.T) {
	s := newTestSystem()
	a := NewAttractor("a")
	a.Node.SetPosition(10, 0, 0)
	s.Node.AddChild(a.Node)
	d := &SpawnRecord{Lifetime: 2}

	prev := float32(10)
	for _, age := range []float32{0, 0.5, 1, 1.5, 2} {
		c := runAffector(s, a, d, mgl32.Vec3{}, age)
		dist := mgl32.Vec3{10, 0, 0}.Sub(c.Position).Len()
		if dist > prev+epsilon {
			t.Errorf("age %v: distance %v grew from %v", age, dist, prev)
		}
		prev = dist
	}
	c := runAffector(s, a, d, mgl32.Vec3{}, 1)
	assertVec3Near(t, "midpoint", c.Position, mgl32.Vec3{5, 0, 0})
	c = runAffector(s, a, d, mgl32.Vec3{}, 2)
	assertVec3Near(t, "end", c.Position, mgl32.Vec3{10, 0, 0})
}

func TestAttractorDuration(t *testing.T) {
	s := newTestSystem()
	a := NewAttractor("a")
	a.Node.SetPosition(0, 4, 0)
	a.Duration = 500
	a.HideAtEnd = true
	d := &SpawnRecord{Lifetime: 10}

	c := runAffector(s, a, d, mgl32.Vec3{}, 0.25)
	assertVec3Near(t, "halfway", c.Position, mgl32.Vec3{0, 2, 0})
	assertNear(t, "alpha", c.Color[3], 1)

	c = runAffector(s, a, d, mgl32.Vec3{}, 1)
	assertVec3Near(t, "arrived", c.Position, mgl32.Vec3{0, 4, 0})
	assertNear(t, "hidden alpha", c.Color[3], 0)
}

func TestAttractorZeroDurationSnaps(t *testing.T) {
	s := newTestSystem()
	a := NewAttractor("a")
	a.Node.SetPosition(3, 0, 0)
	a.Duration = 0
	c := runAffector(s, a, &SpawnRecord{Lifetime: 1}, mgl32.Vec3{}, 0)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{3, 0, 0})
}

func TestAttractorCachedPositions(t *testing.T) {
	s := newTestSystem()
	a := NewAttractor("a")
	sh := NewSphereShape(mgl32.Vec3{5, 5, 5}, false)
	a.SetShape(sh)
	if sh.Parent != a.Node {
		t.Fatal("SetShape should parent the shape to the affector node")
	}
	a.UseCachedPositions = true
	a.PositionsAmount = 4
	a.Duration = 0

	c1 := runAffector(s, a, &SpawnRecord{Index: 1, Lifetime: 1}, mgl32.Vec3{}, 0)
	c5 := runAffector(s, a, &SpawnRecord{Index: 5, Lifetime: 1}, mgl32.Vec3{}, 0)
	if len(a.cache) != 4 {
		t.Fatalf("cache size = %d, want 4", len(a.cache))
	}
	assertVec3Near(t, "shared target", c5.Position, c1.Position)
	assertNear(t, "radius", c1.Position.Len(), 5)

	sh.Invalidate()
	a.prepare(s)
	if a.cacheVersion != sh.version {
		t.Errorf("cacheVersion = %d, want %d after Invalidate", a.cacheVersion, sh.version)
	}
}

func TestAttractorPositionVariation(t *testing.T) {
	s := newTestSystem()
	a := NewAttractor("a")
	a.Duration = 0
	a.PositionVariation = mgl32.Vec3{1, 0, 0}
	for i := int32(0); i < 50; i++ {
		c := runAffector(s, a, &SpawnRecord{Index: i, Lifetime: 1}, mgl32.Vec3{}, 0)
		if c.Position[0] < -1 || c.Position[0] > 1 || c.Position[1] != 0 {
			t.Fatalf("target %v outside variation", c.Position)
		}
	}
}

// --- Wander ---

func TestWanderGlobalWave(t *testing.T) {
	s := newTestSystem()
	w := NewWander("w")
	w.GlobalAmount = mgl32.Vec3{2, 0, 0}
	w.GlobalPace = mgl32.Vec3{1, 0, 0}
	c := runAffector(s, w, &SpawnRecord{Lifetime: 10}, mgl32.Vec3{}, 0.25)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{2, 0, 0})
}

func TestWanderUniqueBounded(t *testing.T) {
	s := newTestSystem()
	w := NewWander("w")
	w.UniqueAmount = mgl32.Vec3{0, 1, 0}
	w.UniquePace = mgl32.Vec3{0, 2, 0}
	w.UniqueAmountVariation = 0.5
	distinct := map[float32]bool{}
	for i := int32(0); i < 20; i++ {
		c := runAffector(s, w, &SpawnRecord{Index: i, Lifetime: 10}, mgl32.Vec3{}, 0.3)
		if y := c.Position[1]; y < -1.5 || y > 1.5 {
			t.Fatalf("offset %v exceeds amount", y)
		}
		distinct[c.Position[1]] = true
	}
	if len(distinct) < 10 {
		t.Errorf("only %d distinct offsets across 20 particles", len(distinct))
	}
}

func TestWanderFade(t *testing.T) {
	w := NewWander("w")
	w.FadeInDuration = 100
	w.FadeOutDuration = 200
	tests := []struct {
		age, left, want float32
	}{
		{0, 5, 0},
		{0.05, 5, 0.5},
		{1, 5, 1},
		{1, 0.1, 0.5},
	}
	for _, tt := range tests {
		assertNear(t, "wanderFade", w.wanderFade(tt.age, tt.left), tt.want)
	}
	w.FadeEase = ease.InQuad
	assertNear(t, "eased", w.wanderFade(0.05, 5), 0.25)
}

// --- Point rotator ---

func TestPointRotator(t *testing.T) {
	s := newTestSystem()
	r := NewPointRotator("r", mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 90)
	c := runAffector(s, r, &SpawnRecord{Lifetime: 5}, mgl32.Vec3{1, 0, 0}, 1)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{0, 0, -1})
}

func TestPointRotatorPivot(t *testing.T) {
	s := newTestSystem()
	r := NewPointRotator("r", mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, 180)
	r.Node.SetPosition(1, 0, 0)
	c := runAffector(s, r, &SpawnRecord{Lifetime: 5}, mgl32.Vec3{3, 0, 0}, 1)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{1, 0, 0})
}

// --- Noise ---

func TestNoiseDeterministicPerSeed(t *testing.T) {
	run := func(seed uint32) mgl32.Vec3 {
		s := newTestSystem()
		s.SetSeed(seed)
		n := NewNoise("n", mgl32.Vec3{1, 1, 1}, 0.7)
		return runAffector(s, n, &SpawnRecord{Index: 3, Lifetime: 5}, mgl32.Vec3{0.3, 1.1, 2.7}, 0.4).Position
	}
	a, b := run(9), run(9)
	if a != b {
		t.Errorf("same seed: %v vs %v", a, b)
	}
	if c := run(10); c == a {
		t.Errorf("different seeds gave identical offsets %v", c)
	}
}

func TestNoiseZeroAmount(t *testing.T) {
	s := newTestSystem()
	n := NewNoise("n", mgl32.Vec3{}, 1)
	c := runAffector(s, n, &SpawnRecord{Lifetime: 5}, mgl32.Vec3{1, 2, 3}, 0.5)
	assertVec3Near(t, "position", c.Position, mgl32.Vec3{1, 2, 3})
}

// --- Chain ---

func TestAffectorAppliesTo(t *testing.T) {
	a := NewGravity("g", 1, mgl32.Vec3{0, -1, 0})
	if !a.appliesTo(3) {
		t.Error("empty filter should apply to every kind")
	}
	a.Particles = []ParticleHandle{1}
	if a.appliesTo(0) || !a.appliesTo(1) {
		t.Error("filter should only match handle 1")
	}
}

func TestAffectorFilterInSystem(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 4, 0, 10000)
	e.Burst(1, 0)
	g := NewGravity("g", 10, mgl32.Vec3{0, -1, 0})
	g.Particles = []ParticleHandle{p.Handle() + 1}
	s.AddAffector(g)
	s.Tick(100)
	s.Tick(500)
	assertNear(t, "y", p.Buffer().Record(0)[1], 0)
}

func TestDisabledAffectorSkipped(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 4, 0, 10000)
	e.Burst(1, 0)
	g := NewGravity("g", 10, mgl32.Vec3{0, -1, 0})
	g.Enabled = false
	s.AddAffector(g)
	s.Tick(100)
	s.Tick(500)
	assertNear(t, "y", p.Buffer().Record(0)[1], 0)
}

func TestAffectorChainOrder(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 4, 0, 10000)
	e.Burst(1, 0)
	e.Node.SetPosition(1, 0, 0)
	s.AddAffector(NewPointRotator("r", mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 90))
	a := NewAttractor("a")
	a.Duration = 0
	a.Node.SetPosition(0, 5, 0)
	s.AddAffector(a)
	s.Tick(100)
	s.Tick(1000)
	// The attractor runs last and wins.
	rec := p.Buffer().Record(0)
	assertVec3Near(t, "position", mgl32.Vec3{rec[0], rec[1], rec[2]}, mgl32.Vec3{0, 5, 0})
}

func TestUnknownAffectorPanicsInDebug(t *testing.T) {
	s := newTestSystem()
	s.SetDebugMode(true)
	defer s.SetDebugMode(false)
	a := NewGravity("g", 1, mgl32.Vec3{0, -1, 0})
	a.Type = 99
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	runAffector(s, a, &SpawnRecord{Lifetime: 1}, mgl32.Vec3{}, 0)
}
