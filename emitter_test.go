package ember

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// newTestSystem returns a running system with a fixed seed.
func newTestSystem() *System {
	s := NewSystem(DefaultConfig())
	s.SetSeed(1)
	s.SetUseRandomSeed(false)
	s.SetRunning(true)
	return s
}

// addSprites registers a sprite kind and an emitter feeding it.
func addSprites(s *System, max int, rate float32, lifeMs int) (*Particle, *Emitter) {
	p := NewSpriteParticle("sprites", max)
	h := s.AddParticle(p)
	e := NewEmitter("emitter", h)
	e.EmitRate = rate
	e.LifeSpan = lifeMs
	s.Node.AddChild(e.Node)
	s.AddEmitter(e)
	return p, e
}

func countUsed(p *Particle) int {
	n := 0
	for i := range p.Records() {
		if p.Records()[i].Used() {
			n++
		}
	}
	return n
}

func collectEvents(s *System) *[]Event {
	var events []Event
	s.SetEventSink(EventSinkFunc(func(e Event) { events = append(events, e) }))
	return &events
}

func TestEmitterDefaults(t *testing.T) {
	e := NewEmitter("e", 0)
	if !e.Enabled() {
		t.Error("new emitter should be enabled")
	}
	if e.IsTrail() {
		t.Error("plain emitter should not be a trail")
	}
	if e.LifeSpan != 1000 {
		t.Errorf("LifeSpan = %d, want 1000", e.LifeSpan)
	}
	if e.ParticleEndScale >= 0 {
		t.Errorf("ParticleEndScale = %v, want negative (use start scale)", e.ParticleEndScale)
	}
	if e.Handle() != -1 {
		t.Errorf("Handle = %d, want -1 before AddEmitter", e.Handle())
	}
	if !NewTrailEmitter("t", 0, 1).IsTrail() {
		t.Error("trail emitter should report IsTrail")
	}
}

func TestContinuousRateAccumulatesFractions(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 1000, 140, 10000)
	for i := 0; i < 100; i++ {
		s.Tick(16)
	}
	// 1.6 s at 140/s. Each 16ms frame owes 2.24 particles.
	if got := countUsed(p); got != 224 {
		t.Errorf("emitted = %d, want 224", got)
	}

	e.SetEnabled(false)
	s.Tick(16)
	if got := p.Alive(); got != 224 {
		t.Errorf("Alive = %d, want 224", got)
	}
}

func TestSlowRateCarriesAcrossFrames(t *testing.T) {
	s := newTestSystem()
	p, _ := addSprites(s, 100, 10, 10000)
	for i := 0; i < 6; i++ {
		s.Tick(16)
	}
	// 96ms at 10/s is less than one particle.
	if got := countUsed(p); got != 0 {
		t.Errorf("emitted after 96ms = %d, want 0", got)
	}
	s.Tick(16)
	if got := countUsed(p); got != 1 {
		t.Errorf("emitted after 112ms = %d, want 1", got)
	}
}

func TestEmissionClampedToCapacity(t *testing.T) {
	s := newTestSystem()
	p, _ := addSprites(s, 10, 1000, 10000)
	s.Tick(100)
	if got := countUsed(p); got != 10 {
		t.Errorf("used = %d, want 10", got)
	}
	if got := p.Alive(); got > 10 {
		t.Errorf("Alive = %d, exceeds capacity 10", got)
	}
}

func TestSpreadStartTimes(t *testing.T) {
	s := newTestSystem()
	p, _ := addSprites(s, 10, 50, 10000)
	s.Tick(100)
	// 5 particles spread over (0, 100ms].
	want := []float32{0.02, 0.04, 0.06, 0.08, 0.1}
	for i, w := range want {
		assertNear(t, "StartTime", p.Records()[i].StartTime, w)
	}
}

func TestReEnableDoesNotCatchUp(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 500, 100, 100000)
	s.Tick(100)
	if got := countUsed(p); got != 10 {
		t.Fatalf("emitted = %d, want 10", got)
	}

	e.SetEnabled(false)
	s.Tick(1000)
	if got := countUsed(p); got != 10 {
		t.Errorf("emitted while disabled = %d, want 10", got)
	}

	e.SetEnabled(true)
	s.Tick(100)
	if got := countUsed(p); got != 10 {
		t.Errorf("emitted on re-enable frame = %d, want 10", got)
	}
	s.Tick(100)
	if got := countUsed(p); got != 20 {
		t.Errorf("emitted after re-enable = %d, want 20", got)
	}
}

func TestStaticBurst(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 10, 0, 1000)
	e.AddEmitBurst(EmitBurst{Time: 100, Amount: 5, Duration: 100})
	s.Tick(16)

	if got := countUsed(p); got != 5 {
		t.Fatalf("used = %d, want 5", got)
	}
	for i := 0; i < 5; i++ {
		assertNear(t, "StartTime", p.Records()[i].StartTime, 0.1+float32(i)*0.02)
	}
	if p.Alive() != 0 {
		t.Errorf("Alive at 16ms = %d, want 0 (burst starts at 100ms)", p.Alive())
	}
	s.Tick(134)
	if p.Alive() != 3 {
		t.Errorf("Alive at 150ms = %d, want 3", p.Alive())
	}
}

func TestStaticBurstSlotsReserved(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 10, 100, 1000)
	e.AddEmitBurst(EmitBurst{Amount: 5})
	s.Tick(100)

	// 10 continuous particles cycle through slots 5..9 only.
	for i := 0; i < 5; i++ {
		if st := p.Records()[i].StartTime; st != 0 {
			t.Errorf("burst slot %d StartTime = %v, want 0", i, st)
		}
	}
	for i := 5; i < 10; i++ {
		if st := p.Records()[i].StartTime; st <= 0 {
			t.Errorf("slot %d StartTime = %v, want > 0", i, st)
		}
	}
	if p.lastBurstIndex != 5 {
		t.Errorf("lastBurstIndex = %d, want 5", p.lastBurstIndex)
	}
}

func TestStaticBurstClampedToCapacity(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 4, 0, 1000)
	e.AddEmitBurst(EmitBurst{Amount: 3})
	e.AddEmitBurst(EmitBurst{Amount: 3})
	s.Tick(16)
	if got := countUsed(p); got != 4 {
		t.Errorf("used = %d, want 4", got)
	}
}

func TestRuntimeBurstImmediate(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 100, 0, 1000)
	events := collectEvents(s)
	s.Tick(16)
	e.Burst(12, 0)
	e.Burst(0, 0)
	s.Tick(16)

	if got := countUsed(p); got != 12 {
		t.Errorf("used = %d, want 12", got)
	}
	if len(*events) != 1 {
		t.Fatalf("events = %d, want 1", len(*events))
	}
	ev := (*events)[0]
	if ev.Type != EventBurst || ev.Amount != 12 || ev.Time != 32 {
		t.Errorf("event = %+v, want burst of 12 at 32", ev)
	}
}

func TestRuntimeBurstWindow(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 100, 0, 1000)
	e.Burst(10, 100)

	for i, want := range []int{0, 5, 10, 10} {
		s.Tick(50)
		if got := countUsed(p); got != want {
			t.Errorf("tick %d: used = %d, want %d", i, got, want)
		}
	}
}

func TestBurstAtCenter(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 10, 0, 1000)
	e.Node.SetPosition(100, 0, 0)
	e.BurstAt(2, 0, mgl32.Vec3{1, 2, 3})
	s.Tick(16)
	assertVec3Near(t, "StartPosition", p.Records()[0].StartPosition, mgl32.Vec3{1, 2, 3})
}

func TestDynamicBurstFiresOnce(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 100, 0, 10000)
	e.DynamicBursts = append(e.DynamicBursts, NewDynamicBurst(150, 7))
	events := collectEvents(s)

	s.Tick(100)
	if got := countUsed(p); got != 0 {
		t.Errorf("used at 100ms = %d, want 0", got)
	}
	s.Tick(100)
	if got := countUsed(p); got != 7 {
		t.Errorf("used at 200ms = %d, want 7", got)
	}
	assertNear(t, "StartTime", p.Records()[0].StartTime, 0.15)
	s.Tick(100)
	if got := countUsed(p); got != 7 {
		t.Errorf("used at 300ms = %d, want 7", got)
	}
	if len(*events) != 1 || (*events)[0].Type != EventBurst {
		t.Errorf("events = %+v, want one burst", *events)
	}
}

func TestDynamicBurstAmountVariation(t *testing.T) {
	r := NewRandom(5, 256)
	b := DynamicBurst{Amount: 10, AmountVariation: 4}
	for id := int32(0); id < 50; id++ {
		n := b.amount(r, id)
		if n < 6 || n > 14 {
			t.Fatalf("amount = %d, want within [6, 14]", n)
		}
	}
	b = DynamicBurst{Amount: 1, AmountVariation: 10}
	for id := int32(0); id < 50; id++ {
		if n := b.amount(r, id); n < 0 {
			t.Fatalf("amount = %d, want >= 0", n)
		}
	}
}

func TestDisabledDynamicBurst(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 100, 0, 10000)
	b := NewDynamicBurst(0, 5)
	b.Enabled = false
	e.DynamicBursts = append(e.DynamicBursts, b)
	s.Tick(16)
	if got := countUsed(p); got != 0 {
		t.Errorf("used = %d, want 0", got)
	}
}

func TestEmitterPlacementAndVelocity(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 10, 0, 1000)
	e.Node.SetPosition(5, 0, 0)
	e.Node.SetRotation(0, 90, 0)
	e.Velocity = NewVectorDirection(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{})
	e.Burst(1, 0)
	s.Tick(16)

	d := p.Records()[0]
	assertVec3Near(t, "StartPosition", d.StartPosition, mgl32.Vec3{5, 0, 0})
	assertVec3Near(t, "StartVelocity", d.StartVelocity, mgl32.Vec3{0, 0, -1})
}

func TestEmitterVariationRanges(t *testing.T) {
	s := newTestSystem()
	p, e := addSprites(s, 200, 0, 1000)
	e.LifeSpanVariation = 200
	e.ParticleScale = 2
	e.ParticleScaleVariation = 0.5
	e.Burst(200, 0)
	s.Tick(16)

	for i, d := range p.Records() {
		if d.Lifetime < 0.8 || d.Lifetime > 1.2 {
			t.Fatalf("record %d Lifetime = %v, want within [0.8, 1.2]", i, d.Lifetime)
		}
		if d.StartSize < 1.5 || d.StartSize > 2.5 {
			t.Fatalf("record %d StartSize = %v, want within [1.5, 2.5]", i, d.StartSize)
		}
		// End scale and variation follow the start values.
		if d.EndSize != d.StartSize {
			t.Fatalf("record %d EndSize = %v, want %v", i, d.EndSize, d.StartSize)
		}
	}
}

func TestSpawnColorVariation(t *testing.T) {
	r := NewRandom(3, 256)
	p := NewSpriteParticle("p", 1)
	p.Color = Color{R: 1, G: 0, B: 0, A: 1}
	if got := p.spawnColor(r, 0); got != (Color4ub{255, 0, 0, 255}) {
		t.Errorf("spawnColor without variation = %+v", got)
	}

	p.ColorVariation = mgl32.Vec4{1, 1, 1, 0}
	p.UnifiedColorVariation = true
	for id := int32(0); id < 20; id++ {
		c := p.spawnColor(r, id)
		if c.R != c.G || c.G != c.B {
			t.Fatalf("unified variation gave %+v, want equal channels", c)
		}
		if c.A != 255 {
			t.Fatalf("alpha = %d, want 255", c.A)
		}
	}
}

func TestEmitterWithoutParticleWarnsOnce(t *testing.T) {
	buf := captureLog(t)
	s := newTestSystem()
	s.AddEmitter(NewEmitter("orphan", 3))
	s.Tick(16)
	s.Tick(16)
	if got := countLines(buf.String(), "targets no registered particle"); got != 1 {
		t.Errorf("warnings = %d, want 1", got)
	}
}
