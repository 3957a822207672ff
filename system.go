package ember

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// System owns particle kinds, emitters and affectors and runs the per-frame
// update: emit, prepare affectors, process each kind, commit buffers.
// A System is not safe for concurrent use.
type System struct {
	// Node is the space particles are simulated in. Emitter, shape and
	// affector nodes are expressed relative to it.
	Node *Node

	cfg           Config
	rand          Random
	seed          uint32
	useRandomSeed bool

	running   bool
	paused    bool
	startTime int
	animTime  int
	time      int
	prevTime  int
	updated   bool

	particleID int32

	particles []*Particle
	emitters  []*Emitter
	affectors []*Affector
	trailBuf  []*Emitter
	retired   []retiredRecord

	sink   Sink
	events EventSink

	stats    Stats
	logEvery int
	debug    bool
}

// NewSystem creates a stopped system. The random seed is randomized until
// SetUseRandomSeed(false) is called.
func NewSystem(cfg Config) *System {
	s := &System{
		Node:          NewNode("system"),
		cfg:           cfg,
		useRandomSeed: true,
		prevTime:      -1,
	}
	s.seed = rand.Uint32()
	s.rand.Init(s.seed, cfg.RandomTableSize)
	s.rand.SetDeterministic(false)
	return s
}

// Config returns the system configuration.
func (s *System) Config() Config { return s.cfg }

// SetConfig replaces the configuration. Changing RandomTableSize regenerates
// the random table.
func (s *System) SetConfig(cfg Config) {
	resize := cfg.RandomTableSize != s.cfg.RandomTableSize
	s.cfg = cfg
	if resize {
		s.rand.Init(s.seed, cfg.RandomTableSize)
	}
}

// Random returns the system's random source.
func (s *System) Random() *Random { return &s.rand }

// Seed returns the current seed.
func (s *System) Seed() uint32 { return s.seed }

// SetSeed sets the seed used when UseRandomSeed is false.
func (s *System) SetSeed(seed uint32) {
	s.seed = seed
	if !s.useRandomSeed {
		s.rand.Init(seed, s.cfg.RandomTableSize)
	}
}

// UseRandomSeed reports whether the seed is re-randomized on every stop.
func (s *System) UseRandomSeed() bool { return s.useRandomSeed }

// SetUseRandomSeed switches between a fixed seed (reproducible runs) and a
// seed randomized on every stop.
func (s *System) SetUseRandomSeed(v bool) {
	s.useRandomSeed = v
	s.rand.SetDeterministic(!v)
	if v {
		s.randomizeSeed()
	} else {
		s.rand.Init(s.seed, s.cfg.RandomTableSize)
	}
}

func (s *System) randomizeSeed() {
	s.seed = rand.Uint32()
	s.rand.Init(s.seed, s.cfg.RandomTableSize)
}

// SetSink sets the receiver of committed buffers.
func (s *System) SetSink(sink Sink) { s.sink = sink }

// SetEventSink sets the receiver of trail, burst and reset events.
func (s *System) SetEventSink(sink EventSink) { s.events = sink }

func (s *System) event(e Event) {
	if s.events != nil {
		s.events.HandleEvent(e)
	}
}

// nextParticleID returns a unique id for random keying. Wraps before overflow.
func (s *System) nextParticleID() int32 {
	id := s.particleID
	if s.particleID == math.MaxInt32 {
		s.particleID = 0
	} else {
		s.particleID++
	}
	return id
}

// --- Registries ---

// AddParticle registers p and returns its handle.
func (s *System) AddParticle(p *Particle) ParticleHandle {
	if p == nil {
		panic("ember: cannot add nil particle")
	}
	h := ParticleHandle(len(s.particles))
	s.particles = append(s.particles, p)
	p.handle = h
	return h
}

// RemoveParticle unregisters the kind. Its handle is not reused.
func (s *System) RemoveParticle(h ParticleHandle) {
	if p := s.Particle(h); p != nil {
		p.handle = NoParticle
		s.particles[h] = nil
	}
}

// Particle returns the kind for h, or nil.
func (s *System) Particle(h ParticleHandle) *Particle {
	if h < 0 || int(h) >= len(s.particles) {
		return nil
	}
	return s.particles[h]
}

// Particles returns the registered kinds. Removed entries are nil.
func (s *System) Particles() []*Particle { return s.particles }

// AddEmitter registers e and returns its handle. Static bursts are
// generated on its first update.
func (s *System) AddEmitter(e *Emitter) EmitterHandle {
	if e == nil {
		panic("ember: cannot add nil emitter")
	}
	h := EmitterHandle(len(s.emitters))
	s.emitters = append(s.emitters, e)
	e.handle = h
	e.reset()
	e.prevEmitTime = s.time
	return h
}

// RemoveEmitter unregisters the emitter. Its handle is not reused.
func (s *System) RemoveEmitter(h EmitterHandle) {
	if e := s.Emitter(h); e != nil {
		e.handle = -1
		s.emitters[h] = nil
	}
}

// Emitter returns the emitter for h, or nil.
func (s *System) Emitter(h EmitterHandle) *Emitter {
	if h < 0 || int(h) >= len(s.emitters) {
		return nil
	}
	return s.emitters[h]
}

// Emitters returns the registered emitters. Removed entries are nil.
func (s *System) Emitters() []*Emitter { return s.emitters }

// EmitterByName returns the first emitter named name, or nil.
func (s *System) EmitterByName(name string) *Emitter {
	for _, e := range s.emitters {
		if e != nil && e.Name == name {
			return e
		}
	}
	return nil
}

// ParticleByName returns the first particle kind named name, or nil.
func (s *System) ParticleByName(name string) *Particle {
	for _, p := range s.particles {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}

// AddAffector appends a to the affector chain and returns its handle.
func (s *System) AddAffector(a *Affector) AffectorHandle {
	if a == nil {
		panic("ember: cannot add nil affector")
	}
	h := AffectorHandle(len(s.affectors))
	s.affectors = append(s.affectors, a)
	return h
}

// RemoveAffector unregisters the affector. Its handle is not reused.
func (s *System) RemoveAffector(h AffectorHandle) {
	if h >= 0 && int(h) < len(s.affectors) {
		s.affectors[h] = nil
	}
}

// Affector returns the affector for h, or nil.
func (s *System) Affector(h AffectorHandle) *Affector {
	if h < 0 || int(h) >= len(s.affectors) {
		return nil
	}
	return s.affectors[h]
}

// Affectors returns the affector chain in order. Removed entries are nil.
func (s *System) Affectors() []*Affector { return s.affectors }

// Reset clears every particle and rewinds every emitter without changing
// the run state.
func (s *System) Reset() {
	for _, p := range s.particles {
		if p != nil {
			p.Reset()
		}
	}
	for _, e := range s.emitters {
		if e != nil {
			e.reset()
		}
	}
	for _, a := range s.affectors {
		if a != nil {
			a.InvalidateCache()
		}
	}
	s.animTime = 0
	s.time = 0
	s.prevTime = -1
	s.updated = false
	s.particleID = 0
	s.event(Event{Type: EventReset, Particle: NoParticle, Emitter: -1})
}

// --- Update ---

func (s *System) update(now int) {
	start := time.Now()

	prev := s.time
	if !s.updated {
		prev = -1
	}
	s.prevTime, s.time = prev, now
	s.updated = true
	if now < prev {
		s.seekedBackward()
	}
	s.retired = s.retired[:0]
	for _, p := range s.particles {
		if p != nil {
			p.processed = false
		}
	}

	for _, e := range s.emitters {
		if e != nil && !e.IsTrail() {
			s.emit(e)
		}
	}
	for _, e := range s.emitters {
		if e != nil && e.IsTrail() {
			s.prepareTrail(e)
		}
	}
	for _, a := range s.affectors {
		if a != nil && a.Enabled {
			a.prepare(s)
		}
	}

	s.stats.ParticlesMax = 0
	s.stats.ParticlesUsed = 0
	for _, pass := range [...]ParticleType{ParticleSprite, ParticleModel, ParticleModelBlend} {
		for _, p := range s.particles {
			if p == nil {
				continue
			}
			if passOf(p.Type) != pass {
				continue
			}
			s.process(p)
			s.stats.ParticlesMax += p.maxAmount
			s.stats.ParticlesUsed += p.alive
		}
	}

	for _, p := range s.particles {
		if p == nil {
			continue
		}
		p.buffer.Commit()
		if s.sink != nil {
			s.sink.Commit(p, &p.buffer)
		}
	}
	for _, e := range s.emitters {
		if e != nil && e.IsTrail() {
			e.pending = e.pending[:0]
		}
	}

	s.recordUpdate(time.Since(start))
}

// passOf groups kinds into update passes. Lines run with sprites; unknown
// types land in the first pass so process can reject them.
func passOf(t ParticleType) ParticleType {
	switch t {
	case ParticleModel, ParticleModelBlend:
		return t
	}
	return ParticleSprite
}

// seekedBackward drops state that only makes sense moving forward.
func (s *System) seekedBackward() {
	for _, p := range s.particles {
		if p != nil && p.Type == ParticleLine {
			p.resetLines()
		}
	}
}

// emit runs the primary emission pass for a non-trail emitter.
func (s *System) emit(e *Emitter) {
	p := s.Particle(e.Particle)
	if p == nil {
		if !e.warned {
			warnf("emitter %q targets no registered particle", e.Name)
			e.warned = true
		}
		return
	}
	f := s.emitterFrame(e)
	if !e.burstGenerated {
		s.generateEmitBursts(e, p, &f)
	}
	now := s.time
	e.clampPrevEmitTime(now)
	if !e.enabled {
		e.prevBurstTime = now
		return
	}
	if p.Type == ParticleModelBlend && p.Blend != nil && p.Blend.EmitMode == EmitActivation {
		s.emitActivated(p, e, &f)
		e.prevEmitTime = now
	} else if n, from := e.continuousAmount(now); n > 0 {
		s.emitSpread(p, e, &f, f.center, n, from, now)
	}

	for i := range e.DynamicBursts {
		b := &e.DynamicBursts[i]
		if !b.Enabled || b.Trigger&TriggerTime == 0 {
			continue
		}
		if b.Time > e.prevBurstTime && b.Time <= now {
			s.fireBurst(e, p, &f, f.center, false, b.amount(&s.rand, s.particleID), b.Time, b.Duration)
		}
	}
	for _, pb := range e.pending {
		s.fireBurst(e, p, &f, pb.center, pb.hasCenter, pb.amount, now, pb.duration)
	}
	e.pending = e.pending[:0]
	s.drainWindows(e, p, &f, now)
	e.prevBurstTime = now
}

// generateEmitBursts stamps every static burst once. The target kind is
// reset and the claimed slots are protected from round-robin reuse.
func (s *System) generateEmitBursts(e *Emitter, p *Particle, f *emitFrame) {
	e.burstGenerated = true
	if len(e.EmitBursts) == 0 {
		return
	}
	p.Reset()
	for _, b := range e.EmitBursts {
		n := b.Amount
		if room := p.maxAmount - p.lastBurstIndex; n > room {
			n = room
		}
		if n <= 0 {
			continue
		}
		start := float32(b.Time) / 1000
		step := float32(max(0, b.Duration)) / 1000 / float32(n)
		for i := 0; i < n; i++ {
			s.emitParticle(p, e, start+float32(i)*step, f, f.center, -1)
		}
		p.updateBurstIndex(n)
	}
}

// fireBurst emits amount particles at atMs, or opens a window when durMs > 0.
func (s *System) fireBurst(e *Emitter, p *Particle, f *emitFrame, center mgl32.Vec3, hasCenter bool, amount, atMs, durMs int) {
	if amount <= 0 {
		return
	}
	c := f.center
	if hasCenter {
		c = center
	}
	s.event(Event{Type: EventBurst, Time: s.time, Particle: p.handle, Emitter: e.handle, Position: c, Amount: amount})
	if durMs <= 0 {
		s.emitAt(p, e, f, c, amount, float32(atMs)/1000)
		return
	}
	e.windows = append(e.windows, burstWindow{
		start: atMs, end: atMs + durMs, amount: amount, prev: atMs,
		center: c, hasCenter: true,
	})
}

// drainWindows emits what each open burst window owes and closes finished ones.
func (s *System) drainWindows(e *Emitter, p *Particle, f *emitFrame, now int) {
	kept := e.windows[:0]
	for _, w := range e.windows {
		n, from, to := w.drain(now)
		s.emitSpread(p, e, f, w.center, n, from, to)
		if now >= w.end {
			s.emitAt(p, e, f, w.center, w.amount-w.counter, float32(w.end)/1000)
			continue
		}
		kept = append(kept, w)
	}
	e.windows = kept
}
