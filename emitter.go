package ember

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// emitEpsilon absorbs float error in the fractional emission accumulator.
const emitEpsilon = 1e-4

// Emitter stamps new particles into one particle kind. Setting Follow turns
// it into a trail emitter that emits from the live particles of another kind.
type Emitter struct {
	Name string
	// Node places the emitter. Its transform relative to the system node
	// positions and orients emitted particles.
	Node *Node

	Particle ParticleHandle
	Follow   ParticleHandle

	EmitRate          float32 // particles per second
	LifeSpan          int     // milliseconds
	LifeSpanVariation int     // milliseconds

	ParticleScale             float32
	ParticleEndScale          float32 // < 0 means ParticleScale
	ParticleScaleVariation    float32
	ParticleEndScaleVariation float32 // < 0 means ParticleScaleVariation

	ParticleRotation                  mgl32.Vec3 // degrees
	ParticleRotationVariation         mgl32.Vec3
	ParticleRotationVelocity          mgl32.Vec3 // degrees per second
	ParticleRotationVelocityVariation mgl32.Vec3

	Velocity *Direction
	Shape    *Shape

	EmitBursts    []EmitBurst
	DynamicBursts []DynamicBurst

	handle         EmitterHandle
	enabled        bool
	resetPrev      bool
	prevEmitTime   int
	unemitted      float64
	prevBurstTime  int
	burstGenerated bool
	windows        []burstWindow
	pending        []pendingBurst
	trailAmount    int
	frame          emitFrame
	warned         bool
}

// NewEmitter creates an enabled emitter targeting particle, with its own node.
func NewEmitter(name string, particle ParticleHandle) *Emitter {
	return &Emitter{
		Name:                      name,
		Node:                      NewNode(name),
		Particle:                  particle,
		Follow:                    NoParticle,
		LifeSpan:                  1000,
		ParticleScale:             1,
		ParticleEndScale:          -1,
		ParticleEndScaleVariation: -1,
		enabled:                   true,
		prevBurstTime:             -1,
		handle:                    -1,
	}
}

// NewTrailEmitter creates an emitter that emits into particle from the live
// particles of follow.
func NewTrailEmitter(name string, particle, follow ParticleHandle) *Emitter {
	e := NewEmitter(name, particle)
	e.Follow = follow
	return e
}

// Handle returns the handle assigned by System.AddEmitter.
func (e *Emitter) Handle() EmitterHandle { return e.handle }

// IsTrail reports whether the emitter follows another particle kind.
func (e *Emitter) IsTrail() bool { return e.Follow != NoParticle }

// Enabled reports whether the emitter emits.
func (e *Emitter) Enabled() bool { return e.enabled }

// SetEnabled toggles emission. Re-enabling restarts the continuous rate at
// the current time instead of catching up on the disabled span.
func (e *Emitter) SetEnabled(v bool) {
	if v && !e.enabled {
		e.resetPrev = true
	}
	e.enabled = v
}

// SetShape attaches s, parenting it to the emitter's node if it has none.
func (e *Emitter) SetShape(s *Shape) {
	if s != nil && s.Parent == nil {
		s.Parent = e.Node
	}
	e.Shape = s
}

// Burst emits count particles on the next update, spread over durationMs.
// Trail emitters emit count particles from every live followed particle.
func (e *Emitter) Burst(count, durationMs int) {
	if count <= 0 {
		return
	}
	e.pending = append(e.pending, pendingBurst{amount: count, duration: durationMs})
}

// BurstAt is like Burst but emits around pos (system space) instead of the
// emitter origin.
func (e *Emitter) BurstAt(count, durationMs int, pos mgl32.Vec3) {
	if count <= 0 {
		return
	}
	e.pending = append(e.pending, pendingBurst{amount: count, duration: durationMs, center: pos, hasCenter: true})
}

// AddEmitBurst registers a static burst. Static bursts are regenerated the
// next time the emitter runs.
func (e *Emitter) AddEmitBurst(b EmitBurst) {
	e.EmitBursts = append(e.EmitBursts, b)
	e.burstGenerated = false
}

// reset returns bookkeeping to its initial state.
func (e *Emitter) reset() {
	e.prevEmitTime = 0
	e.unemitted = 0
	e.prevBurstTime = -1
	e.burstGenerated = false
	e.windows = e.windows[:0]
	e.pending = e.pending[:0]
	e.trailAmount = 0
}

// clampPrevEmitTime applies the backward-seek and time-jump rules.
func (e *Emitter) clampPrevEmitTime(now int) {
	if e.resetPrev {
		e.prevEmitTime = now
		e.resetPrev = false
	}
	if now < e.prevEmitTime {
		e.prevEmitTime = now
	}
	if floor := now - (e.LifeSpan + e.LifeSpanVariation); e.prevEmitTime < floor {
		e.prevEmitTime = floor
	}
}

// continuousAmount returns how many particles the rate owes at now and the
// time the owed span started. prevEmitTime only advances when something is
// emitted so slow rates accumulate across frames.
func (e *Emitter) continuousAmount(now int) (n, from int) {
	if e.EmitRate <= 0 {
		e.prevEmitTime = now
		return 0, now
	}
	f := float64(now-e.prevEmitTime) * float64(e.EmitRate) / 1000
	n = int(math.Floor(f))
	if n <= 0 {
		return 0, e.prevEmitTime
	}
	e.unemitted += f - float64(n)
	if e.unemitted >= 1-emitEpsilon {
		n++
		e.unemitted--
	}
	from = e.prevEmitTime
	e.prevEmitTime = now
	return n, from
}

// emitFrame holds the emitter's placement in system space for one update.
type emitFrame struct {
	rotation mgl32.Quat
	center   mgl32.Vec3
}

func (s *System) emitterFrame(e *Emitter) emitFrame {
	if e.Node == nil {
		return emitFrame{rotation: mgl32.QuatIdent()}
	}
	tr := e.Node.TransformRelativeTo(s.Node)
	return emitFrame{
		rotation: e.Node.RotationRelativeTo(s.Node),
		center:   tr.Col(3).Vec3(),
	}
}

// emitSpread emits n particles with start times evenly spaced over
// (fromMs, toMs]. n is clamped to the kind's capacity.
func (s *System) emitSpread(p *Particle, e *Emitter, f *emitFrame, center mgl32.Vec3, n, fromMs, toMs int) int {
	if n <= 0 {
		return 0
	}
	if n > p.maxAmount {
		n = p.maxAmount
	}
	from := float32(fromMs) / 1000
	span := float32(toMs-fromMs) / 1000
	emitted := 0
	for i := 0; i < n; i++ {
		t := from + float32(i+1)/float32(n)*span
		if s.emitParticle(p, e, t, f, center, -1) {
			emitted++
		}
	}
	return emitted
}

// emitAt emits n particles all starting at t seconds.
func (s *System) emitAt(p *Particle, e *Emitter, f *emitFrame, center mgl32.Vec3, n int, t float32) int {
	if n > p.maxAmount {
		n = p.maxAmount
	}
	emitted := 0
	for i := 0; i < n; i++ {
		if s.emitParticle(p, e, t, f, center, -1) {
			emitted++
		}
	}
	return emitted
}

// emitParticle stamps one record. slot >= 0 forces the slot (model-blend
// activation); otherwise the kind allocates one. Returns false when the
// kind has no slot to give.
func (s *System) emitParticle(p *Particle, e *Emitter, start float32, f *emitFrame, center mgl32.Vec3, slot int) bool {
	mb := p.Type == ParticleModelBlend && p.Blend != nil
	if slot < 0 {
		if mb {
			slot = p.Blend.nextSlot(p, &s.rand)
		} else {
			slot = p.nextIndex()
		}
		if slot < 0 {
			return false
		}
	}
	id := s.nextParticleID()
	r := &s.rand
	d := &p.records[slot]
	s.retire(p, d)
	*d = clearedRecord
	d.Index = id
	d.StartTime = start

	lifeVar := float32(e.LifeSpanVariation) / 1000
	d.Lifetime = r.variation(id, RandLifeSpanV, float32(e.LifeSpan)/1000, lifeVar)

	scaleVar := r.variation(id, RandScaleV, 0, e.ParticleScaleVariation)
	endScale := e.ParticleEndScale
	if endScale < 0 {
		endScale = e.ParticleScale
	}
	endVar := scaleVar
	if e.ParticleEndScaleVariation >= 0 {
		endVar = r.variation(id, RandScaleEV, 0, e.ParticleEndScaleVariation)
	}
	d.StartSize = max(0, e.ParticleScale+scaleVar)
	d.EndSize = max(0, endScale+endVar)

	if mb && p.Blend.Mode != BlendConstruct {
		d.StartPosition = p.Blend.centerInSystem(s, slot)
	} else {
		pos := center
		if e.Shape != nil {
			pos = pos.Add(e.Shape.Position(r, id, s.Node))
		}
		d.StartPosition = pos
	}

	if e.Velocity != nil {
		v := e.Velocity.Sample(r, d)
		if e.Velocity.Type == DirectionVector {
			v = f.rotation.Rotate(v)
		}
		d.StartVelocity = v
	}

	rot, rotVar := e.ParticleRotation, e.ParticleRotationVariation
	if rot != (mgl32.Vec3{}) || rotVar != (mgl32.Vec3{}) {
		d.StartRotation = PackRotation(mgl32.Vec3{
			r.variation(id, RandRotXV, rot[0], rotVar[0]),
			r.variation(id, RandRotYV, rot[1], rotVar[1]),
			r.variation(id, RandRotZV, rot[2], rotVar[2]),
		})
	}
	rv, rvVar := e.ParticleRotationVelocity, e.ParticleRotationVelocityVariation
	if rv != (mgl32.Vec3{}) || rvVar != (mgl32.Vec3{}) {
		d.StartRotationVelocity = PackRotationVelocity(mgl32.Vec3{
			r.variation(id, RandRotXVV, rv[0], rvVar[0]),
			r.variation(id, RandRotYVV, rv[1], rvVar[1]),
			r.variation(id, RandRotZVV, rv[2], rvVar[2]),
		})
	}

	d.StartColor = p.spawnColor(r, id)

	if seq := p.Sequence; seq != nil && (p.Type == ParticleSprite || p.Type == ParticleLine) && seq.Duration > 0 {
		dur := float32(seq.Duration) + float32(seq.DurationVariation)*(1-2*r.GetFor(id, RandSpriteAnimationV))
		d.AnimationTime = max(1, dur) / 1000
	}
	return true
}

// spawnColor blends the base color toward a random color by ColorVariation.
// Unified variation draws once, with the alpha tag, for all four channels.
func (p *Particle) spawnColor(r *Random, id int32) Color4ub {
	base := [4]float32{p.Color.R, p.Color.G, p.Color.B, p.Color.A}
	tags := [4]RandTag{RandColorRV, RandColorGV, RandColorBV, RandColorAV}
	var out [4]uint8
	var unified float32
	if p.UnifiedColorVariation {
		unified = float32(int(r.GetFor(id, RandColorAV) * 256))
	}
	for i := 0; i < 4; i++ {
		c := float32(int(clamp01(base[i])*255 + 0.5))
		cv := p.ColorVariation[i]
		if cv != 0 {
			rv := unified
			if !p.UnifiedColorVariation {
				rv = float32(int(r.GetFor(id, tags[i]) * 256))
			}
			c = c*(1-cv) + rv*cv
		}
		if c < 0 {
			c = 0
		} else if c > 255 {
			c = 255
		}
		out[i] = uint8(c)
	}
	return Color4ub{out[0], out[1], out[2], out[3]}
}
