package ember

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// ParticleType distinguishes how a particle kind is evaluated and packed.
type ParticleType uint8

const (
	ParticleSprite     ParticleType = iota // camera-facing quads
	ParticleLine                           // sprites with a poly-line trail history
	ParticleModel                          // instanced model transforms
	ParticleModelBlend                     // one triangle of a mesh per particle
)

// String returns the lower-case kind name used in effect files.
func (t ParticleType) String() string {
	switch t {
	case ParticleSprite:
		return "sprite"
	case ParticleLine:
		return "line"
	case ParticleModel:
		return "model"
	case ParticleModelBlend:
		return "modelblend"
	}
	return "unknown"
}

// FadeType selects what a fade window modulates.
type FadeType uint8

const (
	FadeNone    FadeType = iota // no fade
	FadeOpacity                 // alpha goes from 0 to full
	FadeScale                   // scale goes from 0 to full
)

// AlignMode rotates particles to face a direction.
type AlignMode uint8

const (
	AlignNone                 AlignMode = iota
	AlignTowardsTarget                  // face AlignTarget
	AlignTowardsStartVelocity           // face the start velocity
)

// SortMode controls the order particles are written to the output buffer.
type SortMode uint8

const (
	SortNone   SortMode = iota // slot order
	SortOldest                 // oldest emitted first
	SortNewest                 // newest emitted first
)

// DefaultFadeDuration is the fade window in milliseconds for new particle kinds.
const DefaultFadeDuration = 250

// Particle is a particle kind: a fixed-capacity store of spawn records plus
// the parameters shared by all its particles. A single flat struct is used
// for all kinds; Type selects the processor.
type Particle struct {
	Name string
	Type ParticleType

	Color                 Color
	ColorVariation        mgl32.Vec4
	UnifiedColorVariation bool

	FadeInEffect    FadeType
	FadeOutEffect   FadeType
	FadeInDuration  int // milliseconds
	FadeOutDuration int // milliseconds
	// FadeEase shapes both fade windows. Nil means linear.
	FadeEase ease.TweenFunc

	AlignMode   AlignMode
	AlignTarget mgl32.Vec3

	SortMode  SortMode
	BlendMode BlendMode

	// Sprite and line fields.
	Sequence *SpriteSequence

	// Line fields.
	Line LineOptions

	// Model-blend fields.
	Blend *ModelBlend

	handle         ParticleHandle
	maxAmount      int
	records        []SpawnRecord
	currentIndex   int
	lastBurstIndex int
	buffer         Buffer
	alive          int
	processed      bool

	lines *lineState
}

func particleDefaults(p *Particle) {
	p.handle = NoParticle
	p.Color = ColorWhite
	p.FadeInEffect = FadeOpacity
	p.FadeOutEffect = FadeOpacity
	p.FadeInDuration = DefaultFadeDuration
	p.FadeOutDuration = DefaultFadeDuration
}

// NewSpriteParticle creates a billboard sprite particle kind.
func NewSpriteParticle(name string, maxAmount int) *Particle {
	p := &Particle{Name: name, Type: ParticleSprite}
	particleDefaults(p)
	p.buffer = newBuffer(SpriteStride)
	p.SetMaxAmount(maxAmount)
	return p
}

// NewLineParticle creates a sprite kind that also records a poly-line
// trail of up to segments samples per particle.
func NewLineParticle(name string, maxAmount, segments int) *Particle {
	p := &Particle{Name: name, Type: ParticleLine}
	particleDefaults(p)
	p.Line = DefaultLineOptions()
	if segments > 0 {
		p.Line.SegmentCount = segments
	}
	p.buffer = newBuffer(LinePointStride)
	p.SetMaxAmount(maxAmount)
	return p
}

// NewModelParticle creates an instanced model particle kind.
func NewModelParticle(name string, maxAmount int) *Particle {
	p := &Particle{Name: name, Type: ParticleModel}
	particleDefaults(p)
	p.buffer = newBuffer(ModelInstanceStride)
	p.SetMaxAmount(maxAmount)
	return p
}

// NewModelBlendParticle creates a kind with one particle per triangle of mesh.
func NewModelBlendParticle(name string, mesh *Mesh) *Particle {
	p := &Particle{Name: name, Type: ParticleModelBlend}
	particleDefaults(p)
	p.Blend = &ModelBlend{Mesh: mesh}
	p.buffer = newBuffer(TriangleStride)
	p.SetMaxAmount(mesh.TriangleCount())
	return p
}

// Handle returns the handle assigned by System.AddParticle, or NoParticle.
func (p *Particle) Handle() ParticleHandle { return p.handle }

// MaxAmount returns the record capacity.
func (p *Particle) MaxAmount() int { return p.maxAmount }

// Alive returns how many particles were alive in the last update.
func (p *Particle) Alive() int { return p.alive }

// SetMaxAmount changes the capacity. All records are cleared. Model-blend
// kinds ignore the argument and use the mesh triangle count.
func (p *Particle) SetMaxAmount(n int) {
	if p.Type == ParticleModelBlend && p.Blend != nil {
		n = p.Blend.Mesh.TriangleCount()
	}
	if n < 0 {
		n = 0
	}
	p.maxAmount = n
	if cap(p.records) >= n {
		p.records = p.records[:n]
	} else {
		p.records = make([]SpawnRecord, n)
	}
	p.Reset()
}

// Reset clears every record and rewinds slot allocation.
func (p *Particle) Reset() {
	for i := range p.records {
		p.records[i] = clearedRecord
	}
	p.currentIndex = -1
	p.lastBurstIndex = 0
	p.alive = 0
	if p.Type == ParticleLine {
		p.resetLines()
	}
	if p.Type == ParticleModelBlend && p.Blend != nil {
		p.Blend.reset(p.maxAmount)
	}
}

// Records returns the spawn records. The slice must not be modified.
func (p *Particle) Records() []SpawnRecord { return p.records }

// Buffer returns the kind's packed output.
func (p *Particle) Buffer() *Buffer { return &p.buffer }

// nextIndex returns the next slot for round-robin allocation. Slots below
// lastBurstIndex are skipped until the kind is reset.
func (p *Particle) nextIndex() int {
	if p.maxAmount == 0 {
		return -1
	}
	p.currentIndex++
	if p.currentIndex >= p.maxAmount {
		if p.lastBurstIndex >= p.maxAmount {
			p.currentIndex = 0
		} else {
			p.currentIndex = p.lastBurstIndex
		}
	}
	return p.currentIndex
}

// updateBurstIndex reserves the n slots just claimed by a static burst.
func (p *Particle) updateBurstIndex(n int) {
	p.lastBurstIndex += n
	if p.lastBurstIndex > p.maxAmount {
		p.lastBurstIndex = p.maxAmount
	}
}

// sortedSlot maps output position i to a record slot for the sort mode.
func (p *Particle) sortedSlot(i int) int {
	n := p.maxAmount
	cur := p.currentIndex
	if cur < 0 {
		cur = n - 1
	}
	switch p.SortMode {
	case SortOldest:
		return (cur + 1 + i) % n
	case SortNewest:
		return ((cur-i)%n + n) % n
	}
	return i
}

// applyFade modulates c by the fade windows at age seconds since start and
// left seconds before death.
func (p *Particle) applyFade(c *CurrentRecord, age, left float32) {
	p.fadeWindow(c, p.FadeInEffect, p.FadeInDuration, age)
	p.fadeWindow(c, p.FadeOutEffect, p.FadeOutDuration, left)
}

func (p *Particle) fadeWindow(c *CurrentRecord, ft FadeType, durMs int, t float32) {
	if ft == FadeNone || durMs <= 0 {
		return
	}
	d := float32(durMs) / 1000
	if t >= d {
		return
	}
	v := clamp01(t / d)
	if p.FadeEase != nil {
		v = p.FadeEase(v, 0, 1, 1)
	}
	switch ft {
	case FadeOpacity:
		c.Color[3] *= v
	case FadeScale:
		c.Scale = c.Scale.Mul(v)
	}
}

// applyAlign rotates c so its forward axis (+Z) faces the align direction.
func (p *Particle) applyAlign(c *CurrentRecord, d *SpawnRecord) {
	var dir mgl32.Vec3
	switch p.AlignMode {
	case AlignTowardsTarget:
		dir = p.AlignTarget.Sub(c.Position)
	case AlignTowardsStartVelocity:
		dir = d.StartVelocity
	default:
		return
	}
	if dir.Len() < 1e-6 {
		return
	}
	q := mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, dir.Normalize())
	c.Rotation = quatToEuler(q.Mul(eulerToQuat(c.Rotation)))
}
