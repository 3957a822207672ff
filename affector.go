package ember

import (
	"math"
	"slices"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// AffectorType selects the behavior of an Affector.
type AffectorType uint8

const (
	AffectorGravity      AffectorType = iota // constant acceleration
	AffectorAttractor                        // blend toward a target position
	AffectorWander                           // sinusoidal per-axis offset
	AffectorPointRotator                     // orbit around a pivot
	AffectorNoise                            // perlin turbulence offset
)

// String returns the lower-case name used in effect files.
func (t AffectorType) String() string {
	switch t {
	case AffectorGravity:
		return "gravity"
	case AffectorAttractor:
		return "attractor"
	case AffectorWander:
		return "wander"
	case AffectorPointRotator:
		return "pointrotator"
	case AffectorNoise:
		return "noise"
	}
	return "unknown"
}

// Affector modifies live particles after reconstruction. Affectors run in
// the order they were added, each seeing the changes of the previous ones.
// A single flat struct is used for all behaviors; Type selects which fields
// apply.
type Affector struct {
	Name    string
	Type    AffectorType
	Enabled bool
	// Node positions the attractor target, rotator pivot and gravity frame
	// relative to the system node. Nil means the system origin.
	Node *Node
	// Particles limits the affector to these kinds. Empty affects all.
	Particles []ParticleHandle

	// Gravity
	Magnitude float32    // units/s² (gravity) or degrees/s (point rotator)
	Direction mgl32.Vec3 // gravity direction or rotation axis

	// Attractor
	PositionVariation mgl32.Vec3
	Shape             *Shape
	// UseCachedPositions samples Shape once into PositionsAmount targets.
	UseCachedPositions bool
	PositionsAmount    int
	// Duration is the attraction time in milliseconds; < 0 uses the
	// particle lifetime.
	Duration          int
	DurationVariation int
	HideAtEnd         bool

	// Wander
	GlobalAmount          mgl32.Vec3
	GlobalPace            mgl32.Vec3 // cycles per second
	GlobalPaceStart       mgl32.Vec3 // radians
	UniqueAmount          mgl32.Vec3
	UniquePace            mgl32.Vec3
	UniqueAmountVariation float32 // fraction of UniqueAmount
	UniquePaceVariation   float32 // fraction of UniquePace
	FadeInDuration        int     // milliseconds
	FadeOutDuration       int     // milliseconds
	// FadeEase shapes the wander fade windows. Nil means linear.
	FadeEase ease.TweenFunc

	// PointRotator
	Pivot mgl32.Vec3

	// Noise
	NoiseAmount    mgl32.Vec3
	NoiseFrequency float32
	NoiseSpeed     float32
	NoiseOctaves   int

	// per-frame state
	origin   mgl32.Vec3
	rotation mgl32.Quat
	dir      mgl32.Vec3

	cache        []mgl32.Vec3
	cacheVersion int
	cacheShape   *Shape
	cacheSeed    uint32

	noise     *perlin.Perlin
	noiseSeed uint32
	hasNoise  bool
}

func newAffector(name string, t AffectorType) *Affector {
	return &Affector{Name: name, Type: t, Enabled: true, Node: NewNode(name)}
}

// NewGravity creates a gravity affector accelerating along dir.
func NewGravity(name string, magnitude float32, dir mgl32.Vec3) *Affector {
	a := newAffector(name, AffectorGravity)
	a.Magnitude = magnitude
	a.Direction = dir
	return a
}

// NewAttractor creates an attractor pulling particles to the affector node
// over their whole lifetime.
func NewAttractor(name string) *Affector {
	a := newAffector(name, AffectorAttractor)
	a.Duration = -1
	return a
}

// NewWander creates a wander affector with no amplitude.
func NewWander(name string) *Affector {
	return newAffector(name, AffectorWander)
}

// NewPointRotator creates an affector orbiting particles around pivot about
// axis at degPerSec.
func NewPointRotator(name string, pivot, axis mgl32.Vec3, degPerSec float32) *Affector {
	a := newAffector(name, AffectorPointRotator)
	a.Pivot = pivot
	a.Direction = axis
	a.Magnitude = degPerSec
	return a
}

// NewNoise creates a perlin turbulence affector.
func NewNoise(name string, amount mgl32.Vec3, frequency float32) *Affector {
	a := newAffector(name, AffectorNoise)
	a.NoiseAmount = amount
	a.NoiseFrequency = frequency
	a.NoiseSpeed = 1
	a.NoiseOctaves = 2
	return a
}

// SetShape attaches an attractor shape, parenting it to the affector node
// if it has none.
func (a *Affector) SetShape(s *Shape) {
	if s != nil && s.Parent == nil {
		s.Parent = a.Node
	}
	a.Shape = s
	a.InvalidateCache()
}

// InvalidateCache drops cached attractor positions and noise state.
func (a *Affector) InvalidateCache() {
	a.cache = a.cache[:0]
	a.cacheShape = nil
	a.hasNoise = false
}

func (a *Affector) appliesTo(h ParticleHandle) bool {
	return len(a.Particles) == 0 || slices.Contains(a.Particles, h)
}

// prepare caches frame-invariant data before any particle is processed.
func (a *Affector) prepare(s *System) {
	a.origin = mgl32.Vec3{}
	a.rotation = mgl32.QuatIdent()
	if a.Node != nil {
		a.origin = a.Node.TransformRelativeTo(s.Node).Col(3).Vec3()
		a.rotation = a.Node.RotationRelativeTo(s.Node)
	}
	switch a.Type {
	case AffectorGravity, AffectorPointRotator:
		a.dir = mgl32.Vec3{}
		if a.Direction.Len() > 1e-6 {
			a.dir = a.rotation.Rotate(a.Direction.Normalize())
		}
	case AffectorAttractor:
		if a.UseCachedPositions && a.Shape != nil {
			a.prepareCache(s)
		}
	case AffectorNoise:
		if !a.hasNoise || a.noiseSeed != s.seed {
			octaves := a.NoiseOctaves
			if octaves <= 0 {
				octaves = 2
			}
			a.noise = perlin.NewPerlin(2, 2, int32(octaves), int64(s.seed))
			a.noiseSeed = s.seed
			a.hasNoise = true
		}
	}
}

// prepareCache regenerates the attractor target list when the shape, its
// contents, the amount or the seed changed.
func (a *Affector) prepareCache(s *System) {
	n := a.PositionsAmount
	if n <= 0 {
		n = 1
	}
	if len(a.cache) == n && a.cacheShape == a.Shape && a.cacheVersion == a.Shape.version && a.cacheSeed == s.seed {
		return
	}
	a.cache = a.cache[:0]
	for i := 0; i < n; i++ {
		a.cache = append(a.cache, a.Shape.Position(&s.rand, int32(i), s.Node))
	}
	a.cacheShape = a.Shape
	a.cacheVersion = a.Shape.version
	a.cacheSeed = s.seed
}

// affect applies the behavior to c at age seconds since the particle started.
func (a *Affector) affect(s *System, d *SpawnRecord, c *CurrentRecord, age float32) {
	switch a.Type {
	case AffectorGravity:
		g := a.dir.Mul(a.Magnitude)
		c.Position = c.Position.Add(g.Mul(0.5 * age * age))
		c.Velocity = c.Velocity.Add(g.Mul(age))
	case AffectorAttractor:
		a.attract(s, d, c, age)
	case AffectorWander:
		a.wander(s, d, c, age)
	case AffectorPointRotator:
		if a.dir == (mgl32.Vec3{}) {
			return
		}
		pivot := a.origin.Add(a.rotation.Rotate(a.Pivot))
		q := mgl32.QuatRotate(mgl32.DegToRad(a.Magnitude*age), a.dir)
		c.Position = pivot.Add(q.Rotate(c.Position.Sub(pivot)))
		c.Velocity = q.Rotate(c.Velocity)
	case AffectorNoise:
		a.turbulence(d, c, age)
	default:
		if s.debug {
			panic("ember: unknown affector type")
		}
	}
}

// target returns the attraction target for d in system space.
func (a *Affector) target(s *System, d *SpawnRecord) mgl32.Vec3 {
	r := &s.rand
	t := a.origin
	if a.Shape != nil {
		if a.UseCachedPositions && len(a.cache) > 0 {
			t = t.Add(a.cache[int(uint32(d.Index)%uint32(len(a.cache)))])
		} else {
			t = t.Add(a.Shape.Position(r, d.Index, s.Node))
		}
	}
	if a.PositionVariation != (mgl32.Vec3{}) {
		v := a.PositionVariation
		t = t.Add(mgl32.Vec3{
			r.variation(d.Index, RandAttractorPosVX, 0, v[0]),
			r.variation(d.Index, RandAttractorPosVY, 0, v[1]),
			r.variation(d.Index, RandAttractorPosVZ, 0, v[2]),
		})
	}
	return t
}

func (a *Affector) attract(s *System, d *SpawnRecord, c *CurrentRecord, age float32) {
	dur := d.Lifetime
	if a.Duration >= 0 {
		dur = s.rand.variation(d.Index, RandAttractorDurationV, float32(a.Duration)/1000, float32(a.DurationVariation)/1000)
	}
	pEnd := float32(1)
	if dur > 0 {
		pEnd = clamp01(age / dur)
	}
	target := a.target(s, d)
	c.Position = c.Position.Mul(1 - pEnd).Add(target.Mul(pEnd))
	if a.HideAtEnd && pEnd >= 1 {
		c.Color[3] = 0
	}
}

func (a *Affector) wander(s *System, d *SpawnRecord, c *CurrentRecord, age float32) {
	const pi2 = 2 * math.Pi
	fade := a.wanderFade(age, d.Lifetime-age)
	if fade <= 0 {
		return
	}
	r := &s.rand
	startTags := [3]RandTag{RandWanderXPS, RandWanderYPS, RandWanderZPS}
	paceTags := [3]RandTag{RandWanderXPV, RandWanderYPV, RandWanderZPV}
	amountTags := [3]RandTag{RandWanderXAV, RandWanderYAV, RandWanderZAV}
	var off mgl32.Vec3
	for i := 0; i < 3; i++ {
		if a.GlobalAmount[i] != 0 {
			off[i] += a.GlobalAmount[i] * sin32(a.GlobalPaceStart[i]+age*pi2*a.GlobalPace[i])
		}
		if a.UniqueAmount[i] != 0 {
			pace := a.UniquePace[i] * (1 + a.UniquePaceVariation*(2*r.GetFor(d.Index, paceTags[i])-1))
			amount := a.UniqueAmount[i] * (1 + a.UniqueAmountVariation*(2*r.GetFor(d.Index, amountTags[i])-1))
			start := r.GetFor(d.Index, startTags[i]) * pi2
			off[i] += amount * sin32(start+age*pi2*pace)
		}
	}
	c.Position = c.Position.Add(off.Mul(fade))
}

// wanderFade returns the wander weight from the fade windows at age seconds
// after start and left seconds before death.
func (a *Affector) wanderFade(age, left float32) float32 {
	w := float32(1)
	if a.FadeInDuration > 0 {
		w *= a.ease(clamp01(age / (float32(a.FadeInDuration) / 1000)))
	}
	if a.FadeOutDuration > 0 {
		w *= a.ease(clamp01(left / (float32(a.FadeOutDuration) / 1000)))
	}
	return w
}

func (a *Affector) ease(v float32) float32 {
	if a.FadeEase == nil {
		return v
	}
	return a.FadeEase(v, 0, 1, 1)
}

func (a *Affector) turbulence(d *SpawnRecord, c *CurrentRecord, age float32) {
	if a.noise == nil {
		return
	}
	f := float64(a.NoiseFrequency)
	p := c.Position
	t := float64(age * a.NoiseSpeed)
	// Offset each axis into a different region of the noise field.
	base := float64(d.Index % 1024)
	c.Position = p.Add(mgl32.Vec3{
		a.NoiseAmount[0] * float32(a.noise.Noise3D(float64(p[0])*f+t, base, 0)),
		a.NoiseAmount[1] * float32(a.noise.Noise3D(float64(p[1])*f+t, base, 31.7)),
		a.NoiseAmount[2] * float32(a.noise.Noise3D(float64(p[2])*f+t, base, 67.3)),
	})
}

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
