package ember

import "math"

// AnimationDirection selects how a sprite sequence plays.
type AnimationDirection uint8

const (
	AnimNormal           AnimationDirection = iota // first to last, looping
	AnimReverse                                    // last to first, looping
	AnimAlternate                                  // forward then backward
	AnimAlternateReverse                           // backward then forward
	AnimSingleFrame                                // hold the start frame
)

// frameMax keeps frame positions strictly below 1.
const frameMax = 1 - 1e-6

// SpriteSequence animates sprites through a horizontal strip of frames.
type SpriteSequence struct {
	FrameCount int
	FrameIndex int
	// RandomStart picks a per-particle start frame instead of FrameIndex.
	RandomStart bool
	// Interpolate lets renderers blend between neighboring frames.
	Interpolate bool
	// Duration is one pass through the strip in milliseconds; 0 uses the
	// particle lifetime.
	Duration          int
	DurationVariation int
	Direction         AnimationDirection
}

// startFrame returns the normalized start offset for the particle.
func (q *SpriteSequence) startFrame(r *Random, d *SpawnRecord) float32 {
	if q.FrameCount <= 0 {
		return 0
	}
	f := q.FrameIndex
	if q.RandomStart {
		f = int(r.GetFor(d.Index, RandSpriteAnimationI) * float32(q.FrameCount))
	}
	if f < 0 {
		f = 0
	} else if f >= q.FrameCount {
		f = q.FrameCount - 1
	}
	return float32(f) / float32(q.FrameCount)
}

// Frame returns the position within the strip in [0, 1) at age seconds.
func (q *SpriteSequence) Frame(r *Random, d *SpawnRecord, age float32) float32 {
	start := q.startFrame(r, d)
	period := d.AnimationTime
	if period <= 0 {
		period = d.Lifetime
	}
	var x float32
	if period > 0 {
		x = start + age/period
	}
	var v float64
	switch q.Direction {
	case AnimSingleFrame:
		v = float64(start)
	case AnimReverse:
		v = 1 - fract(float64(x))
	case AnimAlternate:
		v = math.Abs(math.Mod(1+float64(x), 2) - 1)
	case AnimAlternateReverse:
		v = 1 - math.Abs(math.Mod(1+float64(x), 2)-1)
	default:
		v = fract(float64(x))
	}
	if v < 0 {
		v = 0
	}
	if v > frameMax {
		v = frameMax
	}
	return float32(v)
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

// processSprites writes one SpriteStride record per slot. Dead and unused
// slots stay zeroed (zero size, zero alpha).
func (s *System) processSprites(p *Particle) {
	out := p.buffer.begin(p.maxAmount)
	trails := s.trailsFor(p.handle)
	_, nowS := s.frameWindow()
	var c CurrentRecord
	for i := 0; i < p.maxAmount; i++ {
		d := &p.records[p.sortedSlot(i)]
		if !s.evaluate(p, d, trails, &c) {
			continue
		}
		p.alive++
		age := nowS - d.StartTime
		rec := out[i*SpriteStride : (i+1)*SpriteStride]
		writeSprite(rec, &c, currentSize(d, age, &c), age/d.Lifetime, p.spriteFrame(&s.rand, d, age))
	}
}

func (p *Particle) spriteFrame(r *Random, d *SpawnRecord, age float32) float32 {
	if p.Sequence == nil {
		return 0
	}
	return p.Sequence.Frame(r, d, age)
}

func writeSprite(rec []float32, c *CurrentRecord, size, age, frame float32) {
	copy(rec[0:3], c.Position[:])
	rec[3] = size
	rec[4] = c.Rotation[0] * math.Pi / 180
	rec[5] = c.Rotation[1] * math.Pi / 180
	rec[6] = c.Rotation[2] * math.Pi / 180
	rec[7] = age
	copy(rec[8:12], c.Color[:])
	rec[12] = frame
}
