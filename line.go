package ember

import "github.com/go-gl/mathgl/mgl32"

// TexcoordMode maps trail arc length to the U texture coordinate.
type TexcoordMode uint8

const (
	TexcoordAbsolute TexcoordMode = iota // U follows distance traveled; the texture sticks to the path
	TexcoordRelative                     // U is distance from the head; the texture moves with the head
	TexcoordFill                         // U spans [0, 1] over the whole trail
)

// LineOptions configures the trail of a ParticleLine kind.
type LineOptions struct {
	// SegmentCount is the number of history samples kept per particle.
	SegmentCount int
	// AlphaFade is how much alpha is lost at the tail, in [0, 1].
	AlphaFade float32
	// ScaleMultiplier is the width multiplier at the tail.
	ScaleMultiplier    float32
	TexcoordMultiplier float32
	TexcoordMode       TexcoordMode
	// Length, when > 0, fixes the trail length; samples are then placed
	// every Length/SegmentCount units regardless of frame rate.
	Length          float32
	LengthVariation float32
	// LengthDeltaMin is the distance a particle must move before a new
	// sample is recorded when Length is unset.
	LengthDeltaMin float32
	// EOLFadeOutDuration keeps a dead particle's trail visible, fading,
	// for this many milliseconds.
	EOLFadeOutDuration int
}

// DefaultLineOptions returns single-segment trails with no fade.
func DefaultLineOptions() LineOptions {
	return LineOptions{
		SegmentCount:       1,
		ScaleMultiplier:    1,
		TexcoordMultiplier: 1,
		LengthDeltaMin:     10,
	}
}

// LineSample is one recorded point of a trail.
type LineSample struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
	Binormal mgl32.Vec3
	Color    mgl32.Vec4
	Size     float32
	// Length is the arc length traveled since the first sample.
	Length float32
}

// lineHistory is a ring of the newest samples for one slot.
type lineHistory struct {
	owner   int32
	death   float32 // owner's death time, kept for the echo on slot reuse
	used    bool
	samples []LineSample
	head    int // newest sample
	count   int
}

// lineEcho is the frozen trail of a dead particle fading out.
type lineEcho struct {
	points []LineSample // head first
	death  float32
}

type lineState struct {
	histories []lineHistory
	echoes    []lineEcho
	points    []LineSample
}

func (p *Particle) resetLines() {
	if p.lines == nil {
		p.lines = &lineState{}
	}
	ls := p.lines
	if cap(ls.histories) >= p.maxAmount {
		ls.histories = ls.histories[:p.maxAmount]
	} else {
		ls.histories = make([]lineHistory, p.maxAmount)
	}
	for i := range ls.histories {
		ls.histories[i].clear()
	}
	ls.echoes = ls.echoes[:0]
}

func (h *lineHistory) clear() {
	h.used = false
	h.count = 0
	h.head = -1
}

func (h *lineHistory) start(owner int32, death float32, segments int) {
	if segments < 1 {
		segments = 1
	}
	if cap(h.samples) >= segments {
		h.samples = h.samples[:segments]
	} else {
		h.samples = make([]LineSample, segments)
	}
	h.owner = owner
	h.death = death
	h.used = true
	h.count = 0
	h.head = -1
}

func (h *lineHistory) push(s LineSample) {
	h.head = (h.head + 1) % len(h.samples)
	h.samples[h.head] = s
	if h.count < len(h.samples) {
		h.count++
	}
}

// at returns the i-th newest sample (0 = newest).
func (h *lineHistory) at(i int) *LineSample {
	n := len(h.samples)
	return &h.samples[((h.head-i)%n+n)%n]
}

// LinePoints returns the number of packed points per trail.
func (p *Particle) LinePoints() int { return p.Line.SegmentCount + 1 }

// LineHistory returns a copy of the recorded samples for slot, oldest first.
func (p *Particle) LineHistory(slot int) []LineSample {
	if p.lines == nil || slot < 0 || slot >= len(p.lines.histories) {
		return nil
	}
	h := &p.lines.histories[slot]
	if !h.used {
		return nil
	}
	out := make([]LineSample, h.count)
	for i := 0; i < h.count; i++ {
		out[h.count-1-i] = *h.at(i)
	}
	return out
}

// FadingTrails returns how many dead trails are still fading out.
func (p *Particle) FadingTrails() int {
	if p.lines == nil {
		return 0
	}
	return len(p.lines.echoes)
}

// segmentLength returns the fixed sample spacing for d, or 0 when the
// trail uses LengthDeltaMin.
func (p *Particle) segmentLength(r *Random, d *SpawnRecord) float32 {
	o := &p.Line
	if o.Length <= 0 || o.SegmentCount <= 0 {
		return 0
	}
	l := r.variation(d.Index, RandLineLengthV, o.Length, o.LengthVariation)
	if l <= 0 {
		return 0
	}
	return l / float32(o.SegmentCount)
}

func binormalOf(tangent, normal mgl32.Vec3) mgl32.Vec3 {
	b := tangent.Cross(normal)
	if b.Len() < 1e-6 {
		b = tangent.Cross(mgl32.Vec3{0, 1, 0})
		if b.Len() < 1e-6 {
			b = tangent.Cross(mgl32.Vec3{1, 0, 0})
		}
	}
	if b.Len() < 1e-6 {
		return mgl32.Vec3{}
	}
	return b.Normalize()
}

func safeNormalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	if l := v.Len(); l > 1e-6 {
		return v.Mul(1 / l)
	}
	return fallback
}

// recordSample appends history samples for the particle's new position and
// returns the head sample.
func (p *Particle) recordSample(r *Random, h *lineHistory, d *SpawnRecord, c *CurrentRecord, size float32) LineSample {
	head := LineSample{
		Position: c.Position,
		Normal:   eulerToQuat(c.Rotation).Rotate(mgl32.Vec3{0, 0, 1}),
		Color:    c.Color,
		Size:     size,
	}
	if !h.used {
		h.start(d.Index, d.DeathTime(), p.Line.SegmentCount)
		head.Tangent = safeNormalize(c.Velocity, mgl32.Vec3{0, 0, 1})
		head.Binormal = binormalOf(head.Tangent, head.Normal)
		h.push(head)
		return head
	}

	last := *h.at(0)
	delta := head.Position.Sub(last.Position)
	dist := delta.Len()
	head.Tangent = safeNormalize(delta, last.Tangent)
	head.Binormal = binormalOf(head.Tangent, head.Normal)

	if seg := p.segmentLength(r, d); seg > 0 {
		for dist >= seg {
			s := head
			s.Position = last.Position.Add(head.Tangent.Mul(seg))
			s.Length = last.Length + seg
			h.push(s)
			last = s
			dist -= seg
		}
	} else if dist >= p.Line.LengthDeltaMin {
		head.Length = last.Length + dist
		h.push(head)
		return head
	}
	head.Length = last.Length + dist
	return head
}

// processLines evaluates every slot and writes LinePoints records per live
// trail, followed by the fading trails of dead particles.
func (s *System) processLines(p *Particle) {
	if p.lines == nil {
		p.resetLines()
	}
	ls := p.lines
	p.buffer.begin(0)
	trails := s.trailsFor(p.handle)
	_, nowS := s.frameWindow()
	var c CurrentRecord
	for i := 0; i < p.maxAmount; i++ {
		slot := p.sortedSlot(i)
		d := &p.records[slot]
		h := &ls.histories[slot]
		if h.used && (!d.Used() || d.Index != h.owner) {
			// The owner's slot was reused in the frame it died.
			if p.Line.EOLFadeOutDuration > 0 && h.count > 0 && nowS >= h.death {
				ls.echoes = append(ls.echoes, lineEcho{points: h.snapshot(nil, nil), death: h.death})
			}
			h.clear()
		}
		if !s.evaluate(p, d, trails, &c) {
			if h.used && nowS >= d.DeathTime() {
				if p.Line.EOLFadeOutDuration > 0 && h.count > 0 {
					ls.echoes = append(ls.echoes, lineEcho{points: h.snapshot(nil, nil), death: d.DeathTime()})
				}
				h.clear()
			}
			continue
		}
		p.alive++
		age := nowS - d.StartTime
		head := p.recordSample(&s.rand, h, d, &c, currentSize(d, age, &c))
		ls.points = h.snapshot(ls.points[:0], &head)
		p.writeLine(ls.points, 1)
	}

	fade := float32(p.Line.EOLFadeOutDuration) / 1000
	kept := ls.echoes[:0]
	for _, e := range ls.echoes {
		f := (nowS - e.death) / fade
		if fade <= 0 || f < 0 || f >= 1 {
			continue
		}
		p.writeLine(e.points, 1-f)
		kept = append(kept, e)
	}
	ls.echoes = kept
}

// snapshot returns head (if any) followed by the history, newest first.
func (h *lineHistory) snapshot(dst []LineSample, head *LineSample) []LineSample {
	skip := 0
	if head != nil {
		dst = append(dst, *head)
		if h.count > 0 && h.at(0).Position == head.Position {
			skip = 1
		}
	}
	for i := skip; i < h.count; i++ {
		dst = append(dst, *h.at(i))
	}
	return dst
}

// writeLine packs points (head first) into LinePoints records, repeating
// the tail to fill unused points.
func (p *Particle) writeLine(points []LineSample, alpha float32) {
	n := p.LinePoints()
	if len(points) > n {
		points = points[:n]
	}
	if len(points) == 0 {
		return
	}
	o := &p.Line
	headLen := points[0].Length
	tailLen := points[len(points)-1].Length
	for k := 0; k < n; k++ {
		idx := k
		if idx >= len(points) {
			idx = len(points) - 1
		}
		pt := &points[idx]
		var t float32
		if len(points) > 1 {
			t = float32(idx) / float32(len(points)-1)
		}
		var u float32
		switch o.TexcoordMode {
		case TexcoordRelative:
			u = (headLen - pt.Length) * o.TexcoordMultiplier
		case TexcoordFill:
			if total := headLen - tailLen; total > 0 {
				u = (headLen - pt.Length) / total * o.TexcoordMultiplier
			}
		default:
			u = pt.Length * o.TexcoordMultiplier
		}
		rec := p.buffer.grow()
		copy(rec[0:3], pt.Position[:])
		copy(rec[3:6], pt.Binormal[:])
		rec[6], rec[7], rec[8] = pt.Color[0], pt.Color[1], pt.Color[2]
		rec[9] = pt.Color[3] * alpha * (1 - o.AlphaFade*t)
		rec[10] = pt.Size * lerp32(1, o.ScaleMultiplier, t)
		rec[11] = u
	}
}
