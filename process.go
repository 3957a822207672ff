package ember

import "github.com/go-gl/mathgl/mgl32"

// process evaluates every record of p and writes its back buffer.
func (s *System) process(p *Particle) {
	p.alive = 0
	p.processed = true
	s.flushRetired(p)
	switch p.Type {
	case ParticleSprite:
		s.processSprites(p)
	case ParticleLine:
		s.processLines(p)
	case ParticleModel:
		s.processModels(p)
	case ParticleModelBlend:
		s.processModelBlend(p)
	default:
		if s.debug {
			panic("ember: unknown particle type")
		}
		p.buffer.begin(0)
	}
}

// frameWindow returns the (prev, now] update window in seconds.
func (s *System) frameWindow() (prev, now float32) {
	return float32(s.prevTime) / 1000, float32(s.time) / 1000
}

// evaluate rebuilds c for record d and reports whether the particle is alive.
// Trail emitters following p are triggered from here so they see the
// current-frame position.
func (s *System) evaluate(p *Particle, d *SpawnRecord, trails []*Emitter, c *CurrentRecord) bool {
	if !d.Used() {
		return false
	}
	prevS, nowS := s.frameWindow()
	inWindow := func(t float32) bool { return t > prevS && t <= nowS }

	if d.Lifetime <= 0 {
		if len(trails) > 0 && inWindow(d.StartTime) {
			s.trailDeath(trails, p, d)
		}
		return false
	}
	death := d.StartTime + d.Lifetime
	if nowS < d.StartTime {
		return false
	}
	if nowS >= death {
		if len(trails) > 0 && inWindow(death) {
			s.trailDeath(trails, p, d)
		}
		return false
	}

	age := nowS - d.StartTime
	reconstruct(c, d, age)
	p.applyFade(c, age, death-nowS)
	p.applyAlign(c, d)
	s.affect(p, d, c, age)
	// Trails spawn from the affected position, where the host is drawn.
	if len(trails) > 0 {
		if inWindow(d.StartTime) {
			s.trailStart(trails, p, c.Position)
		}
		s.trailTime(trails, c.Position)
	}
	return true
}

// reconstruct derives the current state from the spawn record at age seconds.
func reconstruct(c *CurrentRecord, d *SpawnRecord, age float32) {
	c.Position = d.StartPosition.Add(d.StartVelocity.Mul(age))
	c.Velocity = d.StartVelocity
	c.Rotation = UnpackRotation(d.StartRotation).Add(UnpackRotationVelocity(d.StartRotationVelocity).Mul(age))
	c.Scale = mgl32.Vec3{1, 1, 1}
	c.Color = d.StartColor.Vec4()
}

// affect runs the affector chain in registration order.
func (s *System) affect(p *Particle, d *SpawnRecord, c *CurrentRecord, age float32) {
	for _, a := range s.affectors {
		if a != nil && a.Enabled && a.appliesTo(p.handle) {
			a.affect(s, d, c, age)
		}
	}
}

// currentSize interpolates start to end size over the particle's life.
func currentSize(d *SpawnRecord, age float32, c *CurrentRecord) float32 {
	t := clamp01(age / d.Lifetime)
	return lerp32(d.StartSize, d.EndSize, t) * c.Scale[0]
}

// --- Model instances ---

func (s *System) processModels(p *Particle) {
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
		size := lerp32(d.StartSize, d.EndSize, clamp01(age/d.Lifetime))
		q := eulerToQuat(c.Rotation)
		rec := out[i*ModelInstanceStride : (i+1)*ModelInstanceStride]
		copy(rec[0:3], c.Position[:])
		rec[3], rec[4], rec[5], rec[6] = q.V[0], q.V[1], q.V[2], q.W
		rec[7], rec[8], rec[9] = c.Scale[0]*size, c.Scale[1]*size, c.Scale[2]*size
		copy(rec[10:14], c.Color[:])
		rec[14] = age / d.Lifetime
	}
}
