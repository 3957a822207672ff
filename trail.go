package ember

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// prepareTrail computes the per-host amount a trail emitter emits this frame.
// Continuous rate, crossed time-triggered bursts and queued Burst calls all
// contribute; every live followed particle then emits that many.
func (s *System) prepareTrail(e *Emitter) {
	e.trailAmount = 0
	p := s.Particle(e.Particle)
	if p == nil || s.Particle(e.Follow) == nil {
		if !e.warned {
			warnf("trail emitter %q needs a registered particle and follow target", e.Name)
			e.warned = true
		}
		return
	}
	if e.Follow == e.Particle {
		if !e.warned {
			warnf("trail emitter %q follows the particle it emits", e.Name)
			e.warned = true
		}
		return
	}
	if !e.burstGenerated {
		e.burstGenerated = true
		if len(e.EmitBursts) > 0 {
			warnf("trail emitter %q: static bursts are ignored", e.Name)
		}
	}
	e.frame = s.emitterFrame(e)
	now := s.time
	e.clampPrevEmitTime(now)
	if !e.enabled {
		e.prevBurstTime = now
		return
	}
	n, _ := e.continuousAmount(now)
	for i := range e.DynamicBursts {
		b := &e.DynamicBursts[i]
		if b.Enabled && b.Trigger&TriggerTime != 0 && b.Time > e.prevBurstTime && b.Time <= now {
			n += b.amount(&s.rand, s.particleID)
		}
	}
	for _, pb := range e.pending {
		n += pb.amount
	}
	e.trailAmount = n
	e.prevBurstTime = now
	s.drainWindows(e, p, &e.frame, now)
}

// trailsFor collects the enabled trail emitters following kind h.
func (s *System) trailsFor(h ParticleHandle) []*Emitter {
	s.trailBuf = s.trailBuf[:0]
	for _, e := range s.emitters {
		if e != nil && e.Follow == h && e.enabled && e.Follow != e.Particle && s.Particle(e.Particle) != nil {
			s.trailBuf = append(s.trailBuf, e)
		}
	}
	return s.trailBuf
}

// trailTime emits each trail's per-frame amount from a live host position.
func (s *System) trailTime(trails []*Emitter, pos mgl32.Vec3) {
	now := float32(s.time) / 1000
	for _, e := range trails {
		if e.trailAmount <= 0 {
			continue
		}
		s.emitAt(s.particles[e.Particle], e, &e.frame, pos, e.trailAmount, now)
	}
}

// trailStart fires trail-start bursts for a host born this frame.
func (s *System) trailStart(trails []*Emitter, host *Particle, pos mgl32.Vec3) {
	s.trailTrigger(trails, host, pos, TriggerTrailStart, EventTrailStart)
}

// trailEnd fires trail-end bursts for a host that died this frame.
func (s *System) trailEnd(trails []*Emitter, host *Particle, pos mgl32.Vec3) {
	s.trailTrigger(trails, host, pos, TriggerTrailEnd, EventTrailEnd)
}

// trailDeath fires the hooks of a host that died this frame: trail-start
// too when it was also born this frame.
func (s *System) trailDeath(trails []*Emitter, host *Particle, d *SpawnRecord) {
	prevS, nowS := s.frameWindow()
	if d.Lifetime <= 0 {
		s.trailStart(trails, host, d.StartPosition)
		s.trailEnd(trails, host, d.StartPosition)
		return
	}
	if d.StartTime > prevS && d.StartTime <= nowS {
		s.trailStart(trails, host, d.StartPosition)
	}
	s.trailEnd(trails, host, d.EndPosition())
}

// retiredRecord is a record overwritten by emission before its kind was
// processed in the frame it died.
type retiredRecord struct {
	p *Particle
	d SpawnRecord
}

// retire keeps d for flushRetired when a reused slot still owes this frame's
// death hooks.
func (s *System) retire(p *Particle, d *SpawnRecord) {
	if p.processed || !d.Used() || !s.hasTrails(p.handle) {
		return
	}
	prevS, nowS := s.frameWindow()
	if death := d.DeathTime(); death > prevS && death <= nowS {
		s.retired = append(s.retired, retiredRecord{p: p, d: *d})
	}
}

// flushRetired fires the death hooks retired from p.
func (s *System) flushRetired(p *Particle) {
	for i := 0; i < len(s.retired); {
		r := s.retired[i]
		if r.p != p {
			i++
			continue
		}
		s.retired = slices.Delete(s.retired, i, i+1)
		if trails := s.trailsFor(p.handle); len(trails) > 0 {
			s.trailDeath(trails, p, &r.d)
		}
	}
}

func (s *System) hasTrails(h ParticleHandle) bool {
	for _, e := range s.emitters {
		if e != nil && e.Follow == h && e.enabled && e.Follow != e.Particle {
			return true
		}
	}
	return false
}

func (s *System) trailTrigger(trails []*Emitter, host *Particle, pos mgl32.Vec3, trigger BurstTrigger, et EventType) {
	for _, e := range trails {
		p := s.particles[e.Particle]
		total := 0
		for i := range e.DynamicBursts {
			b := &e.DynamicBursts[i]
			if !b.Enabled || b.Trigger&trigger == 0 {
				continue
			}
			n := b.amount(&s.rand, s.particleID)
			if n <= 0 {
				continue
			}
			total += n
			if b.Duration <= 0 {
				s.emitAt(p, e, &e.frame, pos, n, float32(s.time)/1000)
				continue
			}
			e.windows = append(e.windows, burstWindow{
				start: s.time, end: s.time + b.Duration, amount: n, prev: s.time,
				center: pos, hasCenter: true,
			})
		}
		s.event(Event{Type: et, Time: s.time, Particle: host.handle, Emitter: e.handle, Position: pos, Amount: total})
	}
}
