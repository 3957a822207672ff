package ember

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 float32 parameters simultaneously. Create one
// via the convenience constructors (TweenEmitRate, TweenPosition,
// TweenColor, ...) and call Update(dt) each frame, before ticking the
// system. If a target node is set it is marked dirty after every write.
//
// There is no global animation manager; users call Update themselves.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	fields [4]*float32
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and writes values to the target
// fields.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	if g.target != nil {
		g.target.MarkDirty()
	}
}

func (g *TweenGroup) add(field *float32, to, duration float32, fn ease.TweenFunc) {
	if fn == nil {
		fn = ease.Linear
	}
	g.tweens[g.count] = gween.New(*field, to, duration, fn)
	g.fields[g.count] = field
	g.count++
}

// TweenEmitRate animates e.EmitRate to the target rate.
func TweenEmitRate(e *Emitter, to, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{}
	g.add(&e.EmitRate, to, duration, fn)
	return g
}

// TweenParticleScale animates the emitter's start and end particle scale.
// A negative end scale is resolved to the start scale first.
func TweenParticleScale(e *Emitter, to, toEnd, duration float32, fn ease.TweenFunc) *TweenGroup {
	if e.ParticleEndScale < 0 {
		e.ParticleEndScale = e.ParticleScale
	}
	g := &TweenGroup{}
	g.add(&e.ParticleScale, to, duration, fn)
	g.add(&e.ParticleEndScale, toEnd, duration, fn)
	return g
}

// TweenGravity animates an affector's Magnitude.
func TweenGravity(a *Affector, to, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{}
	g.add(&a.Magnitude, to, duration, fn)
	return g
}

// TweenPosition animates node.Position to the target over duration seconds.
func TweenPosition(node *Node, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.Position[0], to[0], duration, fn)
	g.add(&node.Position[1], to[1], duration, fn)
	g.add(&node.Position[2], to[2], duration, fn)
	return g
}

// TweenRotation animates node.Rotation (Euler degrees) to the target.
func TweenRotation(node *Node, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{target: node}
	g.add(&node.Rotation[0], to[0], duration, fn)
	g.add(&node.Rotation[1], to[1], duration, fn)
	g.add(&node.Rotation[2], to[2], duration, fn)
	return g
}

// TweenColor animates all four components of a particle kind's base color.
// Only particles emitted after each Update see the new color.
func TweenColor(p *Particle, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{}
	g.add(&p.Color.R, to.R, duration, fn)
	g.add(&p.Color.G, to.G, duration, fn)
	g.add(&p.Color.B, to.B, duration, fn)
	g.add(&p.Color.A, to.A, duration, fn)
	return g
}
