package ember

import "github.com/go-gl/mathgl/mgl32"

// ModelBlendMode selects how mesh triangles move between the model and the
// simulated particles.
type ModelBlendMode uint8

const (
	// BlendExplode starts every triangle at its place in the model and lets
	// it fly away with the particle.
	BlendExplode ModelBlendMode = iota
	// BlendConstruct emits triangles from the emitter and assembles them
	// into the model over the last EndTime of their life.
	BlendConstruct
	// BlendTransfer lifts triangles off the model and assembles them into
	// the pose of EndNode.
	BlendTransfer
)

// EmitMode selects the order triangles are emitted.
type EmitMode uint8

const (
	EmitSequential EmitMode = iota // triangle order of the mesh
	EmitRandom                     // a permutation drawn once per reset
	EmitActivation                 // when the activation plane passes the triangle center
)

// ModelBlend holds the model-blend parameters of a particle kind. Each
// particle is one triangle of Mesh and the slot index is the triangle index.
type ModelBlend struct {
	Mesh     *Mesh
	Mode     ModelBlendMode
	EmitMode EmitMode

	// Node places the model relative to the system node. Nil uses the
	// system space directly.
	Node *Node
	// EndNode is the assembled pose for BlendTransfer.
	EndNode *Node
	// EndTime is the assembly window at the end of each particle's life in
	// milliseconds. 0 blends over the whole life.
	EndTime int

	// ActivationNode sweeps a cut plane along ActivationAxis (in the node's
	// local space). Triangles behind the plane are emitted.
	ActivationNode *Node
	ActivationAxis mgl32.Vec3

	centers   []mgl32.Vec3 // mesh space
	order     []int
	emitted   int
	activated []bool
	warned    bool
}

// reset clears emission progress for n triangles.
func (b *ModelBlend) reset(n int) {
	b.emitted = 0
	if cap(b.activated) >= n {
		b.activated = b.activated[:n]
	} else {
		b.activated = make([]bool, n)
	}
	clear(b.activated)
	if cap(b.centers) >= n {
		b.centers = b.centers[:n]
	} else {
		b.centers = make([]mgl32.Vec3, n)
	}
	for i := 0; i < n; i++ {
		v0, v1, v2 := b.Mesh.Triangle(i)
		b.centers[i] = v0.Add(v1).Add(v2).Mul(1.0 / 3)
	}
	b.order = b.order[:0]
}

// Emitted returns how many triangles have been emitted since the last reset.
func (b *ModelBlend) Emitted() int { return b.emitted }

// nextSlot returns the next triangle to emit or -1 once every triangle has
// been emitted.
func (b *ModelBlend) nextSlot(p *Particle, r *Random) int {
	n := p.maxAmount
	if b.emitted >= n {
		return -1
	}
	slot := b.emitted
	if b.EmitMode == EmitRandom {
		slot = b.permutation(r, n)[b.emitted]
	}
	b.emitted++
	return slot
}

// permutation shuffles the triangle order once per reset, keyed on the
// random table so it is reproducible for a fixed seed.
func (b *ModelBlend) permutation(r *Random, n int) []int {
	if len(b.order) == n {
		return b.order
	}
	b.order = b.order[:0]
	for i := 0; i < n; i++ {
		b.order = append(b.order, i)
	}
	for i := n - 1; i > 0; i-- {
		j := int(r.GetFor(int32(i), RandModelBlendOrder) * float32(i+1))
		if j > i {
			j = i
		}
		b.order[i], b.order[j] = b.order[j], b.order[i]
	}
	return b.order
}

// modelTransform returns the model's placement in system space.
func (b *ModelBlend) modelTransform(s *System) mgl32.Mat4 {
	if b.Node == nil {
		return mgl32.Ident4()
	}
	return b.Node.TransformRelativeTo(s.Node)
}

func (b *ModelBlend) endTransform(s *System) mgl32.Mat4 {
	if b.EndNode == nil {
		return b.modelTransform(s)
	}
	return b.EndNode.TransformRelativeTo(s.Node)
}

// centerInSystem returns the center of triangle slot in system space.
func (b *ModelBlend) centerInSystem(s *System, slot int) mgl32.Vec3 {
	if slot < 0 || slot >= len(b.centers) {
		return mgl32.Vec3{}
	}
	return mgl32.TransformCoordinate(b.centers[slot], b.modelTransform(s))
}

// emitActivated emits every triangle whose center the activation plane has
// passed since the last frame.
func (s *System) emitActivated(p *Particle, e *Emitter, f *emitFrame) {
	b := p.Blend
	if b.ActivationNode == nil {
		if !b.warned {
			warnf("model blend particle %q uses activation emission without an activation node", p.Name)
			b.warned = true
		}
		return
	}
	axis := b.ActivationAxis
	if axis.Len() < 1e-6 {
		axis = mgl32.Vec3{0, 0, 1}
	}
	axis = b.ActivationNode.RotationRelativeTo(s.Node).Rotate(axis.Normalize())
	origin := b.ActivationNode.TransformRelativeTo(s.Node).Col(3).Vec3()
	model := b.modelTransform(s)
	now := float32(s.time) / 1000
	for i := range b.activated {
		if b.activated[i] {
			continue
		}
		c := mgl32.TransformCoordinate(b.centers[i], model)
		if c.Sub(origin).Dot(axis) > 0 {
			continue
		}
		b.activated[i] = true
		b.emitted++
		s.emitParticle(p, e, now, f, f.center, i)
	}
}

// processModelBlend writes one TriangleStride record per mesh triangle.
func (s *System) processModelBlend(p *Particle) {
	b := p.Blend
	out := p.buffer.begin(p.maxAmount)
	if b == nil || b.Mesh == nil {
		return
	}
	trails := s.trailsFor(p.handle)
	_, nowS := s.frameWindow()
	model := b.modelTransform(s)
	end := b.endTransform(s)
	base := p.Color.Vec4()
	var c CurrentRecord
	for i := 0; i < p.maxAmount; i++ {
		d := &p.records[i]
		rec := out[i*TriangleStride : (i+1)*TriangleStride]
		v0, v1, v2 := b.Mesh.Triangle(i)
		orig := [3]mgl32.Vec3{
			mgl32.TransformCoordinate(v0, model),
			mgl32.TransformCoordinate(v1, model),
			mgl32.TransformCoordinate(v2, model),
		}

		if !s.evaluate(p, d, trails, &c) {
			switch {
			case !d.Used() || nowS < d.StartTime:
				// Waiting triangles keep the model pose, except in construct
				// mode where the model is not there yet.
				if b.Mode != BlendConstruct {
					writeTriangle(rec, orig, base, 0)
				}
			case b.Mode == BlendConstruct:
				writeTriangle(rec, orig, base, 1)
			case b.Mode == BlendTransfer:
				writeTriangle(rec, [3]mgl32.Vec3{
					mgl32.TransformCoordinate(v0, end),
					mgl32.TransformCoordinate(v1, end),
					mgl32.TransformCoordinate(v2, end),
				}, base, 1)
			}
			continue
		}
		p.alive++
		age := nowS - d.StartTime

		// Fly the triangle rigidly around the particle position.
		center := mgl32.TransformCoordinate(b.centers[i], model)
		q := eulerToQuat(c.Rotation)
		size := currentSize(d, age, &c)
		var tri [3]mgl32.Vec3
		for k, v := range orig {
			tri[k] = c.Position.Add(q.Rotate(v.Sub(center).Mul(size)))
		}

		if b.Mode != BlendExplode {
			target := orig
			if b.Mode == BlendTransfer {
				target = [3]mgl32.Vec3{
					mgl32.TransformCoordinate(v0, end),
					mgl32.TransformCoordinate(v1, end),
					mgl32.TransformCoordinate(v2, end),
				}
			}
			t := b.assembly(d, age)
			for k := range tri {
				tri[k] = lerpVec3(tri[k], target[k], t)
			}
		}
		writeTriangle(rec, tri, c.Color, age/d.Lifetime)
	}
}

// assembly returns how far a triangle has moved onto its target pose.
func (b *ModelBlend) assembly(d *SpawnRecord, age float32) float32 {
	window := float32(b.EndTime) / 1000
	if window <= 0 || window > d.Lifetime {
		window = d.Lifetime
	}
	return clamp01((age - (d.Lifetime - window)) / window)
}

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func writeTriangle(rec []float32, tri [3]mgl32.Vec3, color mgl32.Vec4, age float32) {
	copy(rec[0:3], tri[0][:])
	copy(rec[3:6], tri[1][:])
	copy(rec[6:9], tri[2][:])
	copy(rec[9:13], color[:])
	rec[13] = age
}
