// Package ember is a deterministic 3D particle simulation for games and
// tools. It runs on the CPU, single-threaded, and produces flat float32
// buffers ready for a GPU or the bundled [Ebitengine] preview renderer.
//
// # Quick start
//
// Create a [System], register a particle kind, point an [Emitter] at it and
// drive the clock once per frame:
//
//	sys := ember.NewSystem(ember.ConfigFromEnv())
//	sparks := ember.NewSpriteParticle("sparks", 500)
//	h := sys.AddParticle(sparks)
//
//	e := ember.NewEmitter("fountain", h)
//	e.EmitRate = 140
//	e.LifeSpan = 2000
//	e.Velocity = ember.NewVectorDirection(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{3, 2, 3})
//	sys.AddEmitter(e)
//
//	sys.SetRunning(true)
//	// each frame:
//	sys.Tick(16)
//
// Committed buffers are delivered to the [Sink] set with [System.SetSink].
// [EbitenRenderer] is a Sink that draws them with DrawTriangles32.
//
// # Determinism
//
// Every per-particle attribute is drawn from a [Random] table keyed by the
// particle id and a [RandTag]. With a fixed seed
// (SetUseRandomSeed(false)) the same sequence of Tick and SetTime calls
// produces byte-identical buffers.
//
// # Particle kinds
//
// A [Particle] is a kind: a fixed-capacity ring of [SpawnRecord] values.
// The current state of a particle is never stored; each update rebuilds it
// from the spawn record and its age, runs the [Affector] chain and packs it.
//
//   - [ParticleSprite]: camera-facing quads, [SpriteStride] floats each.
//   - [ParticleLine]: sprites that also record a trail history, packed as
//     [LinePointStride] points.
//   - [ParticleModel]: instance transforms, [ModelInstanceStride] floats.
//   - [ParticleModelBlend]: one triangle of a [Mesh] per particle,
//     [TriangleStride] floats.
//
// # Emission
//
// Emitters emit continuously at EmitRate, in static [EmitBurst] lists
// generated once per run, and in [DynamicBurst] triggers fired by time or by
// the birth and death of another kind's particles (trail emitters, see
// [NewTrailEmitter]). Positions come from a [Shape] and velocities from a
// [Direction].
//
// # Effect files
//
// [LoadEffect] builds a complete System from a YAML description. See
// effect.go for the schema.
//
// # Logging
//
// Misconfiguration never stops a frame. It is reported once as an
// "[ember] warning:" line on [LogOutput] (stderr by default).
//
// [Ebitengine]: https://ebitengine.org
package ember
