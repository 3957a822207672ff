package ember

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// setupBenchSystem creates a running System with one sprite kind holding n
// particles, all alive after warm-up.
func setupBenchSystem(n int) (*System, *Emitter) {
	s := newTestSystem()
	p, e := addSprites(s, n, float32(n), 2000)
	p.ColorVariation = mgl32.Vec4{0.2, 0.2, 0.2, 0}
	e.Velocity = NewVectorDirection(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{2, 2, 2})
	e.SetShape(NewSphereShape(mgl32.Vec3{1, 1, 1}, true))
	for i := 0; i < 120; i++ {
		s.Tick(16)
	}
	return s, e
}

// --- Update Benchmarks ---

func BenchmarkTick_10000Sprites(b *testing.B) {
	s, _ := setupBenchSystem(10000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Tick(16)
	}
}

func BenchmarkTick_10000Sprites_Affectors(b *testing.B) {
	s, _ := setupBenchSystem(10000)
	s.AddAffector(NewGravity("gravity", 9.8, mgl32.Vec3{0, -1, 0}))
	w := NewWander("wander")
	w.GlobalAmount = mgl32.Vec3{0.5, 0, 0.5}
	w.GlobalPace = mgl32.Vec3{0.3, 0, 0.2}
	w.UniqueAmount = mgl32.Vec3{0.2, 0.2, 0.2}
	w.UniquePace = mgl32.Vec3{1, 1, 1}
	s.AddAffector(w)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Tick(16)
	}
}

func BenchmarkTick_Scene(b *testing.B) {
	s := newSeededScene(1)
	for i := 0; i < 60; i++ {
		s.Tick(16)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Tick(16)
	}
}

func BenchmarkTick_Lines(b *testing.B) {
	s := newTestSystem()
	p := NewLineParticle("lines", 1000, 16)
	p.Line.LengthDeltaMin = 0.05
	h := s.AddParticle(p)
	e := NewEmitter("e", h)
	e.EmitRate = 500
	e.Velocity = NewVectorDirection(mgl32.Vec3{0, 4, 0}, mgl32.Vec3{3, 1, 3})
	s.Node.AddChild(e.Node)
	s.AddEmitter(e)
	for i := 0; i < 120; i++ {
		s.Tick(16)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Tick(16)
	}
}

func BenchmarkTick_ModelBlend(b *testing.B) {
	s := newTestSystem()
	p := NewModelBlendParticle("shards", NewSphereMesh(2, 24, 32))
	h := s.AddParticle(p)
	e := NewEmitter("e", h)
	e.EmitRate = 2000
	e.LifeSpan = 100000
	e.Velocity = NewVectorDirection(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	s.Node.AddChild(e.Node)
	s.AddEmitter(e)
	for i := 0; i < 60; i++ {
		s.Tick(16)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s.Tick(16)
	}
}

// --- Random Benchmarks ---

func BenchmarkRandomGetFor(b *testing.B) {
	r := NewRandom(1, DefaultRandomTableSize)
	var sink float32

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sink += r.GetFor(int32(i), RandVDirXV)
	}
	_ = sink
}

func BenchmarkShapePosition_Mesh(b *testing.B) {
	s := newTestSystem()
	sh := ShapeFromMesh(NewSphereMesh(1, 16, 24), true)
	parent := NewNode("parent")
	s.Node.AddChild(parent)
	sh.Parent = parent
	r := s.Random()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = sh.Position(r, int32(i), s.Node)
	}
}
