package ember

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// RotationQuantum is the largest error, in degrees, of a packed rotation.
const RotationQuantum = 360.0 / 127.0

const (
	rotationPack   = 127.0 / 360.0
	rotationUnpack = 360.0 / 127.0
)

// PackedVec3 stores one signed byte per axis.
type PackedVec3 struct {
	X, Y, Z int8
}

// Color4ub is an 8-bit per channel RGBA color.
type Color4ub struct {
	R, G, B, A uint8
}

// Vec4 returns the color with channels scaled to [0, 1].
func (c Color4ub) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
}

// SpawnRecord holds everything fixed when a particle is emitted. Times are
// in seconds relative to the system clock.
type SpawnRecord struct {
	Index                 int32
	StartTime             float32
	Lifetime              float32
	StartPosition         mgl32.Vec3
	StartVelocity         mgl32.Vec3
	StartRotation         PackedVec3
	StartRotationVelocity PackedVec3
	StartSize             float32
	EndSize               float32
	StartColor            Color4ub
	// AnimationTime is the sprite sequence period; -1 means use Lifetime.
	AnimationTime float32
}

// clearedRecord marks a slot that has never been emitted into.
var clearedRecord = SpawnRecord{StartTime: -1, AnimationTime: -1}

// Used reports whether the slot holds an emitted particle.
func (d *SpawnRecord) Used() bool { return d.StartTime >= 0 }

// DeathTime returns StartTime + Lifetime.
func (d *SpawnRecord) DeathTime() float32 { return d.StartTime + d.Lifetime }

// AliveAt reports whether the particle is alive at time t seconds.
func (d *SpawnRecord) AliveAt(t float32) bool {
	return d.Used() && d.Lifetime > 0 && t >= d.StartTime && t < d.StartTime+d.Lifetime
}

// EndPosition extrapolates the position at the moment of death.
func (d *SpawnRecord) EndPosition() mgl32.Vec3 {
	return d.StartPosition.Add(d.StartVelocity.Mul(d.Lifetime))
}

// CurrentRecord is the per-frame state of one particle. It is rebuilt from
// the SpawnRecord every frame and never kept across particles.
type CurrentRecord struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Rotation mgl32.Vec3 // degrees
	Scale    mgl32.Vec3
	Color    mgl32.Vec4
}

func packAxis(v float32) int8 {
	if v > 127 {
		v = 127
	} else if v < -127 {
		v = -127
	}
	return int8(v)
}

// PackRotation compresses Euler degrees to one byte per axis.
func PackRotation(deg mgl32.Vec3) PackedVec3 {
	return PackedVec3{
		X: packAxis(deg[0] * rotationPack),
		Y: packAxis(deg[1] * rotationPack),
		Z: packAxis(deg[2] * rotationPack),
	}
}

// UnpackRotation expands a packed rotation back to degrees.
func UnpackRotation(p PackedVec3) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(p.X) * rotationUnpack,
		float32(p.Y) * rotationUnpack,
		float32(p.Z) * rotationUnpack,
	}
}

func packVelocityAxis(v float32) int8 {
	s := float32(math.Sqrt(math.Abs(float64(v))))
	if v < 0 {
		s = -s
	}
	return packAxis(s)
}

// PackRotationVelocity compresses degrees/second with a sign-preserving
// square root. The error for a component v is below 2*sqrt(|v|)+1.
func PackRotationVelocity(v mgl32.Vec3) PackedVec3 {
	return PackedVec3{
		X: packVelocityAxis(v[0]),
		Y: packVelocityAxis(v[1]),
		Z: packVelocityAxis(v[2]),
	}
}

// UnpackRotationVelocity returns |p|*p per axis, in degrees/second.
func UnpackRotationVelocity(p PackedVec3) mgl32.Vec3 {
	x, y, z := float32(p.X), float32(p.Y), float32(p.Z)
	return mgl32.Vec3{absf(x) * x, absf(y) * y, absf(z) * z}
}

// RotationVelocityError returns the documented packing error bound for v.
func RotationVelocityError(v float32) float32 {
	return 2*float32(math.Sqrt(math.Abs(float64(v)))) + 1
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
