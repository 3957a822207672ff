package ember

import "github.com/go-gl/mathgl/mgl32"

// DirectionType selects how a Direction produces start velocities.
type DirectionType uint8

const (
	DirectionVector DirectionType = iota // fixed vector with per-axis variation
	DirectionTarget                      // toward a target point
)

// Direction samples a particle's start velocity at emission time.
type Direction struct {
	Type DirectionType

	// Vector fields.
	Direction          mgl32.Vec3
	DirectionVariation mgl32.Vec3

	// Target fields.
	Position           mgl32.Vec3
	PositionVariation  mgl32.Vec3
	Magnitude          float32
	MagnitudeVariation float32
	// Relative treats Position as an offset from the particle's start
	// position instead of a point in system space.
	Relative bool

	// Normalized makes variation change only the heading. Vector directions
	// keep the length of Direction; target directions use Magnitude alone.
	Normalized bool
}

// NewVectorDirection creates a vector direction.
func NewVectorDirection(dir, variation mgl32.Vec3) *Direction {
	return &Direction{Type: DirectionVector, Direction: dir, DirectionVariation: variation}
}

// NewTargetDirection creates a target direction toward pos with the given speed.
func NewTargetDirection(pos mgl32.Vec3, magnitude float32) *Direction {
	return &Direction{Type: DirectionTarget, Position: pos, Magnitude: magnitude, Normalized: true}
}

// Sample returns a velocity for the particle described by d. d.Index and
// d.StartPosition must already be set.
func (dir *Direction) Sample(r *Random, d *SpawnRecord) mgl32.Vec3 {
	switch dir.Type {
	case DirectionVector:
		v := dir.DirectionVariation
		ret := mgl32.Vec3{
			r.variation(d.Index, RandVDirXV, dir.Direction[0], v[0]),
			r.variation(d.Index, RandVDirYV, dir.Direction[1], v[1]),
			r.variation(d.Index, RandVDirZV, dir.Direction[2], v[2]),
		}
		if dir.Normalized {
			if l := ret.Len(); l > 0 {
				ret = ret.Mul(dir.Direction.Len() / l)
			}
		}
		return ret
	case DirectionTarget:
		v := dir.PositionVariation
		ret := mgl32.Vec3{
			r.variation(d.Index, RandTDirPosXV, dir.Position[0], v[0]),
			r.variation(d.Index, RandTDirPosYV, dir.Position[1], v[1]),
			r.variation(d.Index, RandTDirPosZV, dir.Position[2], v[2]),
		}
		if !dir.Relative {
			ret = ret.Sub(d.StartPosition)
		}
		if dir.Normalized {
			if l := ret.Len(); l > 0 {
				ret = ret.Mul(1 / l)
			}
		}
		mag := r.variation(d.Index, RandTDirMagV, dir.Magnitude, dir.MagnitudeVariation)
		return ret.Mul(mag)
	}
	if globalDebug {
		panic("ember: unknown direction type")
	}
	return mgl32.Vec3{}
}
