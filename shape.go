package ember

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// ShapeType selects the volume a Shape samples from.
type ShapeType uint8

const (
	ShapeBox       ShapeType = iota // axis-aligned cuboid of half size Extents
	ShapeSphere                     // ellipsoid with radii Extents
	ShapeCylinder                   // Y-aligned cylinder, radii Extents.X/Z, half height Extents.Y
	ShapeMesh                       // triangle surface of Mesh
	ShapePointFile                  // fixed point list, usually loaded with ReadShapeFile
)

// meshFillLambda biases filled mesh samples toward the surface.
const meshFillLambda = 5.0

// Shape produces emission or attraction positions. Positions are returned
// relative to the parent node origin, rotated and scaled by the parent but
// not translated.
type Shape struct {
	Type ShapeType
	// Fill samples the whole volume instead of only the surface.
	Fill    bool
	Extents mgl32.Vec3
	// Scale multiplies Extents (box, sphere, cylinder) or mesh positions.
	Scale  mgl32.Vec3
	Parent *Node

	Mesh *Mesh

	Points []mgl32.Vec3
	// Randomize shuffles a copy of Points once before first use.
	Randomize bool

	// cached mesh data
	meshSrc     *Mesh
	cumulative  []float32
	areaSum     float32
	meshCenter  mgl32.Vec3
	shuffled    bool
	order       []mgl32.Vec3 // shuffled copy of Points
	warned      bool
	version     int
	lastVersion int
}

// NewBoxShape creates a box shape with the given half extents.
func NewBoxShape(extents mgl32.Vec3, fill bool) *Shape {
	return &Shape{Type: ShapeBox, Extents: extents, Fill: fill, Scale: mgl32.Vec3{1, 1, 1}}
}

// NewSphereShape creates an ellipsoid shape with the given radii.
func NewSphereShape(extents mgl32.Vec3, fill bool) *Shape {
	return &Shape{Type: ShapeSphere, Extents: extents, Fill: fill, Scale: mgl32.Vec3{1, 1, 1}}
}

// NewCylinderShape creates a Y-aligned cylinder shape.
func NewCylinderShape(extents mgl32.Vec3, fill bool) *Shape {
	return &Shape{Type: ShapeCylinder, Extents: extents, Fill: fill, Scale: mgl32.Vec3{1, 1, 1}}
}

// ShapeFromMesh creates a shape sampling the surface (or volume) of m.
func ShapeFromMesh(m *Mesh, fill bool) *Shape {
	return &Shape{Type: ShapeMesh, Mesh: m, Fill: fill, Scale: mgl32.Vec3{1, 1, 1}}
}

// ShapeFromPoints creates a shape cycling through a fixed point list.
func ShapeFromPoints(points []mgl32.Vec3, randomize bool) *Shape {
	return &Shape{Type: ShapePointFile, Points: points, Randomize: randomize, Scale: mgl32.Vec3{1, 1, 1}}
}

// Invalidate marks cached data as stale. Call after editing Mesh, Points or
// any field read by attractor position caches.
func (s *Shape) Invalidate() {
	s.meshSrc = nil
	s.shuffled = false
	s.version++
}

// Position returns the sample for particle index. root is the node whose
// space positions are expressed in; nil means world space. Without a Parent
// the zero vector is returned and a warning is logged once.
func (s *Shape) Position(r *Random, index int32, root *Node) mgl32.Vec3 {
	if s.Parent == nil {
		if !s.warned {
			warnf("shape without a parent node; sampling the origin")
			s.warned = true
		}
		return mgl32.Vec3{}
	}
	scale := s.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	ps := s.Parent.ScaleRelativeTo(root)
	scale = mgl32.Vec3{scale[0] * ps[0], scale[1] * ps[1], scale[2] * ps[2]}

	var p mgl32.Vec3
	switch s.Type {
	case ShapeBox:
		p = s.boxPosition(r, index, scale)
	case ShapeSphere:
		p = s.spherePosition(r, index, scale)
	case ShapeCylinder:
		p = s.cylinderPosition(r, index, scale)
	case ShapeMesh:
		p = s.meshPosition(r, index)
		p = mgl32.Vec3{p[0] * scale[0], p[1] * scale[1], p[2] * scale[2]}
	case ShapePointFile:
		p = s.pointPosition(r, index)
		p = mgl32.Vec3{p[0] * scale[0], p[1] * scale[1], p[2] * scale[2]}
	default:
		if globalDebug {
			panic("ember: unknown shape type")
		}
		return mgl32.Vec3{}
	}
	return s.Parent.RotationRelativeTo(root).Rotate(p)
}

func (s *Shape) boxPosition(r *Random, index int32, scale mgl32.Vec3) mgl32.Vec3 {
	e := mgl32.Vec3{s.Extents[0] * scale[0], s.Extents[1] * scale[1], s.Extents[2] * scale[2]}
	x := e[0] - r.GetFor(index, RandShape1)*e[0]*2
	y := e[1] - r.GetFor(index, RandShape2)*e[1]*2
	z := e[2] - r.GetFor(index, RandShape3)*e[2]*2
	if !s.Fill {
		switch int(r.GetFor(index, RandShape4) * 6) {
		case 0:
			x = -e[0]
		case 1:
			x = e[0]
		case 2:
			y = -e[1]
		case 3:
			y = e[1]
		case 4:
			z = -e[2]
		default:
			z = e[2]
		}
	}
	return mgl32.Vec3{x, y, z}
}

func (s *Shape) spherePosition(r *Random, index int32, scale mgl32.Vec3) mgl32.Vec3 {
	theta := 2 * math.Pi * float64(r.GetFor(index, RandShape1))
	phi := math.Acos(2*float64(r.GetFor(index, RandShape2)) - 1)
	rad := 1.0
	if s.Fill {
		rad = math.Cbrt(float64(r.GetFor(index, RandShape3)))
	}
	sp, cp := math.Sincos(phi)
	st, ct := math.Sincos(theta)
	return mgl32.Vec3{
		s.Extents[0] * scale[0] * float32(rad*sp*ct),
		s.Extents[1] * scale[1] * float32(rad*sp*st),
		s.Extents[2] * scale[2] * float32(rad*cp),
	}
}

func (s *Shape) cylinderPosition(r *Random, index int32, scale mgl32.Vec3) mgl32.Vec3 {
	h := s.Extents[1] * scale[1]
	y := h - r.GetFor(index, RandShape1)*h*2
	rad := 1.0
	if s.Fill {
		rad = math.Sqrt(float64(r.GetFor(index, RandShape2)))
	}
	theta := 2 * math.Pi * float64(r.GetFor(index, RandShape3))
	st, ct := math.Sincos(theta)
	return mgl32.Vec3{
		s.Extents[0] * scale[0] * float32(rad*ct),
		y,
		s.Extents[2] * scale[2] * float32(rad*st),
	}
}

// prepareMesh builds the cumulative triangle area list.
func (s *Shape) prepareMesh() bool {
	if s.Mesh == nil || s.Mesh.TriangleCount() == 0 {
		if !s.warned {
			warnf("mesh shape has no triangles")
			s.warned = true
		}
		return false
	}
	if s.meshSrc == s.Mesh && s.lastVersion == s.version {
		return true
	}
	n := s.Mesh.TriangleCount()
	s.cumulative = s.cumulative[:0]
	var sum float32
	for i := 0; i < n; i++ {
		a, b, c := s.Mesh.Triangle(i)
		sum += triangleArea(a, b, c)
		s.cumulative = append(s.cumulative, sum)
	}
	s.areaSum = sum
	s.meshCenter = s.Mesh.Center()
	s.meshSrc = s.Mesh
	s.lastVersion = s.version
	return true
}

func (s *Shape) meshPosition(r *Random, index int32) mgl32.Vec3 {
	if !s.prepareMesh() {
		return mgl32.Vec3{}
	}
	target := r.GetFor(index, RandShape1) * s.areaSum
	tri := sort.Search(len(s.cumulative), func(i int) bool { return s.cumulative[i] >= target })
	if tri >= len(s.cumulative) {
		tri = len(s.cumulative) - 1
	}
	v1, v2, v3 := s.Mesh.Triangle(tri)
	a := float32(math.Sqrt(float64(r.GetFor(index, RandShape2))))
	b := r.GetFor(index, RandShape3)
	p := v1.Mul(1 - a).Add(v2.Mul(a * (1 - b))).Add(v3.Mul(a * b))
	if s.Fill {
		u := float64(r.GetFor(index, RandShape4))
		alpha := -math.Log(1-(1-math.Exp(-meshFillLambda))*u) / meshFillLambda
		p = p.Add(s.meshCenter.Sub(p).Mul(float32(alpha)))
	}
	return p
}

func (s *Shape) pointPosition(r *Random, index int32) mgl32.Vec3 {
	n := len(s.Points)
	if n == 0 {
		if !s.warned {
			warnf("point shape has no points")
			s.warned = true
		}
		return mgl32.Vec3{}
	}
	pts := s.Points
	if s.Randomize {
		if !s.shuffled || len(s.order) != n {
			s.order = append(s.order[:0], s.Points...)
			for i := n - 1; i > 0; i-- {
				j := int(r.GetFor(int32(i), RandShapeShuffle) * float32(i+1))
				if j > i {
					j = i
				}
				s.order[i], s.order[j] = s.order[j], s.order[i]
			}
			s.shuffled = true
		}
		pts = s.order
	}
	i := int(index) % n
	if i < 0 {
		i += n
	}
	return pts[i]
}
