package ember

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// --- Box ---

// NewBoxMesh builds an indexed box centered at the origin with the given half extents.
// Each face is two triangles (12 total).
func NewBoxMesh(half mgl32.Vec3) *Mesh {
	x, y, z := half[0], half[1], half[2]
	m := &Mesh{
		Positions: []mgl32.Vec3{
			{-x, -y, -z}, {x, -y, -z}, {x, y, -z}, {-x, y, -z},
			{-x, -y, z}, {x, -y, z}, {x, y, z}, {-x, y, z},
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2, // back
			4, 5, 6, 4, 6, 7, // front
			0, 4, 7, 0, 7, 3, // left
			1, 2, 6, 1, 6, 5, // right
			3, 7, 6, 3, 6, 2, // top
			0, 1, 5, 0, 5, 4, // bottom
		},
	}
	return m
}

// --- Grid ---

// NewGridMesh builds a flat grid in the XY plane centered at the origin.
// cols and rows define the number of cells; each cell is two triangles.
func NewGridMesh(width, height float32, cols, rows int) *Mesh {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	m := &Mesh{
		Positions: make([]mgl32.Vec3, 0, (cols+1)*(rows+1)),
		Indices:   make([]uint32, 0, cols*rows*6),
	}
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			px := width*float32(c)/float32(cols) - width/2
			py := height*float32(r)/float32(rows) - height/2
			m.Positions = append(m.Positions, mgl32.Vec3{px, py, 0})
		}
	}
	stride := uint32(cols + 1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := uint32(r)*stride + uint32(c)
			m.Indices = append(m.Indices, i, i+1, i+stride+1, i, i+stride+1, i+stride)
		}
	}
	return m
}

// --- Sphere ---

// NewSphereMesh builds a UV sphere. rings >= 2 and segments >= 3.
func NewSphereMesh(radius float32, rings, segments int) *Mesh {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	m := &Mesh{}
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		sp, cp := math.Sincos(phi)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			st, ct := math.Sincos(theta)
			m.Positions = append(m.Positions, mgl32.Vec3{
				radius * float32(sp*ct),
				radius * float32(cp),
				radius * float32(sp*st),
			})
		}
	}
	stride := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			i := uint32(r)*stride + uint32(s)
			if r != 0 {
				m.Indices = append(m.Indices, i, i+1, i+stride)
			}
			if r != rings-1 {
				m.Indices = append(m.Indices, i+1, i+stride+1, i+stride)
			}
		}
	}
	return m
}
