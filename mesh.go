package ember

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrMeshNotFound is returned by MeshLibrary for unknown sources.
var ErrMeshNotFound = errors.New("ember: mesh not found")

// Mesh is a triangle soup in local space. When Indices is empty, every three
// consecutive positions form a triangle.
type Mesh struct {
	Positions []mgl32.Vec3
	Indices   []uint32
}

// MeshLoader resolves a source identifier to a loaded mesh.
type MeshLoader interface {
	LoadMesh(source string) (*Mesh, error)
}

// MeshLoaderFunc adapts a plain function to MeshLoader.
type MeshLoaderFunc func(source string) (*Mesh, error)

// LoadMesh calls f(source).
func (f MeshLoaderFunc) LoadMesh(source string) (*Mesh, error) { return f(source) }

// MeshLibrary is an in-memory MeshLoader keyed by name.
type MeshLibrary map[string]*Mesh

// LoadMesh returns the named mesh or ErrMeshNotFound.
func (l MeshLibrary) LoadMesh(source string) (*Mesh, error) {
	m, ok := l[source]
	if !ok {
		return nil, fmt.Errorf("failed to load mesh %q: %w", source, ErrMeshNotFound)
	}
	return m, nil
}

// TriangleCount returns the number of complete triangles.
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// Triangle returns the three corners of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	if len(m.Indices) > 0 {
		return m.Positions[m.Indices[i*3]], m.Positions[m.Indices[i*3+1]], m.Positions[m.Indices[i*3+2]]
	}
	return m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]
}

// Bounds returns the axis-aligned bounding box of all positions.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if m == nil || len(m.Positions) == 0 {
		return
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < lo[k] {
				lo[k] = p[k]
			}
			if p[k] > hi[k] {
				hi[k] = p[k]
			}
		}
	}
	return lo, hi
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() mgl32.Vec3 {
	lo, hi := m.Bounds()
	return lo.Add(hi).Mul(0.5)
}

// Validate reports index buffers that reference missing positions.
func (m *Mesh) Validate() error {
	if m == nil {
		return errors.New("ember: nil mesh")
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("ember: index %d references position %d of %d", i, idx, len(m.Positions))
		}
	}
	if len(m.Indices) == 0 && len(m.Positions)%3 != 0 {
		return fmt.Errorf("ember: %d positions do not form whole triangles", len(m.Positions))
	}
	return nil
}

func triangleArea(a, b, c mgl32.Vec3) float32 {
	return b.Sub(a).Cross(c.Sub(a)).Len() * 0.5
}
