// Package mesh defines the indexed triangle mesh produced by surface
// extraction, plus STL export for handing results to external viewers.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TriangleMesh is an indexed triangle mesh with per-vertex normals.
// Vertices and Normals are parallel arrays; Indices holds three entries
// per triangle. The mesh owns its arrays outright and is freely copyable.
type TriangleMesh struct {
	Vertices []mgl32.Vec3
	Normals  []mgl32.Vec3
	Indices  []uint32
}

// VertexCount returns the number of vertices.
func (m *TriangleMesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of triangles.
func (m *TriangleMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty reports whether the mesh has no geometry.
func (m *TriangleMesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// MemoryUsage returns the total size of the three arrays in bytes.
func (m *TriangleMesh) MemoryUsage() int {
	return len(m.Vertices)*12 + len(m.Normals)*12 + len(m.Indices)*4
}

// Clear drops all geometry, keeping the allocations.
func (m *TriangleMesh) Clear() {
	m.Vertices = m.Vertices[:0]
	m.Normals = m.Normals[:0]
	m.Indices = m.Indices[:0]
}

// Flatten returns the mesh as flat arrays (3 floats per vertex and
// normal, 3 indices per triangle), the layout renderers upload directly.
func (m *TriangleMesh) Flatten() (vertices, normals []float32, indices []uint32) {
	vertices = make([]float32, 0, len(m.Vertices)*3)
	normals = make([]float32, 0, len(m.Normals)*3)
	for _, v := range m.Vertices {
		vertices = append(vertices, v.X(), v.Y(), v.Z())
	}
	for _, n := range m.Normals {
		normals = append(normals, n.X(), n.Y(), n.Z())
	}
	indices = make([]uint32, len(m.Indices))
	copy(indices, m.Indices)
	return vertices, normals, indices
}
