// Package marching extracts an indexed triangle mesh from the iso-surface
// of a sampled signed distance field using the marching cubes algorithm.
// Vertices on edges shared between neighboring cells are welded, so the
// output is a watertight surface rather than per-cell triangle soup.
package marching

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/voxrecon/voxrecon/pkg/mesh"
	"github.com/voxrecon/voxrecon/pkg/voxel"
)

// interpEpsilon guards the edge interpolation against equal corner values.
const interpEpsilon = 1e-4

// Extractor holds the extraction parameters.
type Extractor struct {
	// IsoValue is the field threshold defining the surface. Zero is the
	// exact surface of a signed distance field.
	IsoValue float32

	// MaxZ limits extraction to cells whose lowest corner lies at or
	// below this world-space height, for partial/progressive meshes.
	MaxZ float32
}

// NewExtractor returns an extractor for the given iso-value with no
// height cutoff.
func NewExtractor(isoValue float32) *Extractor {
	return &Extractor{IsoValue: isoValue, MaxZ: math32.MaxFloat32}
}

// Extract walks every complete cell of the grid and emits the iso-surface
// crossing it. A grid uniformly above or below the iso-value produces an
// empty mesh. The outermost cell layer cannot form a complete cube and is
// never visited.
func (e *Extractor) Extract(grid voxel.Grid) *mesh.TriangleMesh {
	m := &mesh.TriangleMesh{}
	res := grid.Resolution()
	origin := grid.Bounds().Min
	voxelSize := grid.VoxelSize()

	// Welded vertices, keyed by canonical edge identity.
	cache := make(map[uint64]uint32)

	var cornerValues [8]float32
	var cornerPositions [8]mgl32.Vec3
	var edgeVertices [12]uint32

	for z := 0; z < res-1; z++ {
		for y := 0; y < res-1; y++ {
			for x := 0; x < res-1; x++ {
				for i, off := range cornerOffsets {
					cx, cy, cz := x+off[0], y+off[1], z+off[2]
					cornerValues[i] = grid.Get(cx, cy, cz)
					cornerPositions[i] = origin.Add(mgl32.Vec3{
						float32(cx) * voxelSize,
						float32(cy) * voxelSize,
						float32(cz) * voxelSize,
					})
				}

				if cornerPositions[0].Z() > e.MaxZ {
					continue
				}

				cubeIndex := 0
				for i := 0; i < 8; i++ {
					if cornerValues[i] < e.IsoValue {
						cubeIndex |= 1 << i
					}
				}
				if cubeIndex == 0 || cubeIndex == 255 {
					continue
				}

				edgeFlags := edgeTable[cubeIndex]
				for edge := 0; edge < 12; edge++ {
					if edgeFlags&(1<<edge) == 0 {
						continue
					}
					c0 := edgeCorners[edge][0]
					c1 := edgeCorners[edge][1]
					key := edgeKey(x, y, z, c0, c1)

					if idx, ok := cache[key]; ok {
						edgeVertices[edge] = idx
						continue
					}

					v0 := cornerValues[c0]
					v1 := cornerValues[c1]
					t := (e.IsoValue - v0) / (v1 - v0 + interpEpsilon)
					t = mgl32.Clamp(t, 0, 1)

					pos := cornerPositions[c0].Add(
						cornerPositions[c1].Sub(cornerPositions[c0]).Mul(t))

					idx := uint32(len(m.Vertices))
					m.Vertices = append(m.Vertices, pos)
					m.Normals = append(m.Normals, mgl32.Vec3{})
					cache[key] = idx
					edgeVertices[edge] = idx
				}

				// The table rows wind for a positive-inside field;
				// reversed here so normals point outward with
				// negative inside.
				tris := &triTable[cubeIndex]
				for i := 0; tris[i] != -1; i += 3 {
					m.Indices = append(m.Indices,
						edgeVertices[tris[i]],
						edgeVertices[tris[i+2]],
						edgeVertices[tris[i+1]])
				}
			}
		}
	}

	computeVertexNormals(m)
	return m
}

// edgeKey builds a canonical identity for a cell edge from the grid
// coordinates of its two corners. Neighboring cells sharing the edge
// derive the same key, which is what makes welding work; keying on the
// owning cell plus local edge number would not.
func edgeKey(x, y, z, c0, c1 int) uint64 {
	a := cornerOffsets[c0]
	b := cornerOffsets[c1]

	ax, ay, az := x+a[0], y+a[1], z+a[2]
	bx, by, bz := x+b[0], y+b[1], z+b[2]

	minX, maxX := minMax(ax, bx)
	minY, maxY := minMax(ay, by)
	minZ, _ := minMax(az, bz)

	var axis uint64
	switch {
	case maxX != minX:
		axis = 0
	case maxY != minY:
		axis = 1
	default:
		axis = 2
	}

	return uint64(minX)<<44 | uint64(minY)<<30 | uint64(minZ)<<16 | axis<<14
}

func minMax(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// computeVertexNormals averages face normals into each vertex. Vertices
// referenced by no triangle fall back to +Z.
func computeVertexNormals(m *mesh.TriangleMesh) {
	accum := make([]mgl32.Vec3, len(m.Vertices))
	counts := make([]int, len(m.Vertices))

	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]

		e1 := m.Vertices[i1].Sub(m.Vertices[i0])
		e2 := m.Vertices[i2].Sub(m.Vertices[i0])
		n := e1.Cross(e2)
		if n.Len() > 0 {
			n = n.Normalize()
		}

		accum[i0] = accum[i0].Add(n)
		accum[i1] = accum[i1].Add(n)
		accum[i2] = accum[i2].Add(n)
		counts[i0]++
		counts[i1]++
		counts[i2]++
	}

	for i := range m.Normals {
		if counts[i] == 0 {
			m.Normals[i] = mgl32.Vec3{0, 0, 1}
			continue
		}
		n := accum[i].Mul(1 / float32(counts[i]))
		if n.Len() > 0 {
			n = n.Normalize()
		}
		m.Normals[i] = n
	}
}
