package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// stlHeaderSize is the fixed binary STL header length.
const stlHeaderSize = 80

// EncodeSTL writes the mesh to w in binary STL format. Face normals are
// recomputed from triangle winding since STL stores one normal per facet,
// not per vertex.
func EncodeSTL(w io.Writer, m *TriangleMesh) error {
	bw := bufio.NewWriter(w)

	var header [stlHeaderSize]byte
	copy(header[:], "voxrecon reconstructed surface")
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("mesh: writing STL header: %w", err)
	}

	triCount := uint32(m.TriangleCount())
	if err := binary.Write(bw, binary.LittleEndian, triCount); err != nil {
		return fmt.Errorf("mesh: writing STL triangle count: %w", err)
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		v0 := m.Vertices[m.Indices[i]]
		v1 := m.Vertices[m.Indices[i+1]]
		v2 := m.Vertices[m.Indices[i+2]]

		normal := v1.Sub(v0).Cross(v2.Sub(v0))
		if normal.Len() > 0 {
			normal = normal.Normalize()
		}

		facet := [12]float32{
			normal.X(), normal.Y(), normal.Z(),
			v0.X(), v0.Y(), v0.Z(),
			v1.X(), v1.Y(), v1.Z(),
			v2.X(), v2.Y(), v2.Z(),
		}
		if err := binary.Write(bw, binary.LittleEndian, facet); err != nil {
			return fmt.Errorf("mesh: writing STL facet: %w", err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(0)); err != nil {
			return fmt.Errorf("mesh: writing STL attribute: %w", err)
		}
	}

	return bw.Flush()
}

// WriteSTL writes the mesh to a binary STL file at path.
func WriteSTL(path string, m *TriangleMesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mesh: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := EncodeSTL(f, m); err != nil {
		return err
	}
	return f.Close()
}
