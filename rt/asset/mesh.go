package asset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/foxrt/foxtrace/rt/core"
)

// Id identifies an imported asset for the lifetime of the process.
type Id string

func NewId() Id {
	return Id(uuid.NewString())
}

// Mesh is an imported triangle soup with a stable identity. Triangle
// order defines the original-index space the BVH's primitive index
// array refers to, so it is never reordered after import.
type Mesh struct {
	Id        Id
	Name      string
	Triangles []core.Triangle
}

// LoadOBJ imports a Wavefront OBJ file, assigning every face the given
// material table index.
func LoadOBJ(path string, materialID int32) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh file: %w", err)
	}
	defer f.Close()
	return ReadOBJ(f, filepath.Base(path), materialID)
}

// ReadOBJ parses v/vn/f statements. Faces with more than three corners
// are fan-triangulated; faces without normals get the face normal.
func ReadOBJ(r io.Reader, name string, materialID int32) (*Mesh, error) {
	mesh := &Mesh{
		Id:   NewId(),
		Name: name,
	}

	var vertices []mgl32.Vec3
	var normals []mgl32.Vec3

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad vertex: %w", name, lineNum, err)
			}
			vertices = append(vertices, v)

		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad normal: %w", name, lineNum, err)
			}
			normals = append(normals, n)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: face needs at least 3 vertices", name, lineNum)
			}
			corners := make([]faceCorner, 0, len(fields)-1)
			for _, spec := range fields[1:] {
				c, err := parseFaceCorner(spec, len(vertices), len(normals))
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", name, lineNum, err)
				}
				corners = append(corners, c)
			}
			// Fan triangulation around the first corner.
			for i := 1; i+1 < len(corners); i++ {
				tri := core.Triangle{
					V0:         vertices[corners[0].vertex],
					V1:         vertices[corners[i].vertex],
					V2:         vertices[corners[i+1].vertex],
					MaterialID: materialID,
				}
				if corners[0].normal >= 0 && corners[i].normal >= 0 && corners[i+1].normal >= 0 {
					tri.N0 = normals[corners[0].normal]
					tri.N1 = normals[corners[i].normal]
					tri.N2 = normals[corners[i+1].normal]
				} else {
					n := tri.FaceNormal()
					tri.N0, tri.N1, tri.N2 = n, n, n
				}
				mesh.Triangles = append(mesh.Triangles, tri)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	return mesh, nil
}

type faceCorner struct {
	vertex int
	normal int // -1 when absent
}

// parseFaceCorner handles "v", "v/vt", "v//vn" and "v/vt/vn" forms.
// Negative indices count back from the current element count.
func parseFaceCorner(spec string, numVertices, numNormals int) (faceCorner, error) {
	parts := strings.Split(spec, "/")

	vi, err := strconv.Atoi(parts[0])
	if err != nil {
		return faceCorner{}, fmt.Errorf("bad vertex index %q: %w", parts[0], err)
	}
	vertex, err := resolveIndex(vi, numVertices)
	if err != nil {
		return faceCorner{}, err
	}

	normal := -1
	if len(parts) == 3 && parts[2] != "" {
		ni, err := strconv.Atoi(parts[2])
		if err != nil {
			return faceCorner{}, fmt.Errorf("bad normal index %q: %w", parts[2], err)
		}
		normal, err = resolveIndex(ni, numNormals)
		if err != nil {
			return faceCorner{}, err
		}
	}

	return faceCorner{vertex: vertex, normal: normal}, nil
}

func resolveIndex(idx, count int) (int, error) {
	switch {
	case idx > 0 && idx <= count:
		return idx - 1, nil
	case idx < 0 && -idx <= count:
		return count + idx, nil
	}
	return 0, fmt.Errorf("index %d out of range (have %d)", idx, count)
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	if len(fields) < 3 {
		return mgl32.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var v mgl32.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

// Transform applies a model matrix to all triangles in place. Normals
// go through the inverse-transpose so non-uniform scale keeps them
// perpendicular.
func (m *Mesh) Transform(mat mgl32.Mat4) {
	normalMat := mat.Mat3().Inv().Transpose()

	for i := range m.Triangles {
		tri := &m.Triangles[i]
		tri.V0 = mat.Mul4x1(tri.V0.Vec4(1)).Vec3()
		tri.V1 = mat.Mul4x1(tri.V1.Vec4(1)).Vec3()
		tri.V2 = mat.Mul4x1(tri.V2.Vec4(1)).Vec3()

		tri.N0 = safeNormalize(normalMat.Mul3x1(tri.N0))
		tri.N1 = safeNormalize(normalMat.Mul3x1(tri.N1))
		tri.N2 = safeNormalize(normalMat.Mul3x1(tri.N2))
	}
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}
