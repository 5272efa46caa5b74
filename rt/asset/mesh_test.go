package asset

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadOBJ = `
# unit quad in the XY plane
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1
f 1//1 3//1 4//1
`

func TestReadOBJQuad(t *testing.T) {
	mesh, err := ReadOBJ(strings.NewReader(quadOBJ), "quad.obj", 3)
	require.NoError(t, err)

	require.Len(t, mesh.Triangles, 2)
	assert.NotEmpty(t, mesh.Id)
	assert.Equal(t, "quad.obj", mesh.Name)

	tri := mesh.Triangles[0]
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, tri.V0)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, tri.V1)
	assert.Equal(t, mgl32.Vec3{1, 1, 0}, tri.V2)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, tri.N0)
	assert.Equal(t, int32(3), tri.MaterialID)
}

func TestReadOBJFanTriangulation(t *testing.T) {
	obj := `
v 0 0 0
v 2 0 0
v 2 2 0
v 1 3 0
v 0 2 0
f 1 2 3 4 5
`
	mesh, err := ReadOBJ(strings.NewReader(obj), "pentagon.obj", 0)
	require.NoError(t, err)

	// A pentagon fans into 3 triangles, all anchored at the first vertex.
	require.Len(t, mesh.Triangles, 3)
	for _, tri := range mesh.Triangles {
		assert.Equal(t, mgl32.Vec3{0, 0, 0}, tri.V0)
	}
}

func TestReadOBJFaceNormalFallback(t *testing.T) {
	obj := `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	mesh, err := ReadOBJ(strings.NewReader(obj), "tri.obj", 0)
	require.NoError(t, err)
	require.Len(t, mesh.Triangles, 1)

	n := mesh.Triangles[0].N0
	assert.InDelta(t, 0, n.X(), 1e-6)
	assert.InDelta(t, 0, n.Y(), 1e-6)
	assert.InDelta(t, 1, n.Z(), 1e-6)
}

func TestReadOBJNegativeIndices(t *testing.T) {
	obj := `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	mesh, err := ReadOBJ(strings.NewReader(obj), "neg.obj", 0)
	require.NoError(t, err)
	require.Len(t, mesh.Triangles, 1)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, mesh.Triangles[0].V2)
}

func TestReadOBJBadIndex(t *testing.T) {
	obj := `
v 0 0 0
f 1 2 3
`
	_, err := ReadOBJ(strings.NewReader(obj), "bad.obj", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestMeshTransform(t *testing.T) {
	mesh, err := ReadOBJ(strings.NewReader(quadOBJ), "quad.obj", 0)
	require.NoError(t, err)

	m := mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2))
	mesh.Transform(m)

	tri := mesh.Triangles[0]
	assert.Equal(t, mgl32.Vec3{10, 0, 0}, tri.V0)
	assert.Equal(t, mgl32.Vec3{12, 0, 0}, tri.V1)

	// Uniform scale plus translation leaves the unit normal intact.
	assert.InDelta(t, 1.0, float64(tri.N0.Z()), 1e-5)
	assert.InDelta(t, 1.0, float64(tri.N0.Len()), 1e-5)
}
