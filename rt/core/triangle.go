package core

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/foxrt/foxtrace/rt/bvh"
)

// Triangle is the primitive the tracer accelerates: three positions,
// three per-vertex normals and a material table index. A triangle's
// identity is its position in the scene's triangle slice, which stays
// stable across rebuild and refit.
type Triangle struct {
	V0, V1, V2 mgl32.Vec3
	N0, N1, N2 mgl32.Vec3
	MaterialID int32
}

func (t *Triangle) BBox() bvh.AABB {
	b := bvh.NewAABB()
	b.Expand(t.V0)
	b.Expand(t.V1)
	b.Expand(t.V2)
	return b
}

// Centroid is the arithmetic mean of the three vertices.
func (t *Triangle) Centroid() mgl32.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// FaceNormal computes the geometric normal from the winding order.
// Used as a fallback when a mesh carries no vertex normals.
func (t *Triangle) FaceNormal() mgl32.Vec3 {
	e1 := t.V1.Sub(t.V0)
	e2 := t.V2.Sub(t.V0)
	n := e1.Cross(e2)
	if n.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}
