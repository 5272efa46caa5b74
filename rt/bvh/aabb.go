package bvh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box. The zero value from NewAABB is
// empty (min = +Inf, max = -Inf) and must be expanded by at least one
// point before SurfaceArea or Center are meaningful.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func NewAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b *AABB) Expand(p mgl32.Vec3) {
	b.Min = mgl32.Vec3{minf(b.Min.X(), p.X()), minf(b.Min.Y(), p.Y()), minf(b.Min.Z(), p.Z())}
	b.Max = mgl32.Vec3{maxf(b.Max.X(), p.X()), maxf(b.Max.Y(), p.Y()), maxf(b.Max.Z(), p.Z())}
}

func (b *AABB) ExpandBox(other AABB) {
	b.Expand(other.Min)
	b.Expand(other.Max)
}

func (b AABB) SurfaceArea() float32 {
	d := b.Max.Sub(b.Min)
	return 2.0 * (d.X()*d.Y() + d.Y()*d.Z() + d.X()*d.Z())
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Contains reports whether other lies fully inside b, with a small
// tolerance for float accumulation differences.
func (b AABB) Contains(other AABB) bool {
	const eps = 1e-5
	for i := 0; i < 3; i++ {
		if other.Min[i] < b.Min[i]-eps || other.Max[i] > b.Max[i]+eps {
			return false
		}
	}
	return true
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
