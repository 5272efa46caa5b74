package core

import "github.com/go-gl/mathgl/mgl32"

// Sphere is an analytic primitive tested outside the BVH: the
// evaluator brute-forces the (small) sphere list after traversal.
type Sphere struct {
	Center     mgl32.Vec3
	Radius     float32
	MaterialID int32
}
