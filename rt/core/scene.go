package core

import (
	"time"

	"github.com/foxrt/foxtrace/rt/bvh"
)

// CommitResult tells the upload layer how much of the device state is
// stale after a Commit.
type CommitResult int

const (
	CommitNone  CommitResult = iota // nothing changed
	CommitRefit                     // bounds moved, node buffer only
	CommitBuild                     // topology changed, everything
)

// Scene owns the host-side copies of everything the evaluator consumes:
// triangle geometry, analytic spheres, the material table and the BVH
// over the triangles. The BVH builder instance is exclusively owned
// here; Nodes/PrimitiveIndices hand out read-only views for upload.
type Scene struct {
	Triangles []Triangle
	Spheres   []Sphere
	Materials []Material

	builder *bvh.Builder
	logger  Logger

	builtCount     int // triangle count at last full build
	structureDirty bool
	geometryDirty  bool
}

func NewScene(logger Logger) *Scene {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Scene{
		builder: bvh.NewBuilder(),
		logger:  logger,
	}
}

// AddTriangles appends geometry and marks the tree for a full rebuild.
func (s *Scene) AddTriangles(tris []Triangle) {
	s.Triangles = append(s.Triangles, tris...)
	s.structureDirty = true
}

func (s *Scene) AddSphere(sp Sphere) {
	s.Spheres = append(s.Spheres, sp)
}

func (s *Scene) SetMaterials(mats []Material) {
	s.Materials = mats
}

// MutateTriangles applies fn to every triangle in place. Positions and
// normals may move; the count and order must not change, so only a
// refit is scheduled. Structural edits go through AddTriangles or
// SetTriangles instead.
func (s *Scene) MutateTriangles(fn func(i int, tri *Triangle)) {
	for i := range s.Triangles {
		fn(i, &s.Triangles[i])
	}
	s.geometryDirty = true
}

// SetTriangles replaces the geometry wholesale and forces a rebuild.
func (s *Scene) SetTriangles(tris []Triangle) {
	s.Triangles = tris
	s.structureDirty = true
}

// Commit brings the BVH in sync with the triangle data. A count change
// or structural edit triggers a full rebuild; moved geometry with an
// unchanged layout takes the cheaper refit path.
func (s *Scene) Commit() CommitResult {
	needBuild := s.structureDirty || len(s.Triangles) != s.builtCount

	switch {
	case needBuild:
		start := time.Now()
		s.builder.Build(s.volumes())
		s.builtCount = len(s.Triangles)
		s.structureDirty = false
		s.geometryDirty = false

		st := s.builder.Stats()
		s.logger.Debugf("BVH build: %d triangles, %d nodes, %d leafs, depth %d, %d ms",
			st.Prims, st.Nodes, st.Leafs, st.MaxDepth,
			time.Since(start).Nanoseconds()/1e6)
		return CommitBuild

	case s.geometryDirty:
		start := time.Now()
		root := s.builder.Refit(s.volumes())
		s.geometryDirty = false

		s.logger.Debugf("BVH refit: %d triangles, root %v..%v, %d us",
			len(s.Triangles), root.Min, root.Max,
			time.Since(start).Microseconds())
		return CommitRefit
	}

	return CommitNone
}

// Nodes returns the flattened node array for upload. Empty when the
// scene has no triangle geometry.
func (s *Scene) Nodes() []bvh.Node {
	return s.builder.Nodes()
}

func (s *Scene) PrimitiveIndices() []int32 {
	return s.builder.PrimitiveIndices()
}

func (s *Scene) NodesBytes() []byte {
	return s.builder.NodesBytes()
}

func (s *Scene) PrimitiveIndexBytes() []byte {
	return s.builder.PrimitiveIndexBytes()
}

func (s *Scene) volumes() []bvh.BoundedVolume {
	vols := make([]bvh.BoundedVolume, len(s.Triangles))
	for i := range s.Triangles {
		vols[i] = &s.Triangles[i]
	}
	return vols
}
