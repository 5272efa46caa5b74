package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func quadTriangles(offset mgl32.Vec3, matID int32) []Triangle {
	a := offset
	b := offset.Add(mgl32.Vec3{1, 0, 0})
	c := offset.Add(mgl32.Vec3{1, 1, 0})
	d := offset.Add(mgl32.Vec3{0, 1, 0})
	n := mgl32.Vec3{0, 0, 1}
	return []Triangle{
		{V0: a, V1: b, V2: c, N0: n, N1: n, N2: n, MaterialID: matID},
		{V0: a, V1: c, V2: d, N0: n, N1: n, N2: n, MaterialID: matID},
	}
}

func TestCommitBuildsOnce(t *testing.T) {
	s := NewScene(nil)
	for i := 0; i < 6; i++ {
		s.AddTriangles(quadTriangles(mgl32.Vec3{float32(i * 3), 0, 0}, 0))
	}

	if got := s.Commit(); got != CommitBuild {
		t.Fatalf("First commit should build, got %v", got)
	}
	if len(s.Nodes()) == 0 {
		t.Fatal("Commit should have produced BVH nodes")
	}
	if got := s.Commit(); got != CommitNone {
		t.Errorf("Clean commit should be a no-op, got %v", got)
	}
}

func TestCommitRefitsMovedGeometry(t *testing.T) {
	s := NewScene(nil)
	for i := 0; i < 6; i++ {
		s.AddTriangles(quadTriangles(mgl32.Vec3{float32(i * 3), 0, 0}, 0))
	}
	s.Commit()

	nodesBefore := len(s.Nodes())
	idxBefore := append([]int32(nil), s.PrimitiveIndices()...)

	s.MutateTriangles(func(i int, tri *Triangle) {
		shift := mgl32.Vec3{0, 2.5, 0}
		tri.V0 = tri.V0.Add(shift)
		tri.V1 = tri.V1.Add(shift)
		tri.V2 = tri.V2.Add(shift)
	})

	if got := s.Commit(); got != CommitRefit {
		t.Fatalf("Moved geometry should refit, got %v", got)
	}
	if len(s.Nodes()) != nodesBefore {
		t.Errorf("Refit changed node count: %d -> %d", nodesBefore, len(s.Nodes()))
	}
	for i, idx := range s.PrimitiveIndices() {
		if idx != idxBefore[i] {
			t.Fatal("Refit must not reorder primitive indices")
		}
	}

	root := s.Nodes()[0]
	if root.Min.Y() < 2.0 {
		t.Errorf("Root bounds should have followed the shifted geometry, min.y = %f", root.Min.Y())
	}
}

func TestCommitRebuildsOnCountChange(t *testing.T) {
	s := NewScene(nil)
	s.AddTriangles(quadTriangles(mgl32.Vec3{0, 0, 0}, 0))
	s.Commit()

	s.AddTriangles(quadTriangles(mgl32.Vec3{10, 0, 0}, 1))
	if got := s.Commit(); got != CommitBuild {
		t.Fatalf("Count change must trigger a rebuild, got %v", got)
	}
	if len(s.PrimitiveIndices()) != 4 {
		t.Errorf("Index array should cover 4 triangles, got %d", len(s.PrimitiveIndices()))
	}
}

func TestEmptySceneCommit(t *testing.T) {
	s := NewScene(nil)
	s.Commit()

	if len(s.Nodes()) != 0 {
		t.Errorf("Empty scene should have no nodes, got %d", len(s.Nodes()))
	}
	if len(s.NodesBytes()) != 0 {
		t.Errorf("Empty scene should serialize to zero bytes, got %d", len(s.NodesBytes()))
	}

	// A refit-ish second commit must not crash on the empty tree.
	s.MutateTriangles(func(i int, tri *Triangle) {})
	s.Commit()
}

func TestFaceNormalFallback(t *testing.T) {
	tri := Triangle{
		V0: mgl32.Vec3{0, 0, 0},
		V1: mgl32.Vec3{1, 0, 0},
		V2: mgl32.Vec3{0, 1, 0},
	}
	n := tri.FaceNormal()
	if !n.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("Face normal should be +Z, got %v", n)
	}
}
