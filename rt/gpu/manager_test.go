package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/foxrt/foxtrace/rt/core"
)

func f32At(t *testing.T, buf []byte, offset int) float32 {
	t.Helper()
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func u32At(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset:])
}

func TestTrianglePacking(t *testing.T) {
	tris := []core.Triangle{{
		V0:         mgl32.Vec3{1, 2, 3},
		V1:         mgl32.Vec3{4, 5, 6},
		V2:         mgl32.Vec3{7, 8, 9},
		N0:         mgl32.Vec3{0, 1, 0},
		N1:         mgl32.Vec3{0, 1, 0},
		N2:         mgl32.Vec3{0, 1, 0},
		MaterialID: 5,
	}}

	buf := packTriangles(tris)
	if len(buf) != TriangleStride {
		t.Fatalf("expected %d bytes, got %d", TriangleStride, len(buf))
	}

	if got := f32At(t, buf, 0); got != 1 {
		t.Errorf("v0.x = %v, want 1", got)
	}
	if got := f32At(t, buf, 16); got != 4 {
		t.Errorf("v1.x = %v, want 4", got)
	}
	if got := f32At(t, buf, 32+8); got != 9 {
		t.Errorf("v2.z = %v, want 9", got)
	}
	if got := f32At(t, buf, 48+4); got != 1 {
		t.Errorf("n0.y = %v, want 1", got)
	}
	if got := int32(u32At(buf, 96)); got != 5 {
		t.Errorf("materialID = %v, want 5", got)
	}

	// Centroid is the vertex mean, packed unpadded after the material.
	if got := f32At(t, buf, 100); got != 4 {
		t.Errorf("centroid.x = %v, want 4", got)
	}
	if got := f32At(t, buf, 108); got != 6 {
		t.Errorf("centroid.z = %v, want 6", got)
	}
}

func TestSpherePacking(t *testing.T) {
	spheres := []core.Sphere{
		{Center: mgl32.Vec3{1, 2, 3}, Radius: 0.5, MaterialID: 7},
		{Center: mgl32.Vec3{-1, 0, 0}, Radius: 2, MaterialID: 0},
	}

	buf := packSpheres(spheres)
	if len(buf) != 2*SphereStride {
		t.Fatalf("expected %d bytes, got %d", 2*SphereStride, len(buf))
	}

	if got := f32At(t, buf, 8); got != 3 {
		t.Errorf("center.z = %v, want 3", got)
	}
	if got := f32At(t, buf, 16); got != 0.5 {
		t.Errorf("radius = %v, want 0.5", got)
	}
	if got := int32(u32At(buf, 20)); got != 7 {
		t.Errorf("materialID = %v, want 7", got)
	}

	second := buf[SphereStride:]
	if got := f32At(t, second, 0); got != -1 {
		t.Errorf("second center.x = %v, want -1", got)
	}
}

func TestMaterialPacking(t *testing.T) {
	mats := []core.Material{
		core.NewMetal(mgl32.Vec3{0.9, 0.8, 0.7}, 0.25),
		core.NewDielectric(1.5),
	}

	buf := packMaterials(mats)
	if len(buf) != 2*MaterialStride {
		t.Fatalf("expected %d bytes, got %d", 2*MaterialStride, len(buf))
	}

	if got := f32At(t, buf, 4); got != 0.8 {
		t.Errorf("albedo.g = %v, want 0.8", got)
	}
	if got := int32(u32At(buf, 16)); got != int32(core.Metal) {
		t.Errorf("type = %v, want metal", got)
	}
	if got := f32At(t, buf, 24); got != 0.25 {
		t.Errorf("fuzz = %v, want 0.25", got)
	}

	second := buf[MaterialStride:]
	if got := int32(u32At(second, 16)); got != int32(core.Dielectric) {
		t.Errorf("second type = %v, want dielectric", got)
	}
	if got := f32At(t, second, 28); got != 1.5 {
		t.Errorf("refractionIndex = %v, want 1.5", got)
	}
}

func TestRenderParamsLayout(t *testing.T) {
	buf := encodeRenderParams(RenderParams{
		CamPos:        mgl32.Vec3{1, 2, 3},
		CamForward:    mgl32.Vec3{0, 0, -1},
		Fov:           45,
		Time:          2.5,
		FrameCount:    17,
		UseSkybox:     true,
		Width:         1280,
		Height:        720,
		SphereCount:   4,
		NodeCount:     99,
		TriangleCount: 12,
	})

	if len(buf) != paramsSize {
		t.Fatalf("expected %d bytes, got %d", paramsSize, len(buf))
	}

	if got := f32At(t, buf, 8); got != 3 {
		t.Errorf("cam_pos.z = %v, want 3", got)
	}
	if got := f32At(t, buf, 12); got != 0 {
		t.Errorf("cam_pos pad = %v, want 0", got)
	}
	if got := f32At(t, buf, 16+8); got != -1 {
		t.Errorf("cam_forward.z = %v, want -1", got)
	}
	if got := f32At(t, buf, 64); got != 45 {
		t.Errorf("fov = %v, want 45", got)
	}
	if got := u32At(buf, 72); got != 17 {
		t.Errorf("frame_count = %v, want 17", got)
	}
	if got := u32At(buf, 76); got&1 == 0 {
		t.Errorf("flags = %#x, skybox bit not set", got)
	}
	if got := f32At(t, buf, 80); got != 1280 {
		t.Errorf("resolution.x = %v, want 1280", got)
	}
	if got := u32At(buf, 92); got != 99 {
		t.Errorf("node_count = %v, want 99", got)
	}
	if got := u32At(buf, 96); got != 12 {
		t.Errorf("tri_count = %v, want 12", got)
	}
}
