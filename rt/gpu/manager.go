package gpu

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/foxrt/foxtrace/rt/core"
)

const (
	// TriangleStride matches the shader-side Triangle struct:
	// v0..v2 and n0..n2 as vec4s, materialID, centroid xyz.
	TriangleStride = 112
	SphereStride   = 32
	MaterialStride = 32

	// Headroom keeps the node buffer from being recreated on every
	// small rebuild.
	HeadroomNodes = 64 * 1024
)

// BufferManager owns every device buffer the evaluator reads. The CPU
// side mutates, then uploads, then the compute pass consumes a
// snapshot; the caller keeps those phases ordered within a frame.
type BufferManager struct {
	Device *wgpu.Device

	ParamsBuf      *wgpu.Buffer
	TrianglesBuf   *wgpu.Buffer
	SpheresBuf     *wgpu.Buffer
	MaterialsBuf   *wgpu.Buffer
	BVHNodesBuf    *wgpu.Buffer
	PrimIndicesBuf *wgpu.Buffer

	SceneBindGroup *wgpu.BindGroup

	postResources
}

func NewBufferManager(device *wgpu.Device) *BufferManager {
	return &BufferManager{Device: device}
}

func (m *BufferManager) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	neededSize := uint64(len(data) + headroom)
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}

		desc := &wgpu.BufferDescriptor{
			Label: name,
			Size:  neededSize,
			Usage: usage | wgpu.BufferUsageCopyDst,
		}
		newBuf, err := m.Device.CreateBuffer(desc)
		if err != nil {
			panic(err)
		}
		*buf = newBuf

		if len(data) > 0 {
			m.Device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return true
	}

	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return false
}

// UploadScene pushes the full device state: geometry, materials,
// analytic spheres, BVH nodes and the primitive index array. Returns
// true when any buffer was recreated and bind groups are stale.
func (m *BufferManager) UploadScene(scene *core.Scene) bool {
	recreated := false

	triData := packTriangles(scene.Triangles)
	if len(triData) == 0 {
		triData = make([]byte, TriangleStride)
	}
	if m.ensureBuffer("TrianglesBuf", &m.TrianglesBuf, triData, wgpu.BufferUsageStorage, 0) {
		recreated = true
	}

	sphereData := packSpheres(scene.Spheres)
	if len(sphereData) == 0 {
		sphereData = make([]byte, SphereStride)
	}
	if m.ensureBuffer("SpheresBuf", &m.SpheresBuf, sphereData, wgpu.BufferUsageStorage, 0) {
		recreated = true
	}

	matData := packMaterials(scene.Materials)
	if len(matData) == 0 {
		matData = make([]byte, MaterialStride)
	}
	if m.ensureBuffer("MaterialsBuf", &m.MaterialsBuf, matData, wgpu.BufferUsageStorage, 0) {
		recreated = true
	}

	nodeData := scene.NodesBytes()
	if len(nodeData) == 0 {
		// WebGPU requires non-zero buffers; the evaluator sees
		// node_count == 0 in the params and never reads this.
		nodeData = make([]byte, 48)
	}
	if m.ensureBuffer("BVHNodesBuf", &m.BVHNodesBuf, nodeData, wgpu.BufferUsageStorage, HeadroomNodes) {
		recreated = true
	}

	idxData := scene.PrimitiveIndexBytes()
	if len(idxData) == 0 {
		idxData = make([]byte, 4)
	}
	if m.ensureBuffer("PrimIndicesBuf", &m.PrimIndicesBuf, idxData, wgpu.BufferUsageStorage, 0) {
		recreated = true
	}

	return recreated
}

// UploadNodes re-uploads only the node array after a refit. Bounds-only
// updates never change the serialized size, so this is always an
// in-place write with no bind group churn.
func (m *BufferManager) UploadNodes(scene *core.Scene) {
	if m.BVHNodesBuf == nil {
		return
	}
	nodeData := scene.NodesBytes()
	if len(nodeData) == 0 {
		return
	}
	m.Device.GetQueue().WriteBuffer(m.BVHNodesBuf, 0, nodeData)
}

// RenderParams is the per-frame uniform block.
type RenderParams struct {
	CamPos     mgl32.Vec3
	CamForward mgl32.Vec3
	CamRight   mgl32.Vec3
	CamUp      mgl32.Vec3
	Fov        float32 // vertical, degrees
	Time       float32
	FrameCount uint32
	UseSkybox  bool
	Width      uint32
	Height     uint32

	SphereCount   uint32
	NodeCount     uint32
	TriangleCount uint32
}

const paramsSize = 112

func encodeRenderParams(p RenderParams) []byte {
	// struct RenderParams {
	//   cam_pos : vec4<f32>;       -- 0
	//   cam_forward : vec4<f32>;   -- 16
	//   cam_right : vec4<f32>;     -- 32
	//   cam_up : vec4<f32>;        -- 48
	//   fov, time : f32; frame_count, flags : u32;       -- 64
	//   resolution : vec2<f32>; sphere_count, node_count : u32; -- 80
	//   tri_count : u32; pad x3;   -- 96
	// } -> 112 bytes

	buf := make([]byte, paramsSize)
	putVec3Padded(buf[0:], p.CamPos)
	putVec3Padded(buf[16:], p.CamForward)
	putVec3Padded(buf[32:], p.CamRight)
	putVec3Padded(buf[48:], p.CamUp)

	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(p.Fov))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(p.Time))
	binary.LittleEndian.PutUint32(buf[72:], p.FrameCount)
	flags := uint32(0)
	if p.UseSkybox {
		flags |= 1
	}
	binary.LittleEndian.PutUint32(buf[76:], flags)

	binary.LittleEndian.PutUint32(buf[80:], math.Float32bits(float32(p.Width)))
	binary.LittleEndian.PutUint32(buf[84:], math.Float32bits(float32(p.Height)))
	binary.LittleEndian.PutUint32(buf[88:], p.SphereCount)
	binary.LittleEndian.PutUint32(buf[92:], p.NodeCount)
	binary.LittleEndian.PutUint32(buf[96:], p.TriangleCount)
	return buf
}

func (m *BufferManager) UpdateParams(p RenderParams) {
	buf := encodeRenderParams(p)

	if m.ParamsBuf == nil {
		desc := &wgpu.BufferDescriptor{
			Label: "RenderParamsUB",
			Size:  paramsSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		}
		var err error
		m.ParamsBuf, err = m.Device.CreateBuffer(desc)
		if err != nil {
			panic(err)
		}
	}
	m.Device.GetQueue().WriteBuffer(m.ParamsBuf, 0, buf)
}

// CreateSceneBindGroup binds the scene buffers as group 0 of the trace
// pipeline. Must be re-run after UploadScene reports a recreation.
func (m *BufferManager) CreateSceneBindGroup(pipeline *wgpu.ComputePipeline) {
	entries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: m.ParamsBuf, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: m.TrianglesBuf, Size: wgpu.WholeSize},
		{Binding: 2, Buffer: m.SpheresBuf, Size: wgpu.WholeSize},
		{Binding: 3, Buffer: m.MaterialsBuf, Size: wgpu.WholeSize},
		{Binding: 4, Buffer: m.BVHNodesBuf, Size: wgpu.WholeSize},
		{Binding: 5, Buffer: m.PrimIndicesBuf, Size: wgpu.WholeSize},
	}
	desc := &wgpu.BindGroupDescriptor{
		Layout:  pipeline.GetBindGroupLayout(0),
		Entries: entries,
	}
	var err error
	m.SceneBindGroup, err = m.Device.CreateBindGroup(desc)
	if err != nil {
		panic(err)
	}
}

func packTriangles(tris []core.Triangle) []byte {
	out := make([]byte, len(tris)*TriangleStride)
	for i := range tris {
		t := &tris[i]
		base := i * TriangleStride
		putVec3Padded(out[base+0:], t.V0)
		putVec3Padded(out[base+16:], t.V1)
		putVec3Padded(out[base+32:], t.V2)
		putVec3Padded(out[base+48:], t.N0)
		putVec3Padded(out[base+64:], t.N1)
		putVec3Padded(out[base+80:], t.N2)
		binary.LittleEndian.PutUint32(out[base+96:], uint32(t.MaterialID))
		c := t.Centroid()
		binary.LittleEndian.PutUint32(out[base+100:], math.Float32bits(c.X()))
		binary.LittleEndian.PutUint32(out[base+104:], math.Float32bits(c.Y()))
		binary.LittleEndian.PutUint32(out[base+108:], math.Float32bits(c.Z()))
	}
	return out
}

func packSpheres(spheres []core.Sphere) []byte {
	out := make([]byte, len(spheres)*SphereStride)
	for i := range spheres {
		s := &spheres[i]
		base := i * SphereStride
		putVec3Padded(out[base+0:], s.Center)
		binary.LittleEndian.PutUint32(out[base+16:], math.Float32bits(s.Radius))
		binary.LittleEndian.PutUint32(out[base+20:], uint32(s.MaterialID))
	}
	return out
}

func packMaterials(mats []core.Material) []byte {
	out := make([]byte, len(mats)*MaterialStride)
	for i := range mats {
		mat := &mats[i]
		base := i * MaterialStride
		putVec3Padded(out[base+0:], mat.Albedo)
		binary.LittleEndian.PutUint32(out[base+16:], uint32(mat.Type))
		binary.LittleEndian.PutUint32(out[base+20:], math.Float32bits(mat.EmissionStrength))
		binary.LittleEndian.PutUint32(out[base+24:], math.Float32bits(mat.Fuzz))
		binary.LittleEndian.PutUint32(out[base+28:], math.Float32bits(mat.RefractionIndex))
	}
	return out
}

func putVec3Padded(buf []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.X()))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Y()))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Z()))
	binary.LittleEndian.PutUint32(buf[12:16], 0)
}
