package gpu

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/foxrt/foxtrace/rt/asset"
)

// Post-process resources: the ping-pong accumulation pair the
// progressive tracer blends into, the bloom chain, and the skybox.
// Frame parity p means: trace reads Accum[1-p], writes Accum[p];
// bloom and composite read Accum[p].

func (m *BufferManager) HasRenderTargets() bool {
	return m.AccumTex[0] != nil
}

type postResources struct {
	AccumTex  [2]*wgpu.Texture
	AccumView [2]*wgpu.TextureView

	BloomTexA  *wgpu.Texture
	BloomViewA *wgpu.TextureView
	BloomTexB  *wgpu.Texture
	BloomViewB *wgpu.TextureView

	SkyboxTex  *wgpu.Texture
	SkyboxView *wgpu.TextureView
	Sampler    *wgpu.Sampler

	BlurDirBuf [2]*wgpu.Buffer

	TraceBindGroup     [2]*wgpu.BindGroup
	BrightBindGroup    [2]*wgpu.BindGroup
	BlurBindGroup      [2]*wgpu.BindGroup
	CompositeBindGroup [2]*wgpu.BindGroup
}

// CreateRenderTargets (re)creates the accumulation and bloom textures
// for the given surface size, releasing any previous set.
func (m *BufferManager) CreateRenderTargets(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}

	for i := 0; i < 2; i++ {
		if m.AccumTex[i] != nil {
			m.AccumTex[i].Release()
		}
		m.AccumTex[i] = m.createStorageTexture("AccumTex", width, height, wgpu.TextureFormatRGBA32Float)
		m.AccumView[i] = mustView(m.AccumTex[i])
	}

	if m.BloomTexA != nil {
		m.BloomTexA.Release()
	}
	if m.BloomTexB != nil {
		m.BloomTexB.Release()
	}
	// Bloom runs at half resolution; quality loss is invisible after
	// the blur and it halves the pass cost.
	bw, bh := width/2, height/2
	if bw == 0 {
		bw = 1
	}
	if bh == 0 {
		bh = 1
	}
	m.BloomTexA = m.createStorageTexture("BloomTexA", bw, bh, wgpu.TextureFormatRGBA16Float)
	m.BloomViewA = mustView(m.BloomTexA)
	m.BloomTexB = m.createStorageTexture("BloomTexB", bw, bh, wgpu.TextureFormatRGBA16Float)
	m.BloomViewB = mustView(m.BloomTexB)

	m.ensureBlurDirBuffers()
	m.ensureSampler()
}

func (m *BufferManager) createStorageTexture(label string, w, h uint32, format wgpu.TextureFormat) *wgpu.Texture {
	tex, err := m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		panic(err)
	}
	return tex
}

func mustView(tex *wgpu.Texture) *wgpu.TextureView {
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return view
}

func (m *BufferManager) ensureBlurDirBuffers() {
	dirs := [2][2]float32{{1, 0}, {0, 1}}
	for i := 0; i < 2; i++ {
		if m.BlurDirBuf[i] != nil {
			continue
		}
		buf := make([]byte, 16)
		binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(dirs[i][0]))
		binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(dirs[i][1]))
		b, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "BlurDirUB",
			Size:  16,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
		m.Device.GetQueue().WriteBuffer(b, 0, buf)
		m.BlurDirBuf[i] = b
	}
}

func (m *BufferManager) ensureSampler() {
	if m.Sampler != nil {
		return
	}
	var err error
	m.Sampler, err = m.Device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(err)
	}
}

// UploadCubemap creates the skybox cube texture. A nil cubemap installs
// a 1x1 white fallback so the bind group layout never changes; the
// shader switches to the procedural sky via the params flag.
func (m *BufferManager) UploadCubemap(cm *asset.Cubemap) {
	size := uint32(1)
	if cm != nil {
		size = uint32(cm.Size)
	}

	if m.SkyboxTex != nil {
		m.SkyboxTex.Release()
	}

	var err error
	m.SkyboxTex, err = m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "SkyboxTex",
		Size:          wgpu.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 6},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		panic(err)
	}

	queue := m.Device.GetQueue()
	for face := uint32(0); face < 6; face++ {
		var pix []byte
		if cm != nil {
			pix = cm.Faces[face]
		} else {
			pix = []byte{255, 255, 255, 255}
		}
		queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  m.SkyboxTex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: face},
				Aspect:   wgpu.TextureAspectAll,
			},
			pix,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  size * 4,
				RowsPerImage: size,
			},
			&wgpu.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 1},
		)
	}

	m.SkyboxView, err = m.SkyboxTex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "SkyboxView",
		Format:          wgpu.TextureFormatRGBA8Unorm,
		Dimension:       wgpu.TextureViewDimensionCube,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 6,
	})
	if err != nil {
		panic(err)
	}
}

// CreateTraceBindGroups builds group 1 of the trace pipeline for both
// frame parities.
func (m *BufferManager) CreateTraceBindGroups(pipeline *wgpu.ComputePipeline) {
	for p := 0; p < 2; p++ {
		bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: pipeline.GetBindGroupLayout(1),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: m.AccumView[1-p]}, // previous frame
				{Binding: 1, TextureView: m.AccumView[p]},   // current target
				{Binding: 2, TextureView: m.SkyboxView},
				{Binding: 3, Sampler: m.Sampler},
			},
		})
		if err != nil {
			panic(err)
		}
		m.TraceBindGroup[p] = bg
	}
}

// CreateBloomBindGroups builds the bright-pass groups (one per accum
// parity) and the two blur direction groups (A->B then B->A).
func (m *BufferManager) CreateBloomBindGroups(brightPipeline, blurPipeline *wgpu.ComputePipeline) {
	for p := 0; p < 2; p++ {
		bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: brightPipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: m.AccumView[p]},
				{Binding: 1, TextureView: m.BloomViewA},
			},
		})
		if err != nil {
			panic(err)
		}
		m.BrightBindGroup[p] = bg
	}

	srcs := [2]*wgpu.TextureView{m.BloomViewA, m.BloomViewB}
	dsts := [2]*wgpu.TextureView{m.BloomViewB, m.BloomViewA}
	for i := 0; i < 2; i++ {
		bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: blurPipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: srcs[i]},
				{Binding: 1, TextureView: dsts[i]},
				{Binding: 2, Buffer: m.BlurDirBuf[i], Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(err)
		}
		m.BlurBindGroup[i] = bg
	}
}

// CreateCompositeBindGroups builds the final blit groups: accumulated
// radiance plus the blurred bloom term.
func (m *BufferManager) CreateCompositeBindGroups(pipeline *wgpu.RenderPipeline) {
	for p := 0; p < 2; p++ {
		bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: m.AccumView[p]},
				{Binding: 1, TextureView: m.BloomViewA},
				{Binding: 2, Sampler: m.Sampler},
			},
		})
		if err != nil {
			panic(err)
		}
		m.CompositeBindGroup[p] = bg
	}
}
