package app

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/foxrt/foxtrace/rt/asset"
	"github.com/foxrt/foxtrace/rt/core"
	"github.com/foxrt/foxtrace/rt/gpu"
	"github.com/foxrt/foxtrace/rt/shaders"
)

// App owns the window, the WebGPU device and the render loop state of
// the progressive tracer. One Update/Render pair per frame, on the
// main thread.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	TracePipeline     *wgpu.ComputePipeline
	BrightPipeline    *wgpu.ComputePipeline
	BlurPipeline      *wgpu.ComputePipeline
	CompositePipeline *wgpu.RenderPipeline

	Buffers  *gpu.BufferManager
	Scene    *core.Scene
	Camera   *core.CameraState
	Profiler *Profiler
	Log      core.Logger

	// Animate, when set, mutates scene geometry each frame. The commit
	// decides whether the change is a refit or a rebuild.
	Animate func(scene *core.Scene, t float32)

	UseSkybox bool

	// FrameCount is the accumulation history length. 1 means the
	// current frame starts a fresh history.
	FrameCount   uint32
	frameParity  int
	lastSnapshot core.CameraSnapshot

	LastTime      float64
	MouseCaptured bool
	lastMouseX    float64
	lastMouseY    float64
	firstMouse    bool

	FPS            float64
	fpsFrames      int
	fpsTime        float64
	lastRenderTime float64
}

func NewApp(window *glfw.Window, scene *core.Scene, log core.Logger) *App {
	if log == nil {
		log = core.NewNopLogger()
	}
	return &App{
		Window:     window,
		Scene:      scene,
		Camera:     core.NewCameraState(),
		Profiler:   NewProfiler(),
		Log:        log,
		firstMouse: true,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	if err := a.createPipelines(format); err != nil {
		return err
	}

	a.Buffers = gpu.NewBufferManager(a.Device)
	a.Buffers.CreateRenderTargets(uint32(width), uint32(height))
	a.Buffers.UploadCubemap(nil)

	a.Scene.Commit()
	a.Buffers.UploadScene(a.Scene)
	a.updateParams()

	a.Buffers.CreateSceneBindGroup(a.TracePipeline)
	a.createTextureBindGroups()

	a.FrameCount = 1
	a.lastSnapshot = a.Camera.Snapshot()
	a.LastTime = glfw.GetTime()

	a.Log.Infof("renderer ready: %dx%d, surface format %v", width, height, format)
	return nil
}

func (a *App) createPipelines(surfaceFormat wgpu.TextureFormat) error {
	traceMod, err := a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Raytrace CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.RaytraceWGSL},
	})
	if err != nil {
		return err
	}
	bloomMod, err := a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Bloom CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BloomWGSL},
	})
	if err != nil {
		return err
	}
	fsMod, err := a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Fullscreen VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.FullscreenWGSL},
	})
	if err != nil {
		return err
	}

	a.TracePipeline, err = a.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Raytrace Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     traceMod,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return err
	}

	a.BrightPipeline, err = a.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Bloom Bright Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     bloomMod,
			EntryPoint: "bright_pass",
		},
	})
	if err != nil {
		return err
	}

	a.BlurPipeline, err = a.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "Bloom Blur Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     bloomMod,
			EntryPoint: "blur_pass",
		},
	})
	if err != nil {
		return err
	}

	a.CompositePipeline, err = a.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Composite Pipeline",
		Vertex: wgpu.VertexState{
			Module:     fsMod,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsMod,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	return err
}

func (a *App) createTextureBindGroups() {
	a.Buffers.CreateTraceBindGroups(a.TracePipeline)
	a.Buffers.CreateBloomBindGroups(a.BrightPipeline, a.BlurPipeline)
	a.Buffers.CreateCompositeBindGroups(a.CompositePipeline)
}

// SetSkybox installs a cubemap, or reverts to the procedural sky when
// cm is nil. Either way the accumulated history is stale.
func (a *App) SetSkybox(cm *asset.Cubemap) {
	a.Buffers.UploadCubemap(cm)
	a.UseSkybox = cm != nil
	if a.Buffers.HasRenderTargets() {
		a.createTextureBindGroups()
	}
	a.FrameCount = 1
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	a.Buffers.CreateRenderTargets(uint32(w), uint32(h))
	a.createTextureBindGroups()
	a.FrameCount = 1
}

func (a *App) Update() {
	now := glfw.GetTime()
	dt := float32(now - a.LastTime)
	a.LastTime = now

	a.processInput(dt)

	if a.Animate != nil {
		a.Animate(a.Scene, float32(now))
	}

	// Any pose change throws away the accumulated history.
	snap := a.Camera.Snapshot()
	if snap != a.lastSnapshot {
		a.FrameCount = 0
		a.lastSnapshot = snap
	}

	a.Profiler.Begin("commit")
	result := a.Scene.Commit()
	a.Profiler.End("commit")

	switch result {
	case core.CommitBuild:
		a.Profiler.Begin("upload")
		if a.Buffers.UploadScene(a.Scene) {
			a.Buffers.CreateSceneBindGroup(a.TracePipeline)
		}
		a.Profiler.End("upload")
		a.FrameCount = 0
	case core.CommitRefit:
		a.Profiler.Begin("upload")
		a.Buffers.UploadNodes(a.Scene)
		a.Profiler.End("upload")
		a.FrameCount = 0
	}

	a.Profiler.SetCount("tris", len(a.Scene.Triangles))
	a.Profiler.SetCount("nodes", len(a.Scene.Nodes()))

	a.FrameCount++
	a.frameParity = 1 - a.frameParity

	a.updateParams()
}

func (a *App) updateParams() {
	a.Buffers.UpdateParams(gpu.RenderParams{
		CamPos:        a.Camera.Position,
		CamForward:    a.Camera.Forward(),
		CamRight:      a.Camera.Right(),
		CamUp:         a.Camera.Up(),
		Fov:           a.Camera.Fov,
		Time:          float32(glfw.GetTime()),
		FrameCount:    a.FrameCount,
		UseSkybox:     a.UseSkybox,
		Width:         a.Config.Width,
		Height:        a.Config.Height,
		SphereCount:   uint32(len(a.Scene.Spheres)),
		NodeCount:     uint32(len(a.Scene.Nodes())),
		TriangleCount: uint32(len(a.Scene.Triangles)),
	})
}

func (a *App) Render() {
	surfaceTex, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer surfaceTex.Release()

	view, err := surfaceTex.CreateView(nil)
	if err != nil {
		a.Log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	p := a.frameParity
	wgX := (a.Config.Width + 7) / 8
	wgY := (a.Config.Height + 7) / 8

	// Trace
	tPass := encoder.BeginComputePass(nil)
	tPass.SetPipeline(a.TracePipeline)
	tPass.SetBindGroup(0, a.Buffers.SceneBindGroup, nil)
	tPass.SetBindGroup(1, a.Buffers.TraceBindGroup[p], nil)
	tPass.DispatchWorkgroups(wgX, wgY, 1)
	if err := tPass.End(); err != nil {
		a.Log.Errorf("trace pass failed: %v", err)
	}

	// Bloom, at half resolution
	bwX := (a.Config.Width/2 + 7) / 8
	bwY := (a.Config.Height/2 + 7) / 8

	bPass := encoder.BeginComputePass(nil)
	bPass.SetPipeline(a.BrightPipeline)
	bPass.SetBindGroup(0, a.Buffers.BrightBindGroup[p], nil)
	bPass.DispatchWorkgroups(bwX, bwY, 1)

	bPass.SetPipeline(a.BlurPipeline)
	bPass.SetBindGroup(0, a.Buffers.BlurBindGroup[0], nil)
	bPass.DispatchWorkgroups(bwX, bwY, 1)
	bPass.SetBindGroup(0, a.Buffers.BlurBindGroup[1], nil)
	bPass.DispatchWorkgroups(bwX, bwY, 1)
	if err := bPass.End(); err != nil {
		a.Log.Errorf("bloom pass failed: %v", err)
	}

	// Composite
	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{A: 1},
		}},
	})
	rPass.SetPipeline(a.CompositePipeline)
	rPass.SetBindGroup(0, a.Buffers.CompositeBindGroup[p], nil)
	rPass.Draw(3, 1, 0, 0)
	if err := rPass.End(); err != nil {
		a.Log.Errorf("composite pass failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Log.Errorf("encoder finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	now := glfw.GetTime()
	if a.lastRenderTime > 0 {
		a.fpsFrames++
		a.fpsTime += now - a.lastRenderTime
		if a.fpsTime >= 1.0 {
			a.FPS = float64(a.fpsFrames) / a.fpsTime
			a.Log.Debugf("fps=%.1f accum=%d %s", a.FPS, a.FrameCount, a.Profiler.Stats())
			a.fpsFrames = 0
			a.fpsTime = 0
		}
	}
	a.lastRenderTime = now
}

func (a *App) processInput(dt float32) {
	cam := a.Camera
	velocity := cam.Speed * dt

	if a.Window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		velocity *= 4
	}
	if a.Window.GetKey(glfw.KeyW) == glfw.Press {
		cam.Position = cam.Position.Add(cam.Forward().Mul(velocity))
	}
	if a.Window.GetKey(glfw.KeyS) == glfw.Press {
		cam.Position = cam.Position.Sub(cam.Forward().Mul(velocity))
	}
	if a.Window.GetKey(glfw.KeyA) == glfw.Press {
		cam.Position = cam.Position.Sub(cam.Right().Mul(velocity))
	}
	if a.Window.GetKey(glfw.KeyD) == glfw.Press {
		cam.Position = cam.Position.Add(cam.Right().Mul(velocity))
	}
	if a.Window.GetKey(glfw.KeySpace) == glfw.Press {
		cam.Position = cam.Position.Add(cam.Up().Mul(velocity))
	}
	if a.Window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		cam.Position = cam.Position.Sub(cam.Up().Mul(velocity))
	}
}

// HandleMouseMove applies mouse-look while the cursor is captured.
func (a *App) HandleMouseMove(x, y float64) {
	if !a.MouseCaptured {
		a.firstMouse = true
		return
	}
	if a.firstMouse {
		a.lastMouseX = x
		a.lastMouseY = y
		a.firstMouse = false
		return
	}

	dx := float32(x - a.lastMouseX)
	dy := float32(y - a.lastMouseY)
	a.lastMouseX = x
	a.lastMouseY = y

	a.Camera.Yaw -= dx * a.Camera.Sensitivity
	a.Camera.Pitch -= dy * a.Camera.Sensitivity
	a.Camera.ClampPitch()
}

// ToggleMouseCapture switches between cursor-captured fly mode and the
// normal desktop cursor.
func (a *App) ToggleMouseCapture() {
	a.MouseCaptured = !a.MouseCaptured
	if a.MouseCaptured {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	a.firstMouse = true
}
