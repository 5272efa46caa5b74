package main

import (
	"flag"
	"math"
	"path/filepath"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/foxrt/foxtrace/rt/app"
	"github.com/foxrt/foxtrace/rt/asset"
	"github.com/foxrt/foxtrace/rt/core"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging (build/refit stats, FPS)")
	width := flag.Int("width", 1280, "Window width")
	height := flag.Int("height", 720, "Window height")
	objPath := flag.String("obj", "", "OBJ mesh to load into the scene")
	skyboxDir := flag.String("skybox", "", "Directory with right/left/top/bottom/front/back.jpg faces")
	animate := flag.Bool("animate", false, "Animate the mesh to exercise the refit path")
	flag.Parse()

	log := core.NewDefaultLogger("foxtrace", *debug)

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(*width, *height, "FoxTrace", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	scene := core.NewScene(log)
	buildScene(scene, *objPath, log)

	application := app.NewApp(window, scene, log)
	if *animate {
		application.Animate = bobMesh
	}
	if err := application.Init(); err != nil {
		panic(err)
	}

	if *skyboxDir != "" {
		cm, err := asset.LoadCubemap(skyboxFaces(*skyboxDir))
		if err != nil {
			log.Warnf("skybox load failed, using procedural sky: %v", err)
		} else {
			application.SetSkybox(cm)
			log.Infof("skybox loaded from %s (%dpx faces)", *skyboxDir, cm.Size)
		}
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		application.Resize(fbWidth, fbHeight)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		application.HandleMouseMove(x, y)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			application.ToggleMouseCapture()
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}

// buildScene assembles the default test scene: a ground quad, one
// sphere per material type, and an optional OBJ mesh.
func buildScene(scene *core.Scene, objPath string, log core.Logger) {
	scene.SetMaterials([]core.Material{
		core.NewLambertian(mgl32.Vec3{0.5, 0.5, 0.5}),    // 0: ground
		core.NewLambertian(mgl32.Vec3{0.8, 0.3, 0.3}),    // 1
		core.NewMetal(mgl32.Vec3{0.9, 0.9, 0.9}, 0.05),   // 2
		core.NewDielectric(1.5),                          // 3
		core.NewEmissive(mgl32.Vec3{1.0, 0.9, 0.7}, 8.0), // 4
	})

	const ext = 20.0
	ground := []core.Triangle{
		flatTriangle(mgl32.Vec3{-ext, 0, -ext}, mgl32.Vec3{ext, 0, -ext}, mgl32.Vec3{ext, 0, ext}, 0),
		flatTriangle(mgl32.Vec3{-ext, 0, -ext}, mgl32.Vec3{ext, 0, ext}, mgl32.Vec3{-ext, 0, ext}, 0),
	}
	scene.AddTriangles(ground)

	scene.AddSphere(core.Sphere{Center: mgl32.Vec3{-1.5, 0.5, 0}, Radius: 0.5, MaterialID: 1})
	scene.AddSphere(core.Sphere{Center: mgl32.Vec3{0, 0.5, 0}, Radius: 0.5, MaterialID: 2})
	scene.AddSphere(core.Sphere{Center: mgl32.Vec3{1.5, 0.5, 0}, Radius: 0.5, MaterialID: 3})
	scene.AddSphere(core.Sphere{Center: mgl32.Vec3{0, 4.0, 0}, Radius: 1.0, MaterialID: 4})

	if objPath == "" {
		return
	}
	mesh, err := asset.LoadOBJ(objPath, 2)
	if err != nil {
		log.Errorf("failed to load mesh %s: %v", objPath, err)
		return
	}
	mesh.Transform(mgl32.Translate3D(0, 1.0, 2.0))
	scene.AddTriangles(mesh.Triangles)
	log.Infof("loaded mesh %s: %d triangles", mesh.Name, len(mesh.Triangles))
}

func flatTriangle(v0, v1, v2 mgl32.Vec3, materialID int32) core.Triangle {
	tri := core.Triangle{V0: v0, V1: v1, V2: v2, MaterialID: materialID}
	n := tri.FaceNormal()
	tri.N0, tri.N1, tri.N2 = n, n, n
	return tri
}

// bobMesh moves every non-ground triangle up and down without changing
// the triangle count, which keeps the per-frame cost on the refit path.
func bobMesh(scene *core.Scene, t float32) {
	dy := float32(math.Sin(float64(t))) * 0.01
	scene.MutateTriangles(func(i int, tri *core.Triangle) {
		if i < 2 {
			return // ground stays put
		}
		offset := mgl32.Vec3{0, dy, 0}
		tri.V0 = tri.V0.Add(offset)
		tri.V1 = tri.V1.Add(offset)
		tri.V2 = tri.V2.Add(offset)
	})
}

func skyboxFaces(dir string) [6]string {
	names := [6]string{"right.jpg", "left.jpg", "top.jpg", "bottom.jpg", "front.jpg", "back.jpg"}
	var paths [6]string
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths
}
