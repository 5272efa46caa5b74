package shaders

import (
	_ "embed"
)

//go:embed raytrace.wgsl
var RaytraceWGSL string

//go:embed bloom.wgsl
var BloomWGSL string

//go:embed fullscreen.wgsl
var FullscreenWGSL string
