package core

import "github.com/go-gl/mathgl/mgl32"

type MaterialType int32

const (
	Lambertian MaterialType = iota
	Metal
	Dielectric
	Emissive
)

type Material struct {
	Albedo           mgl32.Vec3
	Type             MaterialType
	EmissionStrength float32
	Fuzz             float32
	RefractionIndex  float32
}

func NewLambertian(albedo mgl32.Vec3) Material {
	return Material{Albedo: albedo, Type: Lambertian}
}

func NewMetal(albedo mgl32.Vec3, fuzz float32) Material {
	return Material{Albedo: albedo, Type: Metal, Fuzz: fuzz}
}

func NewDielectric(refractionIndex float32) Material {
	return Material{Albedo: mgl32.Vec3{1, 1, 1}, Type: Dielectric, RefractionIndex: refractionIndex}
}

func NewEmissive(albedo mgl32.Vec3, strength float32) Material {
	return Material{Albedo: albedo, Type: Emissive, EmissionStrength: strength}
}
