package asset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// Cubemap holds six RGBA8 faces of equal square size, ready for a
// single texture upload. Face order matches the sampler convention:
// +X, -X, +Y, -Y, +Z, -Z.
type Cubemap struct {
	Size  int
	Faces [6][]byte
}

// LoadCubemap decodes six face images from disk. Faces of mismatched
// size are rescaled to the smallest edge among them, so slightly
// inconsistent skybox sets still load.
func LoadCubemap(paths [6]string) (*Cubemap, error) {
	var imgs [6]image.Image
	for i, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cubemap face %q: %w", path, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode cubemap face %q: %w", path, err)
		}
		imgs[i] = img
	}
	return NewCubemapFromImages(imgs)
}

// NewCubemapFromImages normalizes six decoded images into a Cubemap.
func NewCubemapFromImages(imgs [6]image.Image) (*Cubemap, error) {
	size := 0
	for i, img := range imgs {
		if img == nil {
			return nil, fmt.Errorf("cubemap face %d is nil", i)
		}
		b := img.Bounds()
		edge := b.Dx()
		if b.Dy() < edge {
			edge = b.Dy()
		}
		if edge == 0 {
			return nil, fmt.Errorf("cubemap face %d is empty", i)
		}
		if size == 0 || edge < size {
			size = edge
		}
	}

	cm := &Cubemap{Size: size}
	for i, img := range imgs {
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		cm.Faces[i] = dst.Pix
	}
	return cm, nil
}
