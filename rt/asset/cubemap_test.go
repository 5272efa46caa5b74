package asset

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFace(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestCubemapNormalizesFaceSizes(t *testing.T) {
	var imgs [6]image.Image
	sizes := [6]int{64, 64, 32, 64, 64, 64}
	for i := range imgs {
		imgs[i] = solidFace(sizes[i], sizes[i], color.RGBA{uint8(40 * i), 0, 0, 255})
	}

	cm, err := NewCubemapFromImages(imgs)
	require.NoError(t, err)

	// Smallest edge wins.
	assert.Equal(t, 32, cm.Size)
	for i, face := range cm.Faces {
		require.Len(t, face, 32*32*4, "face %d", i)
		// Solid input stays solid after scaling.
		assert.Equal(t, uint8(40*i), face[0], "face %d red channel", i)
		assert.Equal(t, uint8(255), face[3], "face %d alpha", i)
	}
}

func TestCubemapRejectsNilFace(t *testing.T) {
	var imgs [6]image.Image
	for i := 0; i < 5; i++ {
		imgs[i] = solidFace(8, 8, color.RGBA{255, 255, 255, 255})
	}
	_, err := NewCubemapFromImages(imgs)
	require.Error(t, err)
}
