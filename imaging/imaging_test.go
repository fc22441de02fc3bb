package imaging_test

import (
	goimage "image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intermodalis/transitcore/imaging"
)

func solidImage(w, h int) goimage.Image {
	img := goimage.NewRGBA(goimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestResizeWithinNeverUpscales(t *testing.T) {
	img := solidImage(100, 50)
	resized := imaging.ResizeWithin(img, 1200, 800)
	assert.Equal(t, 100, resized.Bounds().Dx())
	assert.Equal(t, 50, resized.Bounds().Dy())
}

func TestResizeWithinPreservesAspectRatio(t *testing.T) {
	img := solidImage(2400, 1200)
	resized := imaging.ResizeWithin(img, 1200, 800)
	b := resized.Bounds()
	require.LessOrEqual(t, b.Dx(), 1200)
	require.LessOrEqual(t, b.Dy(), 800)
	assert.Equal(t, 2, b.Dx()/b.Dy())
}

func TestApplyOrientationIdentityForUpright(t *testing.T) {
	img := solidImage(10, 20)
	out := imaging.ApplyOrientation(img, 1)
	assert.Equal(t, img.Bounds(), out.Bounds())
}

func TestApplyOrientationSwapsDimensionsFor90And270(t *testing.T) {
	img := solidImage(10, 20)
	for _, orientation := range []int{5, 6, 7, 8} {
		out := imaging.ApplyOrientation(img, orientation)
		assert.Equal(t, 20, out.Bounds().Dx(), "orientation %d", orientation)
		assert.Equal(t, 10, out.Bounds().Dy(), "orientation %d", orientation)
	}
}

func TestApplyOrientationKeepsDimensionsFor180(t *testing.T) {
	img := solidImage(10, 20)
	out := imaging.ApplyOrientation(img, 3)
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 20, out.Bounds().Dy())
}

func TestEncodeWebpProducesNonEmptyOutput(t *testing.T) {
	img := solidImage(16, 16)
	data, err := imaging.EncodeWebp(img, 85)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, []byte("RIFF"), data[:4])
}
