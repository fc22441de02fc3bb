// Package imaging implements Component C (spec.md §4.3): decode into the
// image type the standard library decoder returns (no conversion to a
// fixed RGB8 pixel layout is made), EXIF extraction (exif.go), orientation
// correction, and
// area-preserving Catmull-Rom resampling down to the medium/thumb sizes
// encoded as webp.
package imaging

import (
	"bytes"
	goimage "image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	ximaging "github.com/disintegration/imaging"

	"github.com/intermodalis/transitcore/coreerrors"
)

// Decode reads an image into memory, stdlib-registered formats only
// (jpeg, png — the two spec.md §4.3 requires for uploads).
func Decode(data []byte) (goimage.Image, error) {
	img, _, err := goimage.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, coreerrors.Processing.Wrap(err)
	}
	return img, nil
}

// ApplyOrientation rotates/flips img so the stored blob is upright,
// consuming the raw EXIF Orientation value 1..8 (spec.md §4.3). Grounded
// on disintegration/imaging's transform set, the same library the wider
// example pack reaches for ahead of hand-rolling affine transforms.
func ApplyOrientation(img goimage.Image, orientation int) goimage.Image {
	switch orientation {
	case 2:
		return ximaging.FlipH(img)
	case 3:
		return ximaging.Rotate180(img)
	case 4:
		return ximaging.FlipV(img)
	case 5:
		return ximaging.FlipV(ximaging.Rotate90(img))
	case 6:
		return ximaging.Rotate270(img)
	case 7:
		return ximaging.FlipV(ximaging.Rotate270(img))
	case 8:
		return ximaging.Rotate90(img)
	default:
		return img
	}
}

// ResizeWithin scales img down to fit within maxW x maxH, preserving
// aspect ratio, via area-preserving Catmull-Rom resampling (spec.md §4.3
// "Derive medium/thumb"). Images already within bounds are returned
// unchanged — this never upscales.
func ResizeWithin(img goimage.Image, maxW, maxH int) goimage.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if alt := float64(maxH) / float64(h); alt < scale {
		scale = alt
	}
	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	return ximaging.Resize(img, dstW, dstH, ximaging.CatmullRom)
}

// EncodeWebp lossy-encodes img at the given quality (0-100).
func EncodeWebp(img goimage.Image, quality float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, coreerrors.Processing.Wrap(err)
	}
	return buf.Bytes(), nil
}
