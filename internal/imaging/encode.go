package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodedImage carries a raster over JSON transports.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG serializes an image as base64 PNG, optionally resizing it first.
// A scale of 1.0 (or any non-positive value) keeps the original size.
func EncodePNG(img image.Image, scale float64) (*EncodedImage, error) {
	out := img
	if scale > 0 && scale != 1.0 {
		w := int(float64(img.Bounds().Dx()) * scale)
		h := int(float64(img.Bounds().Dy()) * scale)
		out = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Save writes an image to disk, with the format chosen by the file
// extension (.png, .jpg, .jpeg, .gif, .tif, .bmp).
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// CropRegion extracts a rectangular region as a new image.
func CropRegion(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect)
}

// SideBySide composes a before/after comparison on a black canvas, with the
// original on the left. Heights may differ; each image is top-aligned.
func SideBySide(before, after image.Image) *image.NRGBA {
	bw, bh := before.Bounds().Dx(), before.Bounds().Dy()
	aw, ah := after.Bounds().Dx(), after.Bounds().Dy()

	h := bh
	if ah > h {
		h = ah
	}
	canvas := imaging.New(bw+aw, h, color.NRGBA{A: 255})
	canvas = imaging.Paste(canvas, before, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, after, image.Pt(bw, 0))
	return canvas
}
