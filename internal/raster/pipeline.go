package raster

import (
	"image"
	"io"
	"os"

	// Input decoders; image.Decode picks by magic bytes.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/draw"

	"github.com/rm-hull/strip-slicer/internal/errors"
)

// Raster is a decoded image travelling through a pipeline of stages.
// Each stage may replace Img; Bounds always tracks Img.Bounds().
type Raster struct {
	Img    image.Image
	Bounds image.Rectangle
	Format string
}

type PipelineStage interface {
	Process(r *Raster) error
}

// Decode reads a single image from r. Unreadable data is reported as
// ErrCodeDecode and a zero-area image as ErrCodeInvalidDimension.
func Decode(r io.Reader) (*Raster, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "failed to decode image")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.New(errors.ErrCodeInvalidDimension, "image has zero area (%dx%d)", bounds.Dx(), bounds.Dy())
	}
	return &Raster{
		Img:    img,
		Bounds: bounds,
		Format: format,
	}, nil
}

// Open decodes the image stored at path. The returned error, if any, carries the path.
func Open(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "failed to open image").WithPath(path)
	}
	defer func() {
		_ = f.Close()
	}()

	r, err := Decode(f)
	if err != nil {
		return nil, errors.AttachPath(err, path)
	}
	return r, nil
}

func (r *Raster) Write(w io.Writer, encoder imgio.Encoder) error {
	return encoder(w, r.Img)
}

func (r *Raster) Pipeline(stages ...PipelineStage) error {
	for _, stage := range stages {
		if err := stage.Process(r); err != nil {
			return err
		}
	}
	return nil
}

// RGBA returns the raster as an *image.RGBA anchored at the origin,
// converting only when Img is not already in that shape.
func (r *Raster) RGBA() *image.RGBA {
	if rgba, ok := r.Img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Bounds.Dx(), r.Bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), r.Img, r.Bounds.Min, draw.Src)
	return dst
}
