package stage

import (
	"github.com/anthonynsimon/bild/transform"

	"github.com/rm-hull/strip-slicer/internal/errors"
	"github.com/rm-hull/strip-slicer/internal/raster"
)

type ResampleStage struct {
	Width  int
	Filter transform.ResampleFilter
}

// Process scales the image to Width columns, keeping the aspect ratio; the new height is
// rounded down. An image that already has the target size is left untouched. Filters with
// narrow support (box) can leave zero-weight gaps when upscaling, so any output that is no
// longer opaque is flattened onto white again.
func (s *ResampleStage) Process(r *raster.Raster) error {
	if s.Width <= 0 {
		return errors.New(errors.ErrCodeInvalidDimension, "target width must be positive, got %d", s.Width)
	}

	w, h := r.Bounds.Dx(), r.Bounds.Dy()
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidDimension, "image has zero area (%dx%d)", w, h)
	}

	height := TargetHeight(w, h, s.Width)
	if height == 0 {
		return errors.New(errors.ErrCodeInvalidDimension, "%dx%d image resampled to width %d has zero height", w, h, s.Width)
	}
	if w == s.Width && h == height {
		return nil
	}

	resized := transform.Resize(r.Img, s.Width, height, s.Filter)
	r.Img = resized
	r.Bounds = resized.Bounds()
	if !resized.Opaque() {
		return (&FlattenStage{}).Process(r)
	}
	return nil
}

// TargetHeight is floor(width / (w/h)), computed in integers.
func TargetHeight(w, h, width int) int {
	return int(int64(width) * int64(h) / int64(w))
}
