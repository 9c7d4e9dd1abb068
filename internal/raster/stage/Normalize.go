package stage

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"

	"github.com/rm-hull/strip-slicer/internal/raster"
)

// Normalizer returns the stages that turn any decoded image into an opaque raster
// exactly width pixels wide: flatten onto white, then resample.
func Normalizer(width int, filter transform.ResampleFilter) []raster.PipelineStage {
	return []raster.PipelineStage{
		&FlattenStage{Background: color.White},
		&ResampleStage{Width: width, Filter: filter},
	}
}

// Normalize runs the Normalizer stages over r and returns the result.
func Normalize(r *raster.Raster, width int, filter transform.ResampleFilter) (*image.RGBA, error) {
	if err := r.Pipeline(Normalizer(width, filter)...); err != nil {
		return nil, err
	}
	return r.RGBA(), nil
}
