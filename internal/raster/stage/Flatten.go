package stage

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/rm-hull/strip-slicer/internal/raster"
)

type FlattenStage struct {
	Background color.Color
}

// Process composites the image onto an opaque background (white when Background is nil),
// so every output pixel is src*alpha + background*(1-alpha). Images that report themselves
// opaque are copied as-is. The result is an *image.RGBA anchored at the origin.
func (s *FlattenStage) Process(r *raster.Raster) error {
	bg := s.Background
	if bg == nil {
		bg = color.White
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Bounds.Dx(), r.Bounds.Dy()))
	if hasAlpha(r.Img) {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
		draw.Draw(dst, dst.Bounds(), r.Img, r.Bounds.Min, draw.Over)
	} else {
		draw.Draw(dst, dst.Bounds(), r.Img, r.Bounds.Min, draw.Src)
	}

	r.Img = dst
	r.Bounds = dst.Bounds()
	return nil
}

// hasAlpha covers RGBA, NRGBA, grey+alpha and paletted images alike: anything that
// cannot prove it is opaque gets composited.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return true
}
