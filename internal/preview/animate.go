// Package preview builds an animated PNG that flips through a run's tiles,
// for eyeballing seams without opening every file.
package preview

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/kettek/apng"
	"golang.org/x/image/draw"

	"github.com/rm-hull/strip-slicer/internal/errors"
	"github.com/rm-hull/strip-slicer/internal/raster"
)

// MaxFrameDelay is the longest delay an APNG frame can carry at millisecond precision.
const MaxFrameDelay = float64(math.MaxUint16) / 1000

// Animate decodes files in order and encodes them as APNG frames shown for frameDelay
// seconds each. Every frame is drawn top-left on a white canvas as large as the biggest
// tile, so a short final tile doesn't shrink the animation.
func Animate(files []string, frameDelay float64) ([]byte, error) {
	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no tiles to animate")
	}
	if frameDelay <= 0 || frameDelay > MaxFrameDelay {
		return nil, errors.New(errors.ErrCodeInvalidInput, "frame delay must be in (0, %g] seconds, got %g", MaxFrameDelay, frameDelay)
	}

	images := make([]image.Image, len(files))
	var canvas image.Rectangle
	for i, fname := range files {
		r, err := raster.Open(fname)
		if err != nil {
			return nil, err
		}
		images[i] = r.Img
		canvas = canvas.Union(image.Rect(0, 0, r.Bounds.Dx(), r.Bounds.Dy()))
	}

	a := apng.APNG{
		Frames:    make([]apng.Frame, len(images)),
		LoopCount: 0,
	}
	for i, img := range images {
		frame := image.NewRGBA(canvas)
		draw.Draw(frame, canvas, image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(frame, img.Bounds().Sub(img.Bounds().Min), img, img.Bounds().Min, draw.Over)

		a.Frames[i] = apng.Frame{
			Image:            frame,
			DelayNumerator:   uint16(math.Round(frameDelay * 1000)),
			DelayDenominator: 1000,
		}
	}

	var buf bytes.Buffer
	if err := apng.Encode(&buf, a); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "failed to encode animation")
	}

	return buf.Bytes(), nil
}
