package raster

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Rows returns rows [y0, y1) of img, counted from the top of img, as a view
// re-based at the origin. No pixels are copied.
func Rows(img *image.RGBA, y0, y1 int) *image.RGBA {
	b := img.Bounds()
	if y0 < 0 || y1 > b.Dy() || y0 > y1 {
		panic(fmt.Sprintf("raster: rows [%d, %d) out of range for height %d", y0, y1, b.Dy()))
	}
	if y0 == y1 {
		return &image.RGBA{Stride: img.Stride, Rect: image.Rect(0, 0, b.Dx(), 0)}
	}
	start := img.PixOffset(b.Min.X, b.Min.Y+y0)
	end := img.PixOffset(b.Min.X, b.Min.Y+y1-1) + b.Dx()*4
	return &image.RGBA{
		Pix:    img.Pix[start:end:end],
		Stride: img.Stride,
		Rect:   image.Rect(0, 0, b.Dx(), y1-y0),
	}
}

// Clone copies img into a compact raster of its own.
func Clone(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Stack places top directly above bottom. Both must have the same width.
func Stack(top, bottom *image.RGBA) *image.RGBA {
	tb, bb := top.Bounds(), bottom.Bounds()
	if tb.Dx() != bb.Dx() {
		panic(fmt.Sprintf("raster: cannot stack width %d above width %d", tb.Dx(), bb.Dx()))
	}
	dst := image.NewRGBA(image.Rect(0, 0, tb.Dx(), tb.Dy()+bb.Dy()))
	draw.Draw(dst, image.Rect(0, 0, tb.Dx(), tb.Dy()), top, tb.Min, draw.Src)
	draw.Draw(dst, image.Rect(0, tb.Dy(), bb.Dx(), tb.Dy()+bb.Dy()), bottom, bb.Min, draw.Src)
	return dst
}
