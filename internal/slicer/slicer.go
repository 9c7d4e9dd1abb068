// Package slicer cuts normalized rasters into fixed-height tiles.
//
// A Slicer treats every raster it is fed as the next stretch of one long
// virtual image and emits tiles of exactly the configured height as soon as
// enough rows exist, carrying any shorter remainder over to the next raster.
// Only the remainder is ever copied, so a run holds at most one source raster
// and one carry raster at a time regardless of how many images it covers.
//
//	s, _ := slicer.New(800, 1280, 1)
//	for _, img := range normalized {
//	    if err := s.Feed(img, write); err != nil {
//	        return err
//	    }
//	}
//	return s.Finish(write)
//
// Split is the per-image counterpart: it cuts one raster on its own with no
// carry between images.
package slicer

import (
	"fmt"
	"image"

	"github.com/rm-hull/strip-slicer/internal/errors"
	"github.com/rm-hull/strip-slicer/internal/raster"
)

// State is the phase of a slicing run.
type State int

const (
	// Idle means no rows are buffered.
	Idle State = iota
	// HasCarry means fewer than a tile's worth of rows are buffered.
	HasCarry
	// Draining means full tiles are being cut from the current raster.
	Draining
	// Done means the run has finished and accepts no further input.
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case HasCarry:
		return "has-carry"
	case Draining:
		return "draining"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrFinished is returned by Feed and Finish once the run is over.
var ErrFinished = errors.New(errors.ErrCodeInvalidInput, "slicer run already finished")

// Segment names the rows [Y0, Y1) of the Source-th raster (counting from zero).
type Segment struct {
	Source int
	Y0, Y1 int
}

// Tile is one output raster. Segments lists, top to bottom, where its rows came from.
type Tile struct {
	Image    *image.RGBA
	Postfix  int
	Segments []Segment
}

func (t Tile) Height() int {
	return t.Image.Bounds().Dy()
}

// Straddles reports whether the tile spans a seam between two sources.
func (t Tile) Straddles() bool {
	return len(t.Segments) > 1
}

// EmitFunc receives tiles in order. Tile images may share memory with the
// raster passed to Feed, so they must not be modified.
type EmitFunc func(Tile) error

// Slicer holds the state of one sequence run. It is not safe for concurrent use.
type Slicer struct {
	width     int
	height    int
	postfix   int
	state     State
	carry     *image.RGBA
	carrySegs []Segment
	sources   int
}

// New starts a run producing width×height tiles numbered from startPostfix.
func New(width, height, startPostfix int) (*Slicer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidDimension, "tile size must be positive, got %dx%d", width, height)
	}
	return &Slicer{
		width:   width,
		height:  height,
		postfix: startPostfix,
		state:   Idle,
	}, nil
}

func (s *Slicer) State() State {
	return s.state
}

// Postfix is the number the next emitted tile will carry.
func (s *Slicer) Postfix() int {
	return s.postfix
}

// CarryHeight is the number of buffered rows, always less than the tile height.
func (s *Slicer) CarryHeight() int {
	if s.carry == nil {
		return 0
	}
	return s.carry.Bounds().Dy()
}

// Feed appends cur to the virtual image and emits every tile that can now be completed.
// cur must be exactly as wide as the tiles. An error from emit ends the run.
func (s *Slicer) Feed(cur *image.RGBA, emit EmitFunc) error {
	if s.state == Done {
		return ErrFinished
	}

	b := cur.Bounds()
	if b.Dx() != s.width {
		return errors.New(errors.ErrCodeInvalidDimension, "raster width %d does not match tile width %d", b.Dx(), s.width)
	}

	src := s.sources
	s.sources++

	rows := b.Dy()
	if rows == 0 {
		return nil
	}
	buf := raster.Rows(cur, 0, rows)
	offset := 0

	if s.state == HasCarry {
		take := min(s.height-s.carry.Bounds().Dy(), rows)
		combined := raster.Stack(s.carry, raster.Rows(buf, 0, take))
		segs := append(s.carrySegs, Segment{Source: src, Y0: 0, Y1: take})
		offset = take

		if combined.Bounds().Dy() < s.height {
			s.carry, s.carrySegs = combined, segs
			return nil
		}

		s.carry, s.carrySegs = nil, nil
		if err := s.emit(combined, segs, emit); err != nil {
			return err
		}
	}

	s.state = Draining
	for rows-offset >= s.height {
		tile := raster.Rows(buf, offset, offset+s.height)
		if err := s.emit(tile, []Segment{{Source: src, Y0: offset, Y1: offset + s.height}}, emit); err != nil {
			return err
		}
		offset += s.height
	}

	if offset < rows {
		s.carry = raster.Clone(raster.Rows(buf, offset, rows))
		s.carrySegs = []Segment{{Source: src, Y0: offset, Y1: rows}}
		s.state = HasCarry
	} else {
		s.state = Idle
	}
	return nil
}

// Finish emits any carried rows as a final, shorter tile and ends the run.
func (s *Slicer) Finish(emit EmitFunc) error {
	if s.state == Done {
		return ErrFinished
	}

	carry, segs := s.carry, s.carrySegs
	s.carry, s.carrySegs = nil, nil
	if carry != nil {
		if err := s.emit(carry, segs, emit); err != nil {
			return err
		}
	}
	s.state = Done
	return nil
}

func (s *Slicer) emit(img *image.RGBA, segs []Segment, emit EmitFunc) error {
	tile := Tile{
		Image:    img,
		Postfix:  s.postfix,
		Segments: segs,
	}
	s.postfix++
	if err := emit(tile); err != nil {
		s.state = Done
		return err
	}
	return nil
}

// Split cuts img into ceil(h/height) tiles top to bottom, numbered from startPostfix.
// The last tile may be shorter. Tile images are views into img.
func Split(img *image.RGBA, height, startPostfix int) ([]Tile, error) {
	if height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidDimension, "tile height must be positive, got %d", height)
	}

	h := img.Bounds().Dy()
	n := (h + height - 1) / height
	tiles := make([]Tile, 0, n)
	for i := 0; i < n; i++ {
		y0 := i * height
		y1 := min(y0+height, h)
		tiles = append(tiles, Tile{
			Image:    raster.Rows(img, y0, y1),
			Postfix:  startPostfix + i,
			Segments: []Segment{{Source: 0, Y0: y0, Y1: y1}},
		})
	}
	return tiles, nil
}
