package slicer

import (
	"image"
	"image/color"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/strip-slicer/internal/errors"
)

// band returns a w×h raster whose pixels record where they came from:
// R = source, G/B = row number (low/high byte).
func band(w, h, source int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(source), uint8(y), uint8(y >> 8), 0xff})
		}
	}
	return img
}

func origin(img *image.RGBA, y int) (source, row int) {
	px := img.RGBAAt(0, y)
	return int(px.R), int(px.G) | int(px.B)<<8
}

// collect records copies of emitted tiles so views into fed rasters cannot change under the test.
type collect struct {
	tiles []Tile
}

func (c *collect) emit(t Tile) error {
	cp := image.NewRGBA(image.Rect(0, 0, t.Image.Bounds().Dx(), t.Height()))
	for y := 0; y < t.Height(); y++ {
		for x := 0; x < cp.Bounds().Dx(); x++ {
			cp.SetRGBA(x, y, t.Image.RGBAAt(x, y))
		}
	}
	t.Image = cp
	c.tiles = append(c.tiles, t)
	return nil
}

func (c *collect) heights() []int {
	var hs []int
	for _, t := range c.tiles {
		hs = append(hs, t.Height())
	}
	return hs
}

func (c *collect) postfixes() []int {
	var ps []int
	for _, t := range c.tiles {
		ps = append(ps, t.Postfix)
	}
	return ps
}

func run(t *testing.T, width, height, start int, heights ...int) *collect {
	t.Helper()
	s, err := New(width, height, start)
	require.NoError(t, err)

	c := &collect{}
	for i, h := range heights {
		require.NoError(t, s.Feed(band(width, h, i), c.emit))
	}
	require.NoError(t, s.Finish(c.emit))
	assert.Equal(t, Done, s.State())
	return c
}

func TestSlicer_TwoImageSequence(t *testing.T) {
	c := run(t, 100, 50, 1, 80, 130)

	assert.Equal(t, []int{50, 50, 50, 50, 10}, c.heights())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, c.postfixes())

	seam := c.tiles[1]
	assert.True(t, seam.Straddles())
	assert.Equal(t, []Segment{{Source: 0, Y0: 50, Y1: 80}, {Source: 1, Y0: 0, Y1: 20}}, seam.Segments)
	for y := 0; y < 50; y++ {
		src, row := origin(seam.Image, y)
		if y < 30 {
			assert.Equal(t, 0, src, "row %d", y)
			assert.Equal(t, 50+y, row, "row %d", y)
		} else {
			assert.Equal(t, 1, src, "row %d", y)
			assert.Equal(t, y-30, row, "row %d", y)
		}
	}

	last := c.tiles[4]
	assert.Equal(t, []Segment{{Source: 1, Y0: 120, Y1: 130}}, last.Segments)
	src, row := origin(last.Image, 0)
	assert.Equal(t, 1, src)
	assert.Equal(t, 120, row)
}

func TestSlicer_Cases(t *testing.T) {
	tests := []struct {
		name      string
		height    int
		start     int
		inputs    []int
		heights   []int
		postfixes []int
	}{
		{"no input", 50, 1, nil, nil, nil},
		{"exact multiples never straddle", 50, 1, []int{100, 50}, []int{50, 50, 50}, []int{1, 2, 3}},
		{"single short image", 50, 7, []int{20}, []int{20}, []int{7}},
		{"small images accumulate", 50, 1, []int{10, 10, 10}, []int{30}, []int{1}},
		{"carry completed exactly", 50, 1, []int{30, 20}, []int{50}, []int{1}},
		{"image contributing no full tile", 50, 10, []int{45, 3, 60}, []int{50, 50, 8}, []int{10, 11, 12}},
		{"tile height of one", 1, 0, []int{2, 3}, []int{1, 1, 1, 1, 1}, []int{0, 1, 2, 3, 4}},
		{"zero height input ignored", 50, 1, []int{30, 0, 30}, []int{50, 10}, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := run(t, 4, tt.height, tt.start, tt.inputs...)
			assert.Equal(t, tt.heights, c.heights())
			assert.Equal(t, tt.postfixes, c.postfixes())
		})
	}
}

func TestSlicer_SmallImagesSegments(t *testing.T) {
	c := run(t, 4, 50, 1, 10, 10, 10)
	require.Len(t, c.tiles, 1)
	assert.Equal(t, []Segment{
		{Source: 0, Y0: 0, Y1: 10},
		{Source: 1, Y0: 0, Y1: 10},
		{Source: 2, Y0: 0, Y1: 10},
	}, c.tiles[0].Segments)
}

// Concatenating the tiles must reproduce the concatenated inputs row for row.
func TestSlicer_Properties(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		tileHeight := 1 + rnd.Intn(40)
		start := rnd.Intn(5)
		inputs := make([]int, rnd.Intn(6))
		var want [][2]int
		total := 0
		for n := range inputs {
			inputs[n] = rnd.Intn(90)
			total += inputs[n]
			for y := 0; y < inputs[n]; y++ {
				want = append(want, [2]int{n, y})
			}
		}

		c := run(t, 2, tileHeight, start, inputs...)

		var got [][2]int
		sum := 0
		for k, tile := range c.tiles {
			assert.Equal(t, start+k, tile.Postfix, "case %d: postfix density", i)
			if k < len(c.tiles)-1 {
				assert.Equal(t, tileHeight, tile.Height(), "case %d: full tile", i)
			} else {
				assert.True(t, tile.Height() > 0 && tile.Height() <= tileHeight, "case %d: last tile height %d", i, tile.Height())
			}
			sum += tile.Height()

			segRows := 0
			for _, seg := range tile.Segments {
				segRows += seg.Y1 - seg.Y0
			}
			assert.Equal(t, tile.Height(), segRows, "case %d: segments cover tile", i)

			for y := 0; y < tile.Height(); y++ {
				src, row := origin(tile.Image, y)
				got = append(got, [2]int{src, row})
			}
		}

		assert.Equal(t, total, sum, "case %d: row conservation", i)
		assert.Equal(t, want, got, "case %d: row order", i)
		if total == 0 {
			assert.Empty(t, c.tiles)
		}
	}
}

func TestSlicer_Seam(t *testing.T) {
	const tileHeight = 50
	for _, h1 := range []int{1, 49, 50, 51, 99, 100, 130} {
		c := run(t, 3, tileHeight, 1, h1, 200)
		k := (h1 + tileHeight - 1) / tileHeight
		rem := h1 % tileHeight

		if rem == 0 {
			for _, tile := range c.tiles {
				assert.False(t, tile.Straddles(), "h1=%d", h1)
			}
			continue
		}

		seam := c.tiles[k-1]
		assert.Equal(t, k, seam.Postfix)
		assert.Equal(t, []Segment{
			{Source: 0, Y0: h1 - rem, Y1: h1},
			{Source: 1, Y0: 0, Y1: tileHeight - rem},
		}, seam.Segments, "h1=%d", h1)
	}
}

func TestSlicer_CarryIsPrivateCopy(t *testing.T) {
	s, err := New(2, 10, 1)
	require.NoError(t, err)

	c := &collect{}
	first := band(2, 15, 0)
	require.NoError(t, s.Feed(first, c.emit))
	assert.Equal(t, HasCarry, s.State())
	assert.Equal(t, 5, s.CarryHeight())

	for i := range first.Pix {
		first.Pix[i] = 0xff
	}

	require.NoError(t, s.Finish(c.emit))
	require.Len(t, c.tiles, 2)
	src, row := origin(c.tiles[1].Image, 0)
	assert.Equal(t, 0, src)
	assert.Equal(t, 10, row)
}

func TestSlicer_States(t *testing.T) {
	s, err := New(2, 10, 1)
	require.NoError(t, err)
	c := &collect{}

	assert.Equal(t, Idle, s.State())
	require.NoError(t, s.Feed(band(2, 6, 0), c.emit))
	assert.Equal(t, HasCarry, s.State())
	require.NoError(t, s.Feed(band(2, 4, 1), c.emit))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, s.CarryHeight())
	assert.Equal(t, 2, s.Postfix())
	require.NoError(t, s.Finish(c.emit))
	assert.Equal(t, Done, s.State())
	assert.Len(t, c.tiles, 1)

	assert.ErrorIs(t, s.Feed(band(2, 4, 2), c.emit), ErrFinished)
	assert.ErrorIs(t, s.Finish(c.emit), ErrFinished)
	assert.Equal(t, "has-carry", HasCarry.String())
}

func TestSlicer_Errors(t *testing.T) {
	t.Run("invalid tile size", func(t *testing.T) {
		_, err := New(0, 10, 1)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidDimension))
		_, err = New(10, -1, 1)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidDimension))
	})

	t.Run("width mismatch", func(t *testing.T) {
		s, err := New(4, 10, 1)
		require.NoError(t, err)
		err = s.Feed(band(5, 10, 0), func(Tile) error { return nil })
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidDimension))
	})

	t.Run("emit failure ends the run", func(t *testing.T) {
		s, err := New(2, 10, 1)
		require.NoError(t, err)

		calls := 0
		err = s.Feed(band(2, 35, 0), func(Tile) error {
			calls++
			if calls == 2 {
				return io.ErrShortWrite
			}
			return nil
		})
		assert.ErrorIs(t, err, io.ErrShortWrite)
		assert.Equal(t, 2, calls)
		assert.Equal(t, Done, s.State())
		assert.ErrorIs(t, s.Finish(func(Tile) error { return nil }), ErrFinished)
	})
}

func TestSplit(t *testing.T) {
	t.Run("per image example", func(t *testing.T) {
		a, err := Split(band(100, 80, 0), 50, 1)
		require.NoError(t, err)
		b, err := Split(band(100, 130, 1), 50, 1+len(a))
		require.NoError(t, err)

		var heights, postfixes []int
		for _, tile := range append(a, b...) {
			heights = append(heights, tile.Height())
			postfixes = append(postfixes, tile.Postfix)
			assert.False(t, tile.Straddles())
		}
		assert.Equal(t, []int{50, 30, 50, 50, 30}, heights)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, postfixes)

		src, row := origin(b[2].Image, 0)
		assert.Equal(t, 1, src)
		assert.Equal(t, 100, row)
		assert.Equal(t, []Segment{{Source: 0, Y0: 100, Y1: 130}}, b[2].Segments)
	})

	t.Run("exact fit", func(t *testing.T) {
		tiles, err := Split(band(3, 100, 0), 50, 1)
		require.NoError(t, err)
		assert.Len(t, tiles, 2)
	})

	t.Run("shorter than a tile", func(t *testing.T) {
		tiles, err := Split(band(3, 7, 0), 50, 4)
		require.NoError(t, err)
		require.Len(t, tiles, 1)
		assert.Equal(t, 7, tiles[0].Height())
		assert.Equal(t, 4, tiles[0].Postfix)
	})

	t.Run("invalid height", func(t *testing.T) {
		_, err := Split(band(3, 7, 0), 0, 1)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidDimension))
	})
}
