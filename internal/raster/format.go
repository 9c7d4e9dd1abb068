package raster

import (
	"strings"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/rm-hull/strip-slicer/internal/errors"
)

// Format is an output encoding for tiles.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpg"
	BMP  Format = "bmp"
)

// ParseFormat accepts a format name or file extension, with or without the leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unsupported output format %q", s)
}

// Ext is the file extension written for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Encoder returns the bild encoder for the format. quality only applies to JPEG.
func (f Format) Encoder(quality int) imgio.Encoder {
	switch f {
	case JPEG:
		return imgio.JPEGEncoder(quality)
	case BMP:
		return imgio.BMPEncoder()
	default:
		return imgio.PNGEncoder()
	}
}
