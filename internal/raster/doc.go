// Package raster holds the in-memory image type shared by the normalizer and
// the slicer, plus the row-level helpers used to cut and join tiles.
//
// Normalized rasters are *image.RGBA values whose alpha bytes are all 0xff.
// Row views returned by Rows share pixel memory with their parent; Clone and
// Stack always allocate.
package raster
