package stage

import (
	"strings"

	"github.com/anthonynsimon/bild/transform"

	"github.com/rm-hull/strip-slicer/internal/errors"
)

var filters = map[string]transform.ResampleFilter{
	"lanczos":    transform.Lanczos,
	"catmullrom": transform.CatmullRom,
	"mitchell":   transform.MitchellNetravali,
	"gaussian":   transform.Gaussian,
	"linear":     transform.Linear,
	"box":        transform.Box,
	"nearest":    transform.NearestNeighbor,
}

// ParseFilter looks up a resampling filter by name. The empty name selects Lanczos.
func ParseFilter(name string) (transform.ResampleFilter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return transform.Lanczos, nil
	}
	f, ok := filters[name]
	if !ok {
		return transform.ResampleFilter{}, errors.New(errors.ErrCodeInvalidInput, "unknown resampling filter %q", name)
	}
	return f, nil
}
