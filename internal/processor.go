package internal

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/charmbracelet/log"

	"github.com/rm-hull/strip-slicer/internal/config"
	"github.com/rm-hull/strip-slicer/internal/errors"
	"github.com/rm-hull/strip-slicer/internal/raster"
	"github.com/rm-hull/strip-slicer/internal/raster/stage"
	"github.com/rm-hull/strip-slicer/internal/slicer"
)

// Processor turns image files into tiles on disk. A Processor holds no
// per-run state, so one value can serve any number of runs, concurrent
// ones included, provided they write to different directories.
type Processor struct {
	width      int
	height     int
	format     raster.Format
	encoder    imgio.Encoder
	filter     transform.ResampleFilter
	extensions []string
	logger     *log.Logger
}

func NewProcessor(cfg *config.Config, logger *log.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := raster.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	filter, err := stage.ParseFilter(cfg.Processing.Filter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Processor{
		width:      cfg.Output.Width,
		height:     cfg.Output.Height,
		format:     format,
		encoder:    format.Encoder(cfg.Output.JPEGQuality),
		filter:     filter,
		extensions: cfg.Processing.Extensions,
		logger:     logger,
	}, nil
}

// ProcessImage resizes a single image and cuts it into tiles named
// {basename}_{postfix:03d}.{ext}. It returns the files written and the next postfix to use.
func (p *Processor) ProcessImage(ctx context.Context, imagePath, outputDir string, startPostfix int) ([]string, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, startPostfix, err
	}
	if err := ensureDir(outputDir); err != nil {
		return nil, startPostfix, err
	}

	img, err := p.load(imagePath)
	if err != nil {
		return nil, startPostfix, err
	}

	tiles, err := slicer.Split(img, p.height, startPostfix)
	if err != nil {
		return nil, startPostfix, err
	}

	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	files := make([]string, 0, len(tiles))
	for _, tile := range tiles {
		name := fmt.Sprintf("%s_%03d.%s", base, tile.Postfix, p.format.Ext())
		path, err := p.writeTile(outputDir, name, tile)
		if err != nil {
			return nil, startPostfix, err
		}
		files = append(files, path)
	}
	return files, startPostfix + len(files), nil
}

// ProcessImageList runs ProcessImage over every path, numbering tiles continuously across images.
func (p *Processor) ProcessImageList(ctx context.Context, imageList []string, outputDir string, startPostfix int) ([]string, error) {
	started := time.Now()
	all := make([]string, 0, len(imageList))
	postfix := startPostfix
	for _, imagePath := range imageList {
		files, next, err := p.ProcessImage(ctx, imagePath, outputDir, postfix)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
		postfix = next
	}
	p.logger.Info("Sliced images", "mode", "per-image", "images", len(imageList), "tiles", len(all), "elapsed", time.Since(started).Round(time.Millisecond))
	return all, nil
}

// ProcessSequenceList treats the images as one tall strip and cuts it into seq_{postfix:03d}.{ext}
// tiles that may straddle two images. Images are loaded one at a time; files written before
// a failure are left in place.
func (p *Processor) ProcessSequenceList(ctx context.Context, imageList []string, outputDir string, startPostfix int) ([]string, error) {
	started := time.Now()
	if err := ensureDir(outputDir); err != nil {
		return nil, err
	}

	s, err := slicer.New(p.width, p.height, startPostfix)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0)
	emit := func(tile slicer.Tile) error {
		name := fmt.Sprintf("seq_%03d.%s", tile.Postfix, p.format.Ext())
		path, err := p.writeTile(outputDir, name, tile)
		if err != nil {
			return err
		}
		if tile.Straddles() {
			p.logger.Debug("Tile spans a seam", "file", path, "sources", sourceNames(tile, imageList))
		}
		files = append(files, path)
		return nil
	}

	for _, imagePath := range imageList {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := p.load(imagePath)
		if err != nil {
			return nil, err
		}
		if err := s.Feed(img, emit); err != nil {
			return nil, err
		}
	}
	if err := s.Finish(emit); err != nil {
		return nil, err
	}

	p.logger.Info("Sliced images", "mode", "sequence", "images", len(imageList), "tiles", len(files), "elapsed", time.Since(started).Round(time.Millisecond))
	return files, nil
}

// ProcessDirectory slices every image found in inputDir, per image, in name order.
func (p *Processor) ProcessDirectory(ctx context.Context, inputDir, outputDir string) ([]string, error) {
	images, err := ListImages(inputDir, p.extensions)
	if err != nil {
		return nil, err
	}
	return p.ProcessImageList(ctx, images, outputDir, 1)
}

// Extensions lists the input file extensions this processor picks up from directories.
func (p *Processor) Extensions() []string {
	return p.extensions
}

func (p *Processor) load(imagePath string) (*image.RGBA, error) {
	p.logger.Debug("Loading image", "path", imagePath)
	r, err := raster.Open(imagePath)
	if err != nil {
		return nil, err
	}

	img, err := stage.Normalize(r, p.width, p.filter)
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, errors.AttachPath(err, imagePath)
		}
		return nil, fmt.Errorf("failed to normalize %s: %w", imagePath, err)
	}
	return img, nil
}

// writeTile encodes into a temporary file and renames it over the destination,
// so a tile file is either complete or absent.
func (p *Processor) writeTile(outputDir, name string, tile slicer.Tile) (string, error) {
	filename := filepath.Join(outputDir, name)

	tmpFile, err := os.CreateTemp(outputDir, "tile-*.tmp")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "failed to create temporary file").WithPath(filename)
	}
	cleanupTemp := true
	defer func() {
		_ = tmpFile.Close()
		if cleanupTemp {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	if err := p.encoder(tmpFile, tile.Image); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "failed to encode tile").WithPath(filename)
	}

	if err := tmpFile.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "failed to close temporary file before rename").WithPath(filename)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "failed to rename temporary file").WithPath(filename)
	}

	cleanupTemp = false
	p.logger.Debug("Wrote tile", "file", filename, "postfix", tile.Postfix, "height", tile.Height())
	return filename, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "failed to create output directory").WithPath(dir)
	}
	return nil
}

func sourceNames(tile slicer.Tile, imageList []string) []string {
	names := make([]string, 0, len(tile.Segments))
	for _, seg := range tile.Segments {
		names = append(names, fmt.Sprintf("%s[%d:%d]", filepath.Base(imageList[seg.Source]), seg.Y0, seg.Y1))
	}
	return names
}
