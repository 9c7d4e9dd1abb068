package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/rm-hull/strip-slicer/internal"
	"github.com/rm-hull/strip-slicer/internal/config"
	"github.com/rm-hull/strip-slicer/internal/errors"
)

type SliceOptions struct {
	InputDir  string
	OutputDir string
	ListFile  string
}

// Slice runs one slicing job and prints the generated files to out.
// A list file, when given, takes precedence over scanning the input directory.
func Slice(ctx context.Context, logger *log.Logger, cfg *config.Config, opts SliceOptions, out io.Writer) ([]string, error) {
	if opts.OutputDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "an output directory is required")
	}
	if opts.InputDir == "" && opts.ListFile == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "either an input directory or a list file is required")
	}

	proc, err := internal.NewProcessor(cfg, logger)
	if err != nil {
		return nil, err
	}

	var images []string
	if opts.ListFile != "" {
		images, err = internal.ReadImageList(opts.ListFile)
	} else {
		images, err = internal.ListImages(opts.InputDir, proc.Extensions())
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Found images", "count", len(images), "sequence", cfg.Processing.Sequence)

	var files []string
	if cfg.Processing.Sequence {
		files, err = proc.ProcessSequenceList(ctx, images, opts.OutputDir, cfg.Processing.StartPostfix)
	} else {
		files, err = proc.ProcessImageList(ctx, images, opts.OutputDir, cfg.Processing.StartPostfix)
	}
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Processing complete. Generated %d files:\n", len(files))
	for _, f := range files {
		fmt.Fprintf(out, "  - %s\n", f)
	}
	return files, nil
}
