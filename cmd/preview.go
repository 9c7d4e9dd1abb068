package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/rm-hull/strip-slicer/internal"
	"github.com/rm-hull/strip-slicer/internal/preview"
)

// Preview writes an animated PNG of the tiles found in tilesDir, in name order.
func Preview(logger *log.Logger, tilesDir, output string, frameDelay float64, extensions []string) error {
	files, err := internal.ListImages(tilesDir, extensions)
	if err != nil {
		return err
	}
	logger.Debug("Animating tiles", "count", len(files), "delay", frameDelay)

	apngBytes, err := preview.Animate(files, frameDelay)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, apngBytes, 0644); err != nil {
		return fmt.Errorf("failed to write preview %s: %w", output, err)
	}
	logger.Info("Wrote preview", "file", output, "frames", len(files))
	return nil
}
