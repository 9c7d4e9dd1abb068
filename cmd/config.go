package cmd

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/rm-hull/strip-slicer/internal/config"
	"github.com/rm-hull/strip-slicer/internal/errors"
)

// InitConfig writes cfg to path as YAML, refusing to replace an existing file unless force is set.
func InitConfig(logger *log.Logger, cfg *config.Config, path string, force bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrCodeInvalidInput, "config file already exists, use --force to overwrite").WithPath(path)
	}

	if err := config.SaveConfig(cfg, path); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "failed to write config").WithPath(path)
	}
	logger.Info("Wrote config", "file", path)
	return nil
}
