package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/earthboundkid/versioninfo/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rm-hull/strip-slicer/cmd"
	"github.com/rm-hull/strip-slicer/internal/config"
)

func main() {
	var verbose bool
	var configPath string

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
	})

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	rootCmd := &cobra.Command{
		Use:          "strip-slicer",
		Long:         `Resize images to a fixed width and cut them into bounded-height tiles for long-strip readers`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	var opts cmd.SliceOptions
	var width, height, start int
	var sequence bool
	var format, filter string

	sliceCmd := &cobra.Command{
		Use:   "slice --output <dir> (--input <dir> | --list-file <file>)",
		Short: "Resize and slice images into tiles",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags := c.Flags()
			if flags.Changed("width") {
				cfg.Output.Width = width
			}
			if flags.Changed("height") {
				cfg.Output.Height = height
			}
			if flags.Changed("format") {
				cfg.Output.Format = format
			}
			if flags.Changed("filter") {
				cfg.Processing.Filter = filter
			}
			if flags.Changed("sequence") {
				cfg.Processing.Sequence = sequence
			}
			if flags.Changed("start") {
				cfg.Processing.StartPostfix = start
			}
			_, err = cmd.Slice(c.Context(), logger, cfg, opts, c.OutOrStdout())
			return err
		},
	}
	sliceCmd.Flags().StringVarP(&opts.InputDir, "input", "i", "", "Directory of source images")
	sliceCmd.Flags().StringVarP(&opts.OutputDir, "output", "o", "", "Directory to write tiles to")
	sliceCmd.Flags().StringVarP(&opts.ListFile, "list-file", "l", "", "File listing image paths, one per line")
	sliceCmd.Flags().IntVarP(&width, "width", "w", 800, "Output tile width")
	sliceCmd.Flags().IntVarP(&height, "height", "H", 1280, "Maximum output tile height")
	sliceCmd.Flags().BoolVarP(&sequence, "sequence", "s", false, "Slice across image boundaries")
	sliceCmd.Flags().IntVar(&start, "start", 1, "Number given to the first tile")
	sliceCmd.Flags().StringVar(&format, "format", "png", "Tile format: png, jpg or bmp")
	sliceCmd.Flags().StringVar(&filter, "filter", "lanczos", "Resampling filter")

	var previewInput, previewOutput string
	var delay float64
	previewCmd := &cobra.Command{
		Use:   "preview --input <tiles dir> [--output <file>] [--delay <secs>]",
		Short: "Build an animated PNG flip-book from generated tiles",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Preview(logger, previewInput, previewOutput, delay, []string{".png", ".jpg", ".jpeg", ".bmp"})
		},
	}
	previewCmd.Flags().StringVarP(&previewInput, "input", "i", "", "Directory of tiles")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "preview.png", "Animated PNG to write")
	previewCmd.Flags().Float64Var(&delay, "delay", 1.0, "Seconds each frame is shown")
	_ = previewCmd.MarkFlagRequired("input")

	var rootPath string
	var port int
	var debug bool
	apiServerCmd := &cobra.Command{
		Use:   "api-server [--root <path>] [--port <port>] [--debug]",
		Short: "Start HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return cmd.ApiServer(logger, cfg, rootPath, port, debug)
		},
	}
	apiServerCmd.Flags().StringVar(&rootPath, "root", "./data/jobs", "Path to root folder")
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	var force bool
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the YAML config file",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the effective configuration (defaults, --config file and environment) as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := "strip-slicer.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			return cmd.InitConfig(logger, cfg, path, force)
		},
	}
	configInitCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(c *cobra.Command, _ []string) {
			fmt.Fprintln(c.OutOrStdout(), versioninfo.Short())
		},
	}

	rootCmd.AddCommand(sliceCmd, previewCmd, apiServerCmd, configCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
