// Package cli wires the converter, cleaner and watcher into cobra commands.
//
// Progress reports go to the command's stdout; diagnostics go to stderr
// through a tint logger built here and passed down to the components.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"assetpipe/src/cleaner"
	"assetpipe/src/config"
	"assetpipe/src/converter"
	"assetpipe/src/logging"
	"assetpipe/src/watcher"
)

// DefaultConfigFile is looked up in the base directory when --config is not given
const DefaultConfigFile = "assetpipe.yaml"

type options struct {
	baseDir    string
	configPath string
	logLevel   string
	watch      bool
}

func (o *options) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.baseDir, "base", "", "project base directory (default: current directory)")
	cmd.Flags().StringVar(&o.configPath, "config", "", "config file (default: <base>/"+DefaultConfigFile+" if present)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "diagnostic log level: debug, info, warn, error")
}

// load resolves the configuration and builds the diagnostic logger
func (o *options) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	base := o.baseDir
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return nil, nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
	}

	configPath := o.configPath
	if configPath == "" {
		configPath = filepath.Join(base, DefaultConfigFile)
	}

	cfg, err := config.Load(configPath, base)
	if err != nil {
		return nil, nil, err
	}
	if o.baseDir != "" {
		cfg.BaseDir = o.baseDir
	}

	logger.Debug("configuration loaded",
		"base", cfg.BaseDir,
		"image_root", cfg.ImageRoot(),
		"asset_root", cfg.AssetRoot())
	return cfg, logger, nil
}

// NewRootCommand returns the assetpipe command with all subcommands
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "assetpipe",
		Short:        "Android asset maintenance: PNG → WebP conversion and cleanup",
		SilenceUsage: true,
	}

	convertCmd := NewConvertCommand()
	convertCmd.Use = "convert"

	cleanCmd := NewCleanCommand()
	cleanCmd.Use = "clean"

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(convertCmd, cleanCmd, NewWatchCommand(), versionCmd)
	return rootCmd
}

// NewConvertCommand converts PNG files to WebP and rewrites references
func NewConvertCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "convert-png-to-webp",
		Short:        "Convert PNG images to WebP and update references",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			conv := converter.New(cfg, logger, cmd.OutOrStdout())
			if _, err := conv.Run(); err != nil {
				return err
			}

			if !opts.watch {
				return nil
			}
			return watch(cmd.Context(), cfg, conv, logger)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "keep running and convert new PNG files as they appear")
	return cmd
}

// NewCleanCommand deletes PNG files that have a WebP counterpart
func NewCleanCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "delete-png-files",
		Short:        "Delete PNG originals that already have a WebP counterpart",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			if _, err := cleaner.New(cfg, logger, cmd.OutOrStdout()).Run(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n🎉 Done!\n")
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

// NewWatchCommand runs a conversion and then keeps watching the image root
func NewWatchCommand() *cobra.Command {
	cmd := NewConvertCommand()
	cmd.Use = "watch"
	cmd.Short = "Convert, then watch the image folder for new PNG files"
	if err := cmd.Flags().Set("watch", "true"); err != nil {
		panic(err)
	}
	return cmd
}

func watch(parent context.Context, cfg *config.Config, conv *converter.Converter, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := watcher.NewWatcher(conv, cfg.ImageRoot(), logger)
	if err != nil {
		return err
	}

	go func() {
		for event := range w.Events() {
			logger.Info("📄 file processed", "type", event.Type, "path", event.FilePath)
		}
	}()

	logger.Info("watching for new PNG files, press Ctrl+C to stop", "root", cfg.ImageRoot())
	return w.Run(ctx)
}

// Execute runs cmd and exits non-zero on start-up errors
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
