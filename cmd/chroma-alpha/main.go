// Package main provides the CLI entrypoint for chroma-alpha.
// It wires subcommands (serve, mcp, process, version), loads configuration, and initializes logging.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/config"
	"github.com/ironsheep/chroma-alpha/internal/imaging"
	"github.com/ironsheep/chroma-alpha/internal/logger"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	configPath string
	cfg        *config.Config
}

// newPipeline creates the keying pipeline configured by cfg.
func newPipeline(cfg *config.Config) (*imaging.Pipeline, error) {
	level, err := cfg.PNGCompressionLevel()
	if err != nil {
		return nil, err
	}
	return imaging.NewPipeline(imaging.PipelineOptions{
		MaxPixels:   cfg.Pipeline.MaxPixels,
		Compression: level,
	}), nil
}

// defaultOptions returns the keying parameters used when a request omits them.
func defaultOptions(cfg *config.Config) imaging.Options {
	return imaging.Options{
		KeyColor:      cfg.Defaults.KeyColor,
		Tolerance:     cfg.Defaults.Tolerance,
		ChokePixels:   cfg.Defaults.ChokePixels,
		FeatherPixels: cfg.Defaults.FeatherPixels,
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "chroma-alpha",
		Short:         "Chroma key removal: turn a solid-color backdrop into alpha",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.Setup(cfg.Environment)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"Config file path (yaml); without it only the environment is read")

	rootCmd.AddCommand(
		serveCommand(a),
		mcpCommand(a),
		processCommand(a),
		versionCommand(),
	)

	return rootCmd
}

// main builds the root Cobra command and executes the CLI.
func main() {
	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			logger.Sync()

			panic(p)
		}
	}()

	err := newRootCommand().Execute()
	logger.Sync()
	if err != nil {
		// the logger may not be set up when configuration fails to load
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1) //nolint: gocritic
	}
}
