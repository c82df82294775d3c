package main

import (
	"bytes"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/chroma-alpha/internal/logger"
	"github.com/ironsheep/chroma-alpha/internal/metrics"
)

// stdio is the path value that selects stdin or stdout.
const stdio = "-"

type processFlags struct {
	input       string
	output      string
	color       string
	tolerance   float64
	choke       int
	feather     int
	metricsFile string
}

func processCommand(a *app) *cobra.Command {
	var f processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Keys a single image file and writes an RGBA PNG",
		Example: "  chroma-alpha process -i subject.jpg -o subject.png\n" +
			"  chroma-alpha process -i - -o - --color '#0000FF' --choke 1 --feather 2 < in.png > out.png",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pipeline, err := newPipeline(a.cfg)
			if err != nil {
				return err
			}

			opts := defaultOptions(a.cfg)
			flags := cmd.Flags()
			if flags.Changed("color") {
				opts.KeyColor = f.color
			}
			if flags.Changed("tolerance") {
				opts.Tolerance = f.tolerance
			}
			if flags.Changed("choke") {
				opts.ChokePixels = f.choke
			}
			if flags.Changed("feather") {
				opts.FeatherPixels = f.feather
			}

			data, err := readInput(cmd, f.input)
			if err != nil {
				return err
			}

			start := time.Now()
			out, err := pipeline.Process(ctx, data, opts)
			elapsed := time.Since(start)

			if f.metricsFile != "" {
				if werr := writeMetrics(f.metricsFile, err, elapsed, out); werr != nil {
					logger.Warn(ctx, "could not write metrics file", zap.Error(werr))
				}
			}
			if err != nil {
				logger.Warn(ctx, "could not process image",
					zap.String("input", f.input),
					zap.String("outcome", metrics.Outcome(err)),
					zap.Error(err),
				)
				return err
			}

			if err := writeOutput(cmd, f.output, out); err != nil {
				return err
			}
			logger.Info(ctx, "image keyed",
				zap.String("input", f.input),
				zap.String("output", f.output),
				zap.Int("bytes", len(out)),
				zap.Duration("elapsed", elapsed),
			)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "Input image path, or - for stdin")
	fl.StringVarP(&f.output, "output", "o", "", "Output PNG path, or - for stdout")
	fl.StringVar(&f.color, "color", "", "Key color as #RRGGBB (default from configuration)")
	fl.Float64Var(&f.tolerance, "tolerance", 0, "Euclidean RGB distance keyed out (default from configuration)")
	fl.IntVar(&f.choke, "choke", 0, "Pixels to shrink the opaque region by")
	fl.IntVar(&f.feather, "feather", 0, "Gaussian feather radius in pixels")
	fl.StringVar(&f.metricsFile, "metrics-file", "",
		"Write Prometheus metrics for this run to a textfile-collector file")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "could not read stdin")
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read input")
	}
	return data, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == stdio {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return errors.Wrap(err, "could not write stdout")
		}
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "could not write output")
	}
	return nil
}

// writeMetrics records one run in a fresh registry and writes it in the text
// exposition format.
func writeMetrics(path string, err error, elapsed time.Duration, out []byte) error {
	reg := prometheus.NewRegistry()
	m, merr := metrics.New(reg)
	if merr != nil {
		return merr
	}

	pixels := 0
	if err == nil {
		if cfg, cerr := png.DecodeConfig(bytes.NewReader(out)); cerr == nil {
			pixels = cfg.Width * cfg.Height
		}
	}
	m.Observe(metrics.SurfaceCLI, err, elapsed, pixels)

	return prometheus.WriteToTextfile(path, reg)
}
