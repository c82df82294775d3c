// Package config loads service configuration from an optional yaml file and
// the environment.
package config

import (
	"fmt"
	"image/png"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, the HTTP server, the keying
// pipeline, request defaults and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// MaxUploadBytes caps the size of a multipart upload
		MaxUploadBytes int64 `env:"HTTP_MAX_UPLOAD_BYTES" env-default:"33554432" yaml:"maxUploadBytes"`
	} `yaml:"http"`

	// Pipeline contains limits applied to every keying run
	Pipeline struct {
		// MaxPixels bounds width*height of an accepted image; 0 disables the limit
		MaxPixels int `env:"PIPELINE_MAX_PIXELS" env-default:"50000000" yaml:"maxPixels"`
		// PNGCompression is one of default, none, speed or best
		PNGCompression string `env:"PIPELINE_PNG_COMPRESSION" env-default:"default" yaml:"pngCompression"`
	} `yaml:"pipeline"`

	// Defaults are the keying parameters used when a request omits them
	Defaults struct {
		KeyColor      string  `env:"DEFAULT_KEY_COLOR" env-default:"#00FF00" yaml:"keyColor"`
		Tolerance     float64 `env:"DEFAULT_TOLERANCE" env-default:"30" yaml:"tolerance"`
		ChokePixels   int     `env:"DEFAULT_CHOKE_PIXELS" env-default:"0" yaml:"chokePixels"`
		FeatherPixels int     `env:"DEFAULT_FEATHER_PIXELS" env-default:"0" yaml:"featherPixels"`
	} `yaml:"defaults"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
// An empty path reads the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	var err error
	if configPath == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if _, err := cfg.PNGCompressionLevel(); err != nil {
		return nil, err
	}
	if cfg.Pipeline.MaxPixels < 0 {
		return nil, fmt.Errorf("pipeline max pixels must be >= 0, got %d", cfg.Pipeline.MaxPixels)
	}

	return &cfg, nil
}

// PNGCompressionLevel maps Pipeline.PNGCompression to a png.CompressionLevel.
func (c *Config) PNGCompressionLevel() (png.CompressionLevel, error) {
	switch c.Pipeline.PNGCompression {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	default:
		return 0, fmt.Errorf("unknown png compression %q", c.Pipeline.PNGCompression)
	}
}
