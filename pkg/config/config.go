// Package config holds the driver and server settings, backed by viper.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/gilchrisn/satgirg-clustering/pkg/experiment"
)

// EnvPrefix prefixes environment overrides, e.g. SATGIRG_GENERATOR_N.
const EnvPrefix = "SATGIRG"

// Config manages experiment configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Generator parameters
	v.SetDefault("generator.n", 1000)
	v.SetDefault("generator.m", 4000)
	v.SetDefault("generator.k", 3)
	v.SetDefault("generator.ple", 2.5)
	v.SetDefault("generator.plot", 2)

	// Sweep parameters
	v.SetDefault("sweep.dimensions", []int{1, 2, 3, 4, 5})
	v.SetDefault("sweep.temperatures", []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0})
	v.SetDefault("sweep.reps", 100)
	v.SetDefault("sweep.seed", 0)

	// Performance parameters
	v.SetDefault("performance.threads", 1)

	// Logging parameters
	v.SetDefault("logging.level", "info")

	// Server parameters
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_concurrent_runs", 2)
	v.SetDefault("server.max_stored_runs", 1000)
	v.SetDefault("server.max_nodes", 10_000_000)

	v.SetDefault("output.summary", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Viper exposes the underlying instance so command flags can be bound to it.
func (c *Config) Viper() *viper.Viper { return c.v }

// Getters for generator parameters
func (c *Config) N() int { return c.v.GetInt("generator.n") }
func (c *Config) M() int { return c.v.GetInt("generator.m") }
func (c *Config) K() int { return c.v.GetInt("generator.k") }
func (c *Config) PLE() float64 { return c.v.GetFloat64("generator.ple") }
func (c *Config) Plot() int { return c.v.GetInt("generator.plot") }
func (c *Config) Reps() int { return c.v.GetInt("sweep.reps") }
func (c *Config) Seed() int64 { return c.v.GetInt64("sweep.seed") }
func (c *Config) Threads() int { return c.v.GetInt("performance.threads") }
func (c *Config) LogLevel() string { return c.v.GetString("logging.level") }
func (c *Config) Summary() bool { return c.v.GetBool("output.summary") }

func (c *Config) ServerAddress() string { return c.v.GetString("server.address") }
func (c *Config) ReadTimeout() time.Duration { return c.v.GetDuration("server.read_timeout") }
func (c *Config) WriteTimeout() time.Duration { return c.v.GetDuration("server.write_timeout") }
func (c *Config) MaxConcurrentRuns() int { return c.v.GetInt("server.max_concurrent_runs") }
func (c *Config) MaxStoredRuns() int { return c.v.GetInt("server.max_stored_runs") }
func (c *Config) MaxNodes() int { return c.v.GetInt("server.max_nodes") }

// Dimensions returns the sweep dimensions.
func (c *Config) Dimensions() ([]int, error) {
	dims, err := cast.ToIntSliceE(listValue(c.v.Get("sweep.dimensions")))
	if err != nil {
		return nil, fmt.Errorf("sweep.dimensions: %w", err)
	}
	return dims, nil
}

// Temperatures returns the sweep temperatures. Values may come from a config
// file list, a flag ("[0.1,0.5]") or the environment ("0.1,0.5").
func (c *Config) Temperatures() ([]float64, error) {
	raw := listValue(c.v.Get("sweep.temperatures"))
	switch values := raw.(type) {
	case []float64:
		return values, nil
	case []interface{}:
		temps := make([]float64, 0, len(values))
		for _, value := range values {
			t, err := cast.ToFloat64E(value)
			if err != nil {
				return nil, fmt.Errorf("sweep.temperatures: %w", err)
			}
			temps = append(temps, t)
		}
		return temps, nil
	case []string:
		temps := make([]float64, 0, len(values))
		for _, value := range values {
			t, err := cast.ToFloat64E(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("sweep.temperatures: %w", err)
			}
			temps = append(temps, t)
		}
		return temps, nil
	}
	return nil, fmt.Errorf("sweep.temperatures: unsupported value %v", raw)
}

// listValue turns flag and environment renderings of a list ("[1,2]", "1,2",
// "1 2") into a []string and passes anything else through.
func listValue(raw interface{}) interface{} {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return []string{}
	}
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}

// Params returns the run parameters shared by every run of a sweep. Dimension,
// temperature and seed are left for the caller or the grid to fill in.
func (c *Config) Params() experiment.Params {
	return experiment.Params{
		N:       c.N(),
		M:       c.M(),
		K:       c.K(),
		PLE:     c.PLE(),
		Threads: c.Threads(),
		Plot:    c.Plot(),
	}
}

// Grid assembles the configured sweep.
func (c *Config) Grid() (experiment.Grid, error) {
	dims, err := c.Dimensions()
	if err != nil {
		return experiment.Grid{}, err
	}
	temps, err := c.Temperatures()
	if err != nil {
		return experiment.Grid{}, err
	}
	return experiment.Grid{
		Base:         c.Params(),
		Dimensions:   dims,
		Temperatures: temps,
		Reps:         c.Reps(),
		Seed:         c.Seed(),
	}, nil
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config. Output goes to stderr;
// stdout is reserved for CSV.
func (c *Config) CreateLogger() zerolog.Logger {
	return c.CreateLoggerTo(os.Stderr)
}

// CreateLoggerTo is CreateLogger with an explicit destination.
func (c *Config) CreateLoggerTo(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "satgirg").Logger()
}
