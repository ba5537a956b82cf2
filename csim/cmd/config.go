package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/adkrueger/Cachelab/mem/cache"
)

// Environment variables that provide flag defaults.
const (
	EnvSetIndexBits    = "CSIM_S"
	EnvAssociativity   = "CSIM_E"
	EnvBlockOffsetBits = "CSIM_B"
	EnvTrace           = "CSIM_TRACE"
	EnvVerbose         = "CSIM_VERBOSE"
)

const defaultResultsPath = ".csim_results"

// Config collects everything a simulation run needs.
type Config struct {
	SetIndexBits    int
	Associativity   int
	BlockOffsetBits int
	TracePath       string
	Verbose         bool

	RecordPath  string
	Monitor     bool
	MonitorPort int
	OpenBrowser bool
	ResultsPath string
}

// loadDotEnv reads envFile into the environment if it exists. Variables that
// are already set win.
func loadDotEnv(envFile string) error {
	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	return nil
}

// defaultConfig builds the flag defaults from the environment.
func defaultConfig() (Config, error) {
	c := Config{
		TracePath:   os.Getenv(EnvTrace),
		ResultsPath: defaultResultsPath,
	}

	var err error

	if c.SetIndexBits, err = envInt(EnvSetIndexBits); err != nil {
		return c, err
	}

	if c.Associativity, err = envInt(EnvAssociativity); err != nil {
		return c, err
	}

	if c.BlockOffsetBits, err = envInt(EnvBlockOffsetBits); err != nil {
		return c, err
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		c.Verbose, err = strconv.ParseBool(v)
		if err != nil {
			return c, &cache.ConfigurationError{
				Field:  EnvVerbose,
				Reason: fmt.Sprintf("%q is not a boolean", v),
			}
		}
	}

	return c, nil
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &cache.ConfigurationError{
			Field:  key,
			Reason: fmt.Sprintf("%q is not an integer", v),
		}
	}

	return n, nil
}

// Geometry validates the numeric flags and converts them to a cache geometry.
func (c Config) Geometry() (cache.Geometry, error) {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"set index bits (-s)", c.SetIndexBits},
		{"associativity (-E)", c.Associativity},
		{"block offset bits (-b)", c.BlockOffsetBits},
	} {
		if f.value < 0 {
			return cache.Geometry{}, &cache.ConfigurationError{
				Field:  f.name,
				Reason: "must not be negative",
			}
		}
	}

	g := cache.Geometry{
		NumSetIndexBits:    uint(c.SetIndexBits),
		Associativity:      uint(c.Associativity),
		NumBlockOffsetBits: uint(c.BlockOffsetBits),
	}

	if err := g.Validate(); err != nil {
		return cache.Geometry{}, err
	}

	return g, nil
}

// Validate checks the whole configuration before anything is simulated.
func (c Config) Validate() error {
	if _, err := c.Geometry(); err != nil {
		return err
	}

	return c.validateOptions()
}

// validateOptions checks everything but the geometry.
func (c Config) validateOptions() error {
	if c.TracePath == "" {
		return &cache.ConfigurationError{
			Field:  "trace file (-t)",
			Reason: "is required",
		}
	}

	if c.MonitorPort < 0 {
		return &cache.ConfigurationError{
			Field:  "monitor port",
			Reason: "must not be negative",
		}
	}

	return nil
}
