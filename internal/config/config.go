// Package config provides environment-driven defaults for hosting
// applications that construct an engine.Engine: env vars parsed by hand
// with a silent fallback to the default on a parse error, an optional
// .env file loaded via godotenv, and a Validate method.
//
// The engine package itself never reads the environment — this package
// exists purely for a process like cmd/automatondemo that wants to build
// one from its environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the values a host process uses to construct an engine.
type Config struct {
	BlockWidth      int
	BlockHeight     int
	WorkerCount     int
	DeadProbability float64
	LogLevel        string
	LogFormat       string
}

// Load reads configuration from the environment, loading a .env file
// first if one is present in the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is not an error

	cfg := &Config{
		BlockWidth:      envInt("AUTOMATON_BLOCK_WIDTH", 32),
		BlockHeight:     envInt("AUTOMATON_BLOCK_HEIGHT", 32),
		WorkerCount:     envInt("AUTOMATON_WORKER_COUNT", 3),
		DeadProbability: envFloat("AUTOMATON_DEAD_PROBABILITY", 0.7),
		LogLevel:        envString("AUTOMATON_LOG_LEVEL", "info"),
		LogFormat:       envString("AUTOMATON_LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configuration that would fail at engine construction
// time, so a host fails fast with a clear message instead of propagating
// an opaque error out of engine.New.
func (c *Config) Validate() error {
	if c.BlockWidth < 2 || c.BlockHeight < 2 {
		return fmt.Errorf("config: block dimensions must be >= 2, got %dx%d", c.BlockWidth, c.BlockHeight)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("config: worker count must be >= 1, got %d", c.WorkerCount)
	}
	if c.DeadProbability < 0 || c.DeadProbability > 1 {
		return fmt.Errorf("config: dead probability must be in [0,1], got %f", c.DeadProbability)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
