// Package config loads benchmark defaults from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvSize       = "MATMUL_SIZE"
	EnvIterations = "MATMUL_ITERATIONS"
	EnvBlockSize  = "MATMUL_BLOCK_SIZE"
	EnvWorkers    = "MATMUL_WORKERS"
	EnvSeedA      = "MATMUL_SEED_A"
	EnvSeedB      = "MATMUL_SEED_B"
	EnvTolerance  = "MATMUL_TOLERANCE"
)

// BenchConfig holds the defaults used by the command line.
type BenchConfig struct {
	Size       int
	Iterations int
	BlockSize  int
	Workers    int // 0 means GOMAXPROCS
	SeedA      int64
	SeedB      int64
	Tolerance  float64
}

// Defaults returns the built-in values used when nothing is set.
func Defaults() *BenchConfig {
	return &BenchConfig{
		Size:       512,
		Iterations: 3,
		BlockSize:  64,
		SeedA:      42,
		SeedB:      84,
		Tolerance:  1e-6,
	}
}

// Load loads the benchmark configuration from environment variables.
// It attempts to find a .env file in the current or parent directories.
// Unset variables keep their default; malformed ones are an error.
func Load() (*BenchConfig, error) {
	// Try to load .env from current or parent directories
	_ = loadEnvFile()

	cfg := Defaults()
	var err error
	if cfg.Size, err = intEnv(EnvSize, cfg.Size); err != nil {
		return nil, err
	}
	if cfg.Iterations, err = intEnv(EnvIterations, cfg.Iterations); err != nil {
		return nil, err
	}
	if cfg.BlockSize, err = intEnv(EnvBlockSize, cfg.BlockSize); err != nil {
		return nil, err
	}
	if cfg.Workers, err = intEnv(EnvWorkers, cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.SeedA, err = int64Env(EnvSeedA, cfg.SeedA); err != nil {
		return nil, err
	}
	if cfg.SeedB, err = int64Env(EnvSeedB, cfg.SeedB); err != nil {
		return nil, err
	}
	if cfg.Tolerance, err = floatEnv(EnvTolerance, cfg.Tolerance); err != nil {
		return nil, err
	}
	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return n, nil
}

func int64Env(key string, def int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q: %w", key, v, err)
	}
	return f, nil
}

// loadEnvFile attempts to look up until it finds a .env file.
// Variables already present in the environment win over the file.
func loadEnvFile() error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	// Look up to 5 levels
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return godotenv.Load(envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil
}
