package matmul

import (
	"context"
	"fmt"

	"github.com/tektwister/ai_engineering/matmul_bench/internal/parallel"
)

// ScalingConfig configures a geometric size sweep.
type ScalingConfig struct {
	StartSize int
	EndSize   int
	Factor    int
	BlockSize int
	Workers   int
	SeedA     int64
	SeedB     int64
}

// DefaultScalingConfig sweeps 64, 128, ..., 1024.
func DefaultScalingConfig() *ScalingConfig {
	return &ScalingConfig{
		StartSize: 64,
		EndSize:   1024,
		Factor:    2,
		BlockSize: DefaultBlockSize,
		SeedA:     DefaultSeedA,
		SeedB:     DefaultSeedB,
	}
}

// Validate checks start > 0, start <= end, factor > 1 and block size > 0.
func (c *ScalingConfig) Validate() error {
	switch {
	case c.StartSize <= 0:
		return fmt.Errorf("%w: start size must be > 0, got %d", ErrInvalidParameter, c.StartSize)
	case c.EndSize < c.StartSize:
		return fmt.Errorf("%w: end size %d < start size %d", ErrInvalidParameter, c.EndSize, c.StartSize)
	case c.Factor <= 1:
		return fmt.Errorf("%w: factor must be > 1, got %d", ErrInvalidParameter, c.Factor)
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size must be > 0, got %d", ErrInvalidParameter, c.BlockSize)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidParameter, c.Workers)
	}
	return nil
}

// Sizes returns start, start*factor, ... up to and including end, in
// increasing order. It stops before size*factor could overflow.
func (c *ScalingConfig) Sizes() []int {
	var sizes []int
	for size := c.StartSize; size <= c.EndSize; size *= c.Factor {
		sizes = append(sizes, size)
		if size > c.EndSize/c.Factor {
			break
		}
	}
	return sizes
}

// ScalingRow is the timing of one size in a sweep. Err is set when this size
// failed; the other fields are then zero.
type ScalingRow struct {
	Size            int
	NaiveSeconds    float64
	ParallelSeconds float64
	BlockedSeconds  float64
	Speedup         float64 // naive / parallel
	Err             error
}

// Scaling times the naive, row-parallel and blocked kernels once per size.
// A failing size is recorded in its row and the sweep continues; only an
// invalid config or a cancelled context stop it.
func Scaling(ctx context.Context, config *ScalingConfig) ([]ScalingRow, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	pool := parallel.New(config.Workers)

	return sweep(ctx, config.Sizes(), func(size int) ScalingRow {
		// Small sizes in the sweep tile with the whole matrix.
		opts := []Option{WithBlockSize(min(config.BlockSize, size)), WithPool(pool)}
		return scaleOne(ctx, size, config, opts)
	})
}

// sweep measures each size in order. Row errors do not stop it.
func sweep(ctx context.Context, sizes []int, measure func(size int) ScalingRow) ([]ScalingRow, error) {
	rows := make([]ScalingRow, 0, len(sizes))
	for _, size := range sizes {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		rows = append(rows, measureSafely(size, measure))
	}
	return rows, nil
}

// measureSafely turns a panic while measuring one size into that row's error.
func measureSafely(size int, measure func(size int) ScalingRow) (row ScalingRow) {
	defer func() {
		if r := recover(); r != nil {
			row = ScalingRow{Size: size, Err: fmt.Errorf("size %d: panic: %v", size, r)}
		}
	}()
	return measure(size)
}

func scaleOne(ctx context.Context, size int, config *ScalingConfig, opts []Option) ScalingRow {
	row := ScalingRow{Size: size}
	a := NewRandom(size, size, config.SeedA)
	b := NewRandom(size, size, config.SeedB)

	seconds := make([]float64, 0, 3)
	for _, kernel := range []Kernel{Naive, ParallelRows, Blocked} {
		total, _, err := timeKernel(ctx, a, b, kernel, 1, 0, opts)
		if err != nil {
			row.Err = fmt.Errorf("size %d: %s: %w", size, kernel, err)
			return row
		}
		seconds = append(seconds, averageDuration(total, 1).Seconds())
	}

	row.NaiveSeconds, row.ParallelSeconds, row.BlockedSeconds = seconds[0], seconds[1], seconds[2]
	row.Speedup = row.NaiveSeconds / row.ParallelSeconds
	return row
}
