package matmul

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/samber/lo"

	"github.com/tektwister/ai_engineering/matmul_bench/internal/parallel"
)

// Seeds used for the two benchmark operands.
const (
	DefaultSeedA int64 = 42
	DefaultSeedB int64 = 84
)

// StrassenMaxBenchSize is the largest size the harness will time Strassen at.
const StrassenMaxBenchSize = 512

// BenchmarkResult holds the timing of one strategy. It is immutable once
// returned by Benchmark.
type BenchmarkResult struct {
	Name           string
	Kernel         Kernel
	Size           int
	Iterations     int
	Duration       time.Duration // average per iteration
	AverageSeconds float64
	GFLOPS         float64 // Giga Floating Point Operations Per Second
	Speedup        float64 // baseline average / this average
	MaxAbsDiff     float64 // vs baseline result; zero when verification is off
}

// String returns a formatted string representation of the result.
func (r BenchmarkResult) String() string {
	return fmt.Sprintf("%-18s | %.3fs | %.2f GFLOPS | %.2fx speedup",
		r.Name, r.AverageSeconds, r.GFLOPS, r.Speedup)
}

// Discrepancy records a strategy whose result disagreed with the baseline by
// more than the tolerance. It is reported, not returned as an error.
type Discrepancy struct {
	Name       string
	MaxAbsDiff float64
	Tolerance  float64
}

// Report is the outcome of one Benchmark call.
type Report struct {
	Size          int
	Iterations    int
	BlockSize     int
	Workers       int
	Results       []BenchmarkResult
	Discrepancies []Discrepancy
}

// Best returns the result with the highest GFLOPS.
func (r *Report) Best() BenchmarkResult {
	return lo.MaxBy(r.Results, func(a, b BenchmarkResult) bool { return a.GFLOPS > b.GFLOPS })
}

// Names returns the strategy names in run order.
func (r *Report) Names() []string {
	return lo.Map(r.Results, func(res BenchmarkResult, _ int) string { return res.Name })
}

// BenchmarkConfig configures the benchmark run.
type BenchmarkConfig struct {
	Size       int     // Matrix size (NxN)
	Iterations int     // Timed runs per strategy
	BlockSize  int     // Tile edge for the blocked strategies
	Workers    int     // Worker pool size, 0 means GOMAXPROCS
	WarmupRuns int     // Untimed runs per strategy
	SeedA      int64   // Seed for operand A
	SeedB      int64   // Seed for operand B
	Verify     bool    // Compare every strategy with the baseline result
	Tolerance  float64 // Max abs difference accepted by verification
}

// DefaultBenchmarkConfig returns a reasonable default configuration.
func DefaultBenchmarkConfig() *BenchmarkConfig {
	return &BenchmarkConfig{
		Size:       512,
		Iterations: 3,
		BlockSize:  DefaultBlockSize,
		SeedA:      DefaultSeedA,
		SeedB:      DefaultSeedB,
		Tolerance:  1e-6,
	}
}

// Validate rejects non-positive sizes and a block size larger than the
// matrix before any matrix is generated.
func (c *BenchmarkConfig) Validate() error {
	switch {
	case c.Size <= 0:
		return fmt.Errorf("%w: size must be > 0, got %d", ErrInvalidParameter, c.Size)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be > 0, got %d", ErrInvalidParameter, c.Iterations)
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size must be > 0, got %d", ErrInvalidParameter, c.BlockSize)
	case c.BlockSize > c.Size:
		return fmt.Errorf("%w: block size %d exceeds size %d", ErrInvalidParameter, c.BlockSize, c.Size)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidParameter, c.Workers)
	case c.WarmupRuns < 0:
		return fmt.Errorf("%w: warmup runs must be >= 0, got %d", ErrInvalidParameter, c.WarmupRuns)
	case c.Tolerance < 0:
		return fmt.Errorf("%w: tolerance must be >= 0, got %g", ErrInvalidParameter, c.Tolerance)
	}
	return nil
}

// Strategy is a named kernel as it appears in a report.
type Strategy struct {
	Name   string
	Kernel Kernel
}

// Strategies returns the strategies benchmarked at the given size, baseline
// first. Strassen is included only for power-of-two sizes up to
// StrassenMaxBenchSize.
func Strategies(size, blockSize int) []Strategy {
	all := []Strategy{
		{Name: "Naive O(n³)", Kernel: Naive},
		{Name: "Parallel Rows", Kernel: ParallelRows},
		{Name: fmt.Sprintf("Blocked (%d)", blockSize), Kernel: Blocked},
		{Name: "Parallel Blocked", Kernel: ParallelBlocked},
		{Name: "Strassen O(n^2.8)", Kernel: StrassenKernel},
	}
	withStrassen := size <= StrassenMaxBenchSize && isPowerOf2(size)
	return lo.Filter(all, func(s Strategy, _ int) bool {
		return s.Kernel != StrassenKernel || withStrassen
	})
}

// Benchmark generates two seeded random Size×Size matrices, times every
// strategy on them and computes GFLOPS and speedup against the first
// strategy. Any strategy failure aborts the benchmark.
func Benchmark(ctx context.Context, config *BenchmarkConfig) (*Report, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	pool := parallel.New(config.Workers)
	opts := []Option{WithBlockSize(config.BlockSize), WithPool(pool)}

	a := NewRandom(config.Size, config.Size, config.SeedA)
	b := NewRandom(config.Size, config.Size, config.SeedB)

	report := &Report{
		Size:       config.Size,
		Iterations: config.Iterations,
		BlockSize:  config.BlockSize,
		Workers:    pool.Workers(),
	}

	var baselineTime time.Duration
	var baseline *Matrix
	for idx, s := range Strategies(config.Size, config.BlockSize) {
		total, last, err := timeKernel(ctx, a, b, s.Kernel, config.Iterations, config.WarmupRuns, opts)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", s.Name, err)
		}

		avg := averageDuration(total, config.Iterations)
		if idx == 0 {
			baselineTime = avg
			baseline = last
		}
		result := summarize(s, config.Size, config.Iterations, avg, baselineTime)

		if config.Verify && idx > 0 {
			result.MaxAbsDiff = last.MaxAbsDiff(baseline)
			if !last.Equal(baseline, config.Tolerance) {
				report.Discrepancies = append(report.Discrepancies, Discrepancy{
					Name:       s.Name,
					MaxAbsDiff: result.MaxAbsDiff,
					Tolerance:  config.Tolerance,
				})
			}
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// timeKernel runs kernel warmup+iterations times and returns the summed
// wall time of the timed runs and the last product.
func timeKernel(ctx context.Context, a, b *Matrix, kernel Kernel, iterations, warmup int, opts []Option) (time.Duration, *Matrix, error) {
	for i := 0; i < warmup; i++ {
		if _, err := Multiply(ctx, a, b, kernel, opts...); err != nil {
			return 0, nil, err
		}
	}

	// Force GC before timing
	runtime.GC()

	var total time.Duration
	var last *Matrix
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}
		start := time.Now()
		c, err := Multiply(ctx, a, b, kernel, opts...)
		total += time.Since(start)
		if err != nil {
			return 0, nil, err
		}
		last = c
	}
	return total, last, nil
}

// averageDuration returns total/iterations, never less than one nanosecond
// so that GFLOPS and speedup stay finite.
func averageDuration(total time.Duration, iterations int) time.Duration {
	return max(total/time.Duration(iterations), time.Nanosecond)
}

// summarize builds the immutable result for one strategy.
func summarize(s Strategy, size, iterations int, avg, baseline time.Duration) BenchmarkResult {
	seconds := avg.Seconds()
	return BenchmarkResult{
		Name:           s.Name,
		Kernel:         s.Kernel,
		Size:           size,
		Iterations:     iterations,
		Duration:       avg,
		AverageSeconds: seconds,
		GFLOPS:         GFLOPS(size, seconds),
		Speedup:        baseline.Seconds() / seconds,
	}
}

// GFLOPS returns the throughput of an n×n×n multiplication that took the
// given number of seconds. Matrix multiplication requires 2n³ FLOPs
// (n³ multiplications + n³ additions).
func GFLOPS(n int, seconds float64) float64 {
	fn := float64(n)
	return 2.0 * fn * fn * fn / (seconds * 1e9)
}

// VerifyKernelCorrectness checks if a kernel reproduces a small known product.
func VerifyKernelCorrectness(kernel Kernel, tolerance float64) bool {
	a := NewMatrixFromSlice([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	b := NewMatrixFromSlice([][]float64{
		{7, 8},
		{9, 10},
		{11, 12},
	})

	expected := NewMatrixFromSlice([][]float64{
		{58, 64},
		{139, 154},
	})

	// Strassen needs square operands; use the padded variant on this shape.
	var result *Matrix
	var err error
	if kernel == StrassenKernel {
		result, err = StrassenPadded(a, b)
	} else {
		result, err = Multiply(context.Background(), a, b, kernel, WithBlockSize(2))
	}
	if err != nil {
		return false
	}

	return result.Equal(expected, tolerance)
}
