package matmul

import (
	"context"
	"fmt"
)

// Block sizes tried by the technique and memory analyses.
var (
	TechniqueBlockSizes = []int{32, 64, 128, 256}
	MemoryBlockSizes    = []int{16, 32, 64, 128}
)

// BlockTiming is a single blocked run at one block size.
type BlockTiming struct {
	BlockSize  int
	Seconds    float64
	GFLOPS     float64
	Efficiency float64 // IJK seconds / Seconds; only set by AnalyzeMemoryPatterns
}

// LoopOrderTiming is a single run of one loop ordering.
type LoopOrderTiming struct {
	Name    string
	Kernel  Kernel
	Seconds float64
}

// MemoryAnalysis compares loop orders and block sizes at one size.
type MemoryAnalysis struct {
	Size       int
	LoopOrders []LoopOrderTiming
	Blocks     []BlockTiming
}

func validateSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be > 0, got %d", ErrInvalidParameter, size)
	}
	return nil
}

// AnalyzeBlockSizes times the blocked kernel once for every block size that
// does not exceed size.
func AnalyzeBlockSizes(ctx context.Context, size int, blockSizes []int) ([]BlockTiming, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	a := NewRandom(size, size, DefaultSeedA)
	b := NewRandom(size, size, DefaultSeedB)

	var timings []BlockTiming
	for _, bs := range blockSizes {
		if bs <= 0 {
			return nil, fmt.Errorf("%w: block size %d", ErrInvalidParameter, bs)
		}
		if bs > size {
			continue
		}
		seconds, err := timeOnce(ctx, a, b, Blocked, WithBlockSize(bs))
		if err != nil {
			return nil, fmt.Errorf("block size %d: %w", bs, err)
		}
		timings = append(timings, BlockTiming{BlockSize: bs, Seconds: seconds, GFLOPS: GFLOPS(size, seconds)})
	}
	return timings, nil
}

// AnalyzeMemoryPatterns times the IJK, IKJ and transposed-B loop orders, then
// the blocked kernel for every block size up to size/2, reporting each
// block's efficiency relative to IJK.
func AnalyzeMemoryPatterns(ctx context.Context, size int) (*MemoryAnalysis, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	a := NewRandom(size, size, DefaultSeedA)
	b := NewRandom(size, size, DefaultSeedB)
	analysis := &MemoryAnalysis{Size: size}

	orders := []LoopOrderTiming{
		{Name: "IJK (row-major standard)", Kernel: Naive},
		{Name: "IKJ (streamed B rows)", Kernel: NaiveIKJ},
		{Name: "IJK with B transposed", Kernel: TransposedB},
	}
	for _, o := range orders {
		seconds, err := timeOnce(ctx, a, b, o.Kernel)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.Name, err)
		}
		o.Seconds = seconds
		analysis.LoopOrders = append(analysis.LoopOrders, o)
	}
	ijk := analysis.LoopOrders[0].Seconds

	for _, bs := range MemoryBlockSizes {
		if bs > size/2 {
			continue
		}
		seconds, err := timeOnce(ctx, a, b, Blocked, WithBlockSize(bs))
		if err != nil {
			return nil, fmt.Errorf("block size %d: %w", bs, err)
		}
		analysis.Blocks = append(analysis.Blocks, BlockTiming{
			BlockSize:  bs,
			Seconds:    seconds,
			GFLOPS:     GFLOPS(size, seconds),
			Efficiency: ijk / seconds,
		})
	}
	return analysis, nil
}

func timeOnce(ctx context.Context, a, b *Matrix, kernel Kernel, opts ...Option) (float64, error) {
	total, _, err := timeKernel(ctx, a, b, kernel, 1, 0, opts)
	if err != nil {
		return 0, err
	}
	return averageDuration(total, 1).Seconds(), nil
}
