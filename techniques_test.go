package matmul

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeBlockSizes(t *testing.T) {
	timings, err := AnalyzeBlockSizes(context.Background(), 48, TechniqueBlockSizes)
	require.NoError(t, err)
	require.Len(t, timings, 1) // only 32 fits in 48
	require.Equal(t, 32, timings[0].BlockSize)
	require.Positive(t, timings[0].Seconds)
	require.InEpsilon(t, GFLOPS(48, timings[0].Seconds), timings[0].GFLOPS, 1e-12)

	_, err = AnalyzeBlockSizes(context.Background(), 0, TechniqueBlockSizes)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = AnalyzeBlockSizes(context.Background(), 8, []int{4, 0})
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAnalyzeMemoryPatterns(t *testing.T) {
	analysis, err := AnalyzeMemoryPatterns(context.Background(), 64)
	require.NoError(t, err)
	require.Equal(t, 64, analysis.Size)

	require.Len(t, analysis.LoopOrders, 3)
	require.Equal(t, []Kernel{Naive, NaiveIKJ, TransposedB}, []Kernel{
		analysis.LoopOrders[0].Kernel, analysis.LoopOrders[1].Kernel, analysis.LoopOrders[2].Kernel,
	})

	// 16 and 32 are <= 64/2
	require.Len(t, analysis.Blocks, 2)
	ijk := analysis.LoopOrders[0].Seconds
	for _, b := range analysis.Blocks {
		require.InEpsilon(t, ijk/b.Seconds, b.Efficiency, 1e-12)
	}

	var buf bytes.Buffer
	PrintMemoryAnalysis(&buf, analysis)
	require.Contains(t, buf.String(), "Block 32")

	_, err = AnalyzeMemoryPatterns(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AnalyzeBlockSizes(ctx, 64, []int{16})
	require.ErrorIs(t, err, context.Canceled)
	_, err = AnalyzeMemoryPatterns(ctx, 64)
	require.ErrorIs(t, err, context.Canceled)
}
