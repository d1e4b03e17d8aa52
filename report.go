package matmul

import (
	"fmt"
	"io"
	"strings"
)

// PrintBenchmarkResults writes one line per strategy: name, average seconds,
// GFLOPS and speedup, followed by any verification discrepancies.
func PrintBenchmarkResults(w io.Writer, report *Report) {
	fmt.Fprintf(w, "Matrix size: %d×%d | Iterations: %d | Block: %d | Workers: %d\n",
		report.Size, report.Size, report.Iterations, report.BlockSize, report.Workers)
	fmt.Fprintln(w, "┌────────────────────┬────────────┬──────────────┬────────────┐")
	fmt.Fprintln(w, "│ Strategy           │ Avg Time   │ GFLOPS       │ Speedup    │")
	fmt.Fprintln(w, "├────────────────────┼────────────┼──────────────┼────────────┤")

	for _, r := range report.Results {
		fmt.Fprintf(w, "│ %-18s │ %9.3fs │ %12.2f │ %9.2fx │\n",
			r.Name, r.AverageSeconds, r.GFLOPS, r.Speedup)
	}

	fmt.Fprintln(w, "└────────────────────┴────────────┴──────────────┴────────────┘")

	for _, d := range report.Discrepancies {
		fmt.Fprintf(w, "  ✗ %s differs from baseline: max |Δ| = %.3g > %.3g\n", d.Name, d.MaxAbsDiff, d.Tolerance)
	}
}

// PrintScaling writes the sweep as a table keyed by matrix size.
func PrintScaling(w io.Writer, rows []ScalingRow) {
	fmt.Fprintf(w, "%-8s %-12s %-12s %-12s %-12s\n", "Size", "Naive (s)", "Parallel (s)", "Blocked (s)", "Speedup")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, r := range rows {
		if r.Err != nil {
			fmt.Fprintf(w, "%-8d failed: %v\n", r.Size, r.Err)
			continue
		}
		fmt.Fprintf(w, "%-8d %-12.3f %-12.3f %-12.3f %.2fx\n",
			r.Size, r.NaiveSeconds, r.ParallelSeconds, r.BlockedSeconds, r.Speedup)
	}
}

// PrintBlockTimings writes a block size sweep.
func PrintBlockTimings(w io.Writer, timings []BlockTiming) {
	for _, t := range timings {
		fmt.Fprintf(w, "  Block size %-3d: %.3fs (%.2f GFLOPS)\n", t.BlockSize, t.Seconds, t.GFLOPS)
	}
}

// PrintMemoryAnalysis writes loop order timings and block efficiencies.
func PrintMemoryAnalysis(w io.Writer, analysis *MemoryAnalysis) {
	fmt.Fprintln(w, "Loop orders:")
	for _, o := range analysis.LoopOrders {
		fmt.Fprintf(w, "  %-26s %.3fs\n", o.Name, o.Seconds)
	}
	fmt.Fprintln(w, "Block size vs performance:")
	for _, b := range analysis.Blocks {
		fmt.Fprintf(w, "  Block %-3d: %.3fs (%.2fx efficiency)\n", b.BlockSize, b.Seconds, b.Efficiency)
	}
}
