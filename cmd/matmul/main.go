package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"

	matmul "github.com/tektwister/ai_engineering/matmul_bench"
	"github.com/tektwister/ai_engineering/matmul_bench/internal/sysinfo"
	"github.com/tektwister/ai_engineering/matmul_bench/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning loading config: %v", err)
		cfg = config.Defaults()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd(cfg *config.BenchConfig) *cobra.Command {
	root := &cobra.Command{
		Use:           "matmul",
		Short:         "Matrix multiplication benchmarks: from naive to optimized",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), sysinfo.Describe())
			fmt.Fprintln(cmd.OutOrStdout())
		},
	}
	root.AddCommand(
		newBenchmarkCmd(cfg),
		newScalingCmd(cfg),
		newTechniquesCmd(),
		newMemoryCmd(),
		newVerifyCmd(cfg),
	)
	return root
}

// sizeArg parses the optional positional size argument.
func sizeArg(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	size, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("size %q: %w", args[0], err)
	}
	return size, nil
}

func newBenchmarkCmd(cfg *config.BenchConfig) *cobra.Command {
	bc := matmul.DefaultBenchmarkConfig()
	bc.Iterations = cfg.Iterations
	bc.BlockSize = cfg.BlockSize
	bc.Workers = cfg.Workers
	bc.SeedA = cfg.SeedA
	bc.SeedB = cfg.SeedB
	bc.Tolerance = cfg.Tolerance

	cmd := &cobra.Command{
		Use:   "benchmark [size]",
		Short: "Benchmark different matrix multiplication algorithms",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := sizeArg(args, cfg.Size)
			if err != nil {
				return err
			}
			bc.Size = size

			report, err := matmul.Benchmark(cmd.Context(), bc)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			matmul.PrintBenchmarkResults(out, report)

			best := report.Best()
			fmt.Fprintf(out, "\nBest strategy: %s (%.2f GFLOPS, %.2fx vs baseline)\n", best.Name, best.GFLOPS, best.Speedup)
			if len(report.Discrepancies) > 0 {
				log.Printf("%d strategies disagree with the baseline", len(report.Discrepancies))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&bc.Iterations, "iterations", bc.Iterations, "Number of iterations for timing")
	cmd.Flags().IntVar(&bc.BlockSize, "block-size", bc.BlockSize, "Tile edge for the blocked strategies")
	cmd.Flags().IntVar(&bc.Workers, "workers", bc.Workers, "Worker pool size (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&bc.WarmupRuns, "warmup", bc.WarmupRuns, "Untimed runs per strategy")
	cmd.Flags().BoolVar(&bc.Verify, "verify", false, "Compare every strategy with the baseline result")
	cmd.Flags().Float64Var(&bc.Tolerance, "tolerance", bc.Tolerance, "Max abs difference accepted by --verify")
	return cmd
}

func newScalingCmd(cfg *config.BenchConfig) *cobra.Command {
	sc := matmul.DefaultScalingConfig()
	sc.BlockSize = cfg.BlockSize
	sc.Workers = cfg.Workers
	sc.SeedA = cfg.SeedA
	sc.SeedB = cfg.SeedB

	cmd := &cobra.Command{
		Use:   "scaling",
		Short: "Compare algorithm complexities across sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Size range: %d to %d, factor: %d\n", sc.StartSize, sc.EndSize, sc.Factor)

			rows, err := matmul.Scaling(cmd.Context(), sc)
			matmul.PrintScaling(out, rows)
			for _, r := range rows {
				if r.Err != nil {
					log.Printf("Size %d failed: %v", r.Size, r.Err)
				}
			}
			return err
		},
	}
	cmd.Flags().IntVar(&sc.StartSize, "start-size", sc.StartSize, "Starting size")
	cmd.Flags().IntVar(&sc.EndSize, "end-size", sc.EndSize, "Ending size")
	cmd.Flags().IntVar(&sc.Factor, "factor", sc.Factor, "Size multiplier for each step")
	cmd.Flags().IntVar(&sc.BlockSize, "block-size", sc.BlockSize, "Tile edge for the blocked strategy")
	cmd.Flags().IntVar(&sc.Workers, "workers", sc.Workers, "Worker pool size (0 = GOMAXPROCS)")
	return cmd
}

func newTechniquesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "techniques [size]",
		Short: "Demonstrate different optimization techniques",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := sizeArg(args, 256)
			if err != nil {
				return err
			}
			timings, err := matmul.AnalyzeBlockSizes(cmd.Context(), size, matmul.TechniqueBlockSizes)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Block size analysis (%d×%d):\n", size, size)
			matmul.PrintBlockTimings(out, timings)
			return nil
		},
	}
}

func newMemoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "memory [size]",
		Short: "Memory access pattern analysis",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := sizeArg(args, 512)
			if err != nil {
				return err
			}
			analysis, err := matmul.AnalyzeMemoryPatterns(cmd.Context(), size)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Memory access pattern analysis (%d×%d):\n", size, size)
			matmul.PrintMemoryAnalysis(out, analysis)
			return nil
		},
	}
}

func newVerifyCmd(cfg *config.BenchConfig) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify correctness of all kernels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 {
				return fmt.Errorf("%w: size must be > 0, got %d", matmul.ErrInvalidParameter, size)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Verifying kernel correctness...")

			allPassed := true
			for _, kernel := range matmul.AllKernels() {
				if matmul.VerifyKernelCorrectness(kernel, 1e-9) {
					fmt.Fprintf(out, "  ✓ %-16s PASSED\n", kernel)
				} else {
					fmt.Fprintf(out, "  ✗ %-16s FAILED\n", kernel)
					allPassed = false
				}
			}

			a := matmul.NewRandom(size, size, cfg.SeedA)
			b := matmul.NewRandom(size, size, cfg.SeedB)
			discrepancies, err := matmul.CrossValidate(cmd.Context(), a, b, cfg.Tolerance,
				matmul.WithBlockSize(cfg.BlockSize))
			if err != nil {
				return err
			}
			for _, d := range discrepancies {
				fmt.Fprintf(out, "  ✗ %-16s max |Δ| = %.3g at %d×%d\n", d.Name, d.MaxAbsDiff, size, size)
				allPassed = false
			}

			if !allPassed {
				return fmt.Errorf("some kernels failed verification")
			}
			fmt.Fprintln(out, "All kernels verified successfully!")
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 128, "Size of the random cross-validation matrices")
	return cmd
}
