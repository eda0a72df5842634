package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visualdiff/image-diff-go/internal/config"
	"github.com/visualdiff/image-diff-go/internal/logger"
	"github.com/visualdiff/image-diff-go/internal/observer"
	"github.com/visualdiff/image-diff-go/internal/repository"
	"github.com/visualdiff/image-diff-go/internal/service"
	"github.com/visualdiff/image-diff-go/internal/storage"
	"github.com/visualdiff/image-diff-go/pkg/models"
	"github.com/visualdiff/image-diff-go/pkg/validation"
)

var (
	flagTolerance  float64
	flagAcceptance float64
	flagStrategy   string
	flagQuiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "imagediff <original> <screenshot> [outputDir]",
	Short: "Compare a design export against an implementation screenshot",
	Long: `imagediff compares two raster images pixel by pixel, writes a diff
visualization to <outputDir>/diff.png and prints a match-rate report.

Images of different sizes are compared over their top-left overlap; the
mismatch is reported as a warning, not an error. The process exits 0 when
the match percentage reaches the acceptance threshold and 1 otherwise.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: run,
}

func init() {
	rootCmd.Flags().Float64Var(&flagTolerance, "tolerance", 0.1,
		"per-pixel color tolerance in [0,1]; 0 requires exact equality")
	rootCmd.Flags().Float64Var(&flagAcceptance, "acceptance", 95.0,
		"match percentage required for a passing exit code")
	rootCmd.Flags().StringVar(&flagStrategy, "strategy", "perceptual",
		"comparison strategy (perceptual or exact)")
	rootCmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false,
		"suppress the report body; the exit code still carries the verdict")
}

func run(cmd *cobra.Command, args []string) error {
	// Arguments are valid from here on: a failing comparison should not
	// echo the usage synopsis, only missing arguments should.
	cmd.SilenceUsage = true

	logger.UseTextOutput()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	outputDir := cfg.OutputDir
	if len(args) == 3 {
		outputDir = args[2]
	}

	svc := newLocalService(cfg)
	req := models.CompareRequest{
		OriginalRef:   args[0],
		ScreenshotRef: args[1],
		Tolerance:     &flagTolerance,
		Strategy:      flagStrategy,
		OutputDir:     outputDir,
	}

	report, err := svc.Compare(context.Background(), req)
	if err != nil {
		return err
	}

	if !flagQuiet {
		printReport(report)
	}

	if !report.Passed {
		os.Exit(1)
	}
	return nil
}

// newLocalService wires a comparison service for interactive use: local
// paths plus remote URLs, flag-driven acceptance, log-only events.
func newLocalService(cfg *config.Config) service.CompareService {
	local := storage.NewLocalImageFetcher()
	remote := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout)

	var blob storage.ImageFetcher
	if cfg.AzureAccountName != "" && cfg.AzureAccountKey != "" {
		if b, err := storage.NewAzureBlobFetcher(cfg.AzureAccountName, cfg.AzureAccountKey); err == nil {
			blob = b
		}
	}

	sources := repository.NewSourceRepository(local, remote, blob, validation.NewSourceValidator())

	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))

	match := validation.NewMatchValidator(flagAcceptance)
	return service.NewCompareService(sources, match, cfg, events)
}

func printReport(r *models.ComparisonReport) {
	fmt.Printf("\nComparison report\n")
	fmt.Printf("  Region           : %dx%d\n", r.Region.Width, r.Region.Height)
	if r.SizeMismatch {
		fmt.Printf("  Original size    : %dx%d\n", r.OriginalSize.Width, r.OriginalSize.Height)
		fmt.Printf("  Screenshot size  : %dx%d\n", r.ScreenshotSize.Width, r.ScreenshotSize.Height)
		fmt.Printf("  Note             : sizes differ, compared top-left overlap only\n")
	}
	fmt.Printf("  Total pixels     : %d\n", r.TotalPixels)
	fmt.Printf("  Matched pixels   : %d\n", r.MatchedPixels)
	fmt.Printf("  Differing pixels : %d\n", r.DiffPixels)
	fmt.Printf("  Match            : %.2f%% (diff %.2f%%)\n", r.MatchPercentage, r.DiffPercentage)
	fmt.Printf("  Assessment       : %s\n", r.Band)
	fmt.Printf("  Diff image       : %s\n", r.DiffImagePath)
	for _, hint := range r.Hints {
		fmt.Printf("  Hint             : %s\n", hint)
	}
	if r.Passed {
		fmt.Printf("  Verdict          : PASS (>= %.2f%% required)\n", flagAcceptance)
	} else {
		fmt.Printf("  Verdict          : FAIL (>= %.2f%% required)\n", flagAcceptance)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
