package service

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/visualdiff/image-diff-go/internal/config"
	apperrors "github.com/visualdiff/image-diff-go/internal/errors"
	"github.com/visualdiff/image-diff-go/internal/raster"
	"github.com/visualdiff/image-diff-go/internal/repository"
	"github.com/visualdiff/image-diff-go/internal/storage"
	"github.com/visualdiff/image-diff-go/pkg/models"
	"github.com/visualdiff/image-diff-go/pkg/validation"
)

func newTestService(t *testing.T) (CompareService, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		OutputDir:           t.TempDir(),
		Tolerance:           0.1,
		AcceptanceThreshold: 95.0,
		Strategy:            "perceptual",
		ImageFetchTimeout:   5 * time.Second,
		MaxBatchSize:        8,
	}
	sources := repository.NewSourceRepository(
		storage.NewLocalImageFetcher(),
		storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout),
		nil,
		validation.NewSourceValidator(),
	)
	match := validation.NewMatchValidator(cfg.AcceptanceThreshold)
	return NewCompareService(sources, match, cfg, nil), cfg
}

// writeTestImage persists a solid-color PNG fixture and returns its path.
func writeTestImage(t *testing.T, dir, name string, width, height int, fill color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	path := filepath.Join(dir, name)
	if err := raster.SavePNG(img, path); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return path
}

func floatPtr(v float64) *float64 { return &v }

func TestCompare_IdenticalImages(t *testing.T) {
	svc, cfg := newTestService(t)
	dir := t.TempDir()
	white := color.RGBA{255, 255, 255, 255}
	original := writeTestImage(t, dir, "original.png", 10, 10, white)
	screenshot := writeTestImage(t, dir, "screenshot.png", 10, 10, white)

	report, err := svc.Compare(context.Background(), models.CompareRequest{
		OriginalRef:   original,
		ScreenshotRef: screenshot,
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if report.MatchPercentage != 100.0 {
		t.Errorf("Expected 100.00%% match, got %.2f%%", report.MatchPercentage)
	}
	if report.DiffPixels != 0 || report.MatchedPixels != 100 || report.TotalPixels != 100 {
		t.Errorf("Expected 0/100/100 pixel counts, got %d/%d/%d",
			report.DiffPixels, report.MatchedPixels, report.TotalPixels)
	}
	if !report.Passed {
		t.Error("Expected a passing verdict")
	}
	if report.Band != "excellent" {
		t.Errorf("Expected excellent band, got %q", report.Band)
	}
	if report.SizeMismatch {
		t.Error("Expected no size mismatch")
	}

	// The diff artifact lands at <outputDir>/diff.png and decodes back to
	// the compared region's dimensions.
	wantPath := filepath.Join(cfg.OutputDir, DiffArtifactName)
	if report.DiffImagePath != wantPath {
		t.Errorf("Expected diff at %q, got %q", wantPath, report.DiffImagePath)
	}
	diff, err := raster.Load(report.DiffImagePath)
	if err != nil {
		t.Fatalf("Failed to load diff artifact: %v", err)
	}
	if diff.Bounds().Dx() != 10 || diff.Bounds().Dy() != 10 {
		t.Errorf("Expected 10x10 diff artifact, got %dx%d", diff.Bounds().Dx(), diff.Bounds().Dy())
	}
}

func TestCompare_SinglePixelDifference(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	red := color.RGBA{255, 0, 0, 255}
	original := writeTestImage(t, dir, "original.png", 4, 4, red)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, red)
		}
	}
	img.SetRGBA(2, 1, color.RGBA{0, 0, 255, 255})
	screenshot := filepath.Join(dir, "screenshot.png")
	if err := raster.SavePNG(img, screenshot); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	report, err := svc.Compare(context.Background(), models.CompareRequest{
		OriginalRef:   original,
		ScreenshotRef: screenshot,
		Tolerance:     floatPtr(0),
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if report.DiffPixels != 1 || report.TotalPixels != 16 {
		t.Errorf("Expected 1 differing pixel out of 16, got %d/%d", report.DiffPixels, report.TotalPixels)
	}
	if report.MatchPercentage != 93.75 {
		t.Errorf("Expected 93.75%% match, got %.2f%%", report.MatchPercentage)
	}
	if report.DiffPercentage != 6.25 {
		t.Errorf("Expected 6.25%% diff, got %.2f%%", report.DiffPercentage)
	}
	if report.Passed {
		t.Error("Expected a failing verdict below the 95%% acceptance threshold")
	}
	if report.Band != "acceptable" {
		t.Errorf("Expected acceptable band, got %q", report.Band)
	}
}

func TestCompare_SizeMismatchIsRecoverable(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	white := color.RGBA{255, 255, 255, 255}
	original := writeTestImage(t, dir, "original.png", 6, 4, white)
	screenshot := writeTestImage(t, dir, "screenshot.png", 8, 4, white)

	report, err := svc.Compare(context.Background(), models.CompareRequest{
		OriginalRef:   original,
		ScreenshotRef: screenshot,
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	if !report.SizeMismatch {
		t.Error("Expected the size mismatch to be recorded")
	}
	if report.Region.Width != 6 || report.Region.Height != 4 {
		t.Errorf("Expected 6x4 region, got %dx%d", report.Region.Width, report.Region.Height)
	}
	if report.TotalPixels != 24 {
		t.Errorf("Expected 24 total pixels, got %d", report.TotalPixels)
	}
	if report.MatchPercentage != 100.0 || !report.Passed {
		t.Errorf("Expected a passing 100%% match over the overlap, got %.2f%% passed=%v",
			report.MatchPercentage, report.Passed)
	}
	if report.OriginalSize.Width != 6 || report.ScreenshotSize.Width != 8 {
		t.Errorf("Expected recorded widths 6 and 8, got %d and %d",
			report.OriginalSize.Width, report.ScreenshotSize.Width)
	}
}

func TestCompare_ExplicitOutputDir(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	white := color.RGBA{255, 255, 255, 255}
	original := writeTestImage(t, dir, "original.png", 3, 3, white)
	screenshot := writeTestImage(t, dir, "screenshot.png", 3, 3, white)

	outputDir := filepath.Join(t.TempDir(), "artifacts", "run-1")
	report, err := svc.Compare(context.Background(), models.CompareRequest{
		OriginalRef:   original,
		ScreenshotRef: screenshot,
		OutputDir:     outputDir,
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	wantPath := filepath.Join(outputDir, DiffArtifactName)
	if report.DiffImagePath != wantPath {
		t.Errorf("Expected diff at %q, got %q", wantPath, report.DiffImagePath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("Expected diff artifact on disk: %v", err)
	}
}

func TestCompare_InvalidInputs(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	white := color.RGBA{255, 255, 255, 255}
	original := writeTestImage(t, dir, "original.png", 2, 2, white)
	screenshot := writeTestImage(t, dir, "screenshot.png", 2, 2, white)

	tests := []struct {
		name     string
		req      models.CompareRequest
		wantType apperrors.ErrorType
	}{
		{
			name: "tolerance above range",
			req: models.CompareRequest{
				OriginalRef:   original,
				ScreenshotRef: screenshot,
				Tolerance:     floatPtr(1.5),
			},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "negative tolerance",
			req: models.CompareRequest{
				OriginalRef:   original,
				ScreenshotRef: screenshot,
				Tolerance:     floatPtr(-0.2),
			},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "unknown strategy",
			req: models.CompareRequest{
				OriginalRef:   original,
				ScreenshotRef: screenshot,
				Strategy:      "fuzzy",
			},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "empty original reference",
			req: models.CompareRequest{
				OriginalRef:   "",
				ScreenshotRef: screenshot,
			},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "missing screenshot file",
			req: models.CompareRequest{
				OriginalRef:   original,
				ScreenshotRef: filepath.Join(dir, "does-not-exist.png"),
			},
			wantType: apperrors.ErrorTypeDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Compare(context.Background(), tt.req)
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got: %v", tt.wantType, err)
			}
		})
	}
}

func TestCompare_ExactStrategy(t *testing.T) {
	svc, _ := newTestService(t)
	dir := t.TempDir()
	gray := color.RGBA{100, 100, 100, 255}
	original := writeTestImage(t, dir, "original.png", 3, 3, gray)

	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, gray)
		}
	}
	img.SetRGBA(0, 0, color.RGBA{101, 100, 100, 255})
	screenshot := filepath.Join(dir, "screenshot.png")
	if err := raster.SavePNG(img, screenshot); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	// A one-unit channel change survives a generous tolerance under the
	// exact strategy.
	report, err := svc.Compare(context.Background(), models.CompareRequest{
		OriginalRef:   original,
		ScreenshotRef: screenshot,
		Strategy:      "exact",
		Tolerance:     floatPtr(1),
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if report.Strategy != "exact" {
		t.Errorf("Expected exact strategy on the report, got %q", report.Strategy)
	}
	if report.DiffPixels != 1 {
		t.Errorf("Expected 1 differing pixel, got %d", report.DiffPixels)
	}
}

func TestCompareBatch_IsolatesFailures(t *testing.T) {
	svc, cfg := newTestService(t)
	dir := t.TempDir()
	white := color.RGBA{255, 255, 255, 255}
	original := writeTestImage(t, dir, "original.png", 5, 5, white)
	screenshot := writeTestImage(t, dir, "screenshot.png", 5, 5, white)

	reqs := []models.CompareRequest{
		{OriginalRef: original, ScreenshotRef: screenshot},
		{OriginalRef: original, ScreenshotRef: filepath.Join(dir, "missing.png")},
		{OriginalRef: original, ScreenshotRef: screenshot},
	}

	results := svc.CompareBatch(context.Background(), reqs)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Index != i {
			t.Errorf("Expected result %d to carry index %d, got %d", i, i, res.Index)
		}
	}

	if results[0].Error != "" || results[2].Error != "" {
		t.Errorf("Expected healthy pairs to succeed, got errors %q and %q",
			results[0].Error, results[2].Error)
	}
	if results[1].Error == "" {
		t.Error("Expected the pair with a missing screenshot to report an error")
	}

	// Pairs without an explicit output directory get isolated artifact
	// subdirectories.
	for _, i := range []int{0, 2} {
		wantPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("pair-%d", i), DiffArtifactName)
		if results[i].Report == nil {
			t.Fatalf("Expected a report for pair %d", i)
		}
		if results[i].Report.DiffImagePath != wantPath {
			t.Errorf("Expected pair %d diff at %q, got %q", i, wantPath, results[i].Report.DiffImagePath)
		}
		if _, err := os.Stat(wantPath); err != nil {
			t.Errorf("Expected pair %d diff artifact on disk: %v", i, err)
		}
	}
}

func TestCompareBatch_ConcurrentBatchesOnSharedService(t *testing.T) {
	// One service instance serves every caller, so batches overlap in
	// flight. Each batch must complete with its own synchronization
	// untouched by the others.
	svc, _ := newTestService(t)
	dir := t.TempDir()
	white := color.RGBA{255, 255, 255, 255}
	original := writeTestImage(t, dir, "original.png", 4, 4, white)
	screenshot := writeTestImage(t, dir, "screenshot.png", 4, 4, white)

	outputRoot := t.TempDir()
	var callers sync.WaitGroup
	errs := make(chan string, 8*20)
	for g := 0; g < 8; g++ {
		g := g
		callers.Add(1)
		go func() {
			defer callers.Done()
			for i := 0; i < 20; i++ {
				reqs := []models.CompareRequest{{
					OriginalRef:   original,
					ScreenshotRef: screenshot,
					OutputDir:     filepath.Join(outputRoot, fmt.Sprintf("caller-%d-run-%d", g, i)),
				}}
				results := svc.CompareBatch(context.Background(), reqs)
				if len(results) != 1 {
					errs <- fmt.Sprintf("caller %d run %d: expected 1 result, got %d", g, i, len(results))
					continue
				}
				if results[0].Error != "" {
					errs <- fmt.Sprintf("caller %d run %d: %s", g, i, results[0].Error)
				}
			}
		}()
	}
	callers.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestValidateSourceRef_DelegatesToRepository(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.ValidateSourceRef("https://assets.example.com/design.png"); err != nil {
		t.Errorf("Expected remote ref to validate, got: %v", err)
	}
	if err := svc.ValidateSourceRef(""); err == nil {
		t.Error("Expected empty ref to be rejected")
	}
}
