package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visualdiff/image-diff-go/internal/config"
	"github.com/visualdiff/image-diff-go/internal/differ"
	apperrors "github.com/visualdiff/image-diff-go/internal/errors"
	"github.com/visualdiff/image-diff-go/internal/logger"
	"github.com/visualdiff/image-diff-go/internal/observer"
	"github.com/visualdiff/image-diff-go/internal/raster"
	"github.com/visualdiff/image-diff-go/internal/repository"
	"github.com/visualdiff/image-diff-go/pkg/models"
	"github.com/visualdiff/image-diff-go/pkg/validation"
)

// DiffArtifactName is the fixed file name of the persisted diff image.
const DiffArtifactName = "diff.png"

// CompareService orchestrates one comparison run: resolve both sources,
// align them to their shared region, run the comparator, persist the diff
// artifact and assemble the report.
type CompareService interface {
	Compare(ctx context.Context, req models.CompareRequest) (*models.ComparisonReport, error)

	// CompareBatch runs independent pairs concurrently. Pairs are isolated:
	// one failing pair never aborts the rest.
	CompareBatch(ctx context.Context, reqs []models.CompareRequest) []models.BatchItemResult

	ValidateSourceRef(ref string) error
}

type compareService struct {
	sources repository.SourceRepository
	match   *validation.MatchValidator
	cfg     *config.Config
	events  observer.Subject
	pool    *WorkerPool
}

// NewCompareService creates a comparison service.
func NewCompareService(
	sources repository.SourceRepository,
	match *validation.MatchValidator,
	cfg *config.Config,
	events observer.Subject,
) CompareService {
	pool := NewWorkerPool(0)
	pool.Start()

	return &compareService{
		sources: sources,
		match:   match,
		cfg:     cfg,
		events:  events,
		pool:    pool,
	}
}

// Compare performs a single comparison run. The operation is deterministic
// for fixed inputs and tolerance, and performs exactly one filesystem
// write: the diff artifact (plus creating its directory).
func (s *compareService) Compare(ctx context.Context, req models.CompareRequest) (*models.ComparisonReport, error) {
	if s.cfg.CompareTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CompareTimeout)
		defer cancel()
	}

	start := time.Now()
	s.notify(ctx, observer.ComparisonStarted, req, start, true, "", nil)

	tolerance := s.cfg.Tolerance
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}
	if tolerance < 0 || tolerance > 1 {
		return nil, s.fail(ctx, req, start,
			apperrors.NewValidationError(fmt.Sprintf("tolerance must be within [0,1], got %v", tolerance), nil))
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.cfg.Strategy
	}
	cmp, err := differ.NewComparator(strategy)
	if err != nil {
		return nil, s.fail(ctx, req, start, apperrors.NewValidationError("invalid comparison strategy", err))
	}

	if err := s.ValidateSourceRef(req.OriginalRef); err != nil {
		return nil, s.fail(ctx, req, start, err)
	}
	if err := s.ValidateSourceRef(req.ScreenshotRef); err != nil {
		return nil, s.fail(ctx, req, start, err)
	}

	original, err := s.fetchSource(ctx, req.OriginalRef, "original")
	if err != nil {
		return nil, s.fail(ctx, req, start, err)
	}
	screenshot, err := s.fetchSource(ctx, req.ScreenshotRef, "screenshot")
	if err != nil {
		return nil, s.fail(ctx, req, start, err)
	}

	result, err := differ.New(cmp).Diff(original, screenshot, tolerance)
	if err != nil {
		return nil, s.fail(ctx, req, start, err)
	}

	if result.SizeMismatch {
		logger.WithFields(logrus.Fields{
			"original_size":   fmt.Sprintf("%dx%d", result.OriginalSize.X, result.OriginalSize.Y),
			"screenshot_size": fmt.Sprintf("%dx%d", result.ScreenshotSize.X, result.ScreenshotSize.Y),
			"region":          fmt.Sprintf("%dx%d", result.RegionWidth, result.RegionHeight),
		}).Warn("Image dimensions differ; comparing the top-left overlap only")
	}

	total := result.TotalPixels()
	matched := total - result.DiffCount
	matchPct := 100.0
	if total > 0 {
		matchPct = roundTo2(float64(matched) / float64(total) * 100.0)
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.cfg.OutputDir
	}
	diffPath := filepath.Join(outputDir, DiffArtifactName)
	if err := raster.SavePNG(result.DiffImage, diffPath); err != nil {
		return nil, s.fail(ctx, req, start, err)
	}
	s.notify(ctx, observer.ArtifactWritten, req, start, true, "", map[string]interface{}{
		"diff_image_path": diffPath,
	})

	assessment := s.match.Assess(matchPct)

	report := &models.ComparisonReport{
		OriginalRef:   req.OriginalRef,
		ScreenshotRef: req.ScreenshotRef,
		Timestamp:     start,
		Region: models.ComparisonRegion{
			Width:  result.RegionWidth,
			Height: result.RegionHeight,
		},
		OriginalSize:      models.Dimensions{Width: result.OriginalSize.X, Height: result.OriginalSize.Y},
		ScreenshotSize:    models.Dimensions{Width: result.ScreenshotSize.X, Height: result.ScreenshotSize.Y},
		SizeMismatch:      result.SizeMismatch,
		TotalPixels:       total,
		DiffPixels:        result.DiffCount,
		MatchedPixels:     matched,
		MatchPercentage:   matchPct,
		DiffPercentage:    roundTo2(100.0 - matchPct),
		Strategy:          cmp.Name(),
		Tolerance:         tolerance,
		Band:              assessment.Band,
		Hints:             assessment.Hints,
		Passed:            assessment.Passed,
		DiffImagePath:     diffPath,
		ProcessingTimeSec: time.Since(start).Seconds(),
	}

	s.notify(ctx, observer.ComparisonCompleted, req, start, true, "", map[string]interface{}{
		"match_percentage": report.MatchPercentage,
		"diff_pixels":      report.DiffPixels,
		"band":             report.Band,
		"passed":           report.Passed,
	})
	return report, nil
}

// CompareBatch runs the pairs on the worker pool. Pairs without an explicit
// output directory get a per-pair subdirectory so their artifacts cannot
// collide.
//
// Each invocation owns its completion state: the pool is shared by every
// concurrent caller and only queues the work, so overlapping batches never
// touch each other's synchronization.
func (s *compareService) CompareBatch(ctx context.Context, reqs []models.CompareRequest) []models.BatchItemResult {
	results := make([]models.BatchItemResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		if req.OutputDir == "" {
			req.OutputDir = filepath.Join(s.cfg.OutputDir, fmt.Sprintf("pair-%d", i))
		}
		wg.Add(1)
		s.pool.Submit(func() {
			defer wg.Done()
			report, err := s.Compare(ctx, req)
			results[i] = models.BatchItemResult{Index: i, Report: report}
			if err != nil {
				results[i].Error = err.Error()
			}
		})
	}

	wg.Wait()
	return results
}

// ValidateSourceRef validates a source reference without fetching it.
func (s *compareService) ValidateSourceRef(ref string) error {
	return s.sources.ValidateSourceRef(ref)
}

// fetchSource resolves one input image, normalizing failures into the
// error taxonomy: decode errors pass through, timeouts and transport
// problems are wrapped.
func (s *compareService) fetchSource(ctx context.Context, ref, role string) (image.Image, error) {
	img, err := s.sources.FetchImage(ctx, ref)
	if err == nil {
		return img, nil
	}

	if s.events != nil {
		s.events.NotifyObservers(ctx, observer.ComparisonEvent{
			EventType:    observer.SourceFetchFailed,
			Timestamp:    time.Now(),
			Success:      false,
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{"role": role, "ref": ref},
		})
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return nil, appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, apperrors.NewTimeoutError(fmt.Sprintf("timed out fetching %s image %q", role, ref), err)
	}
	return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to fetch %s image %q", role, ref), err)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *compareService) notify(ctx context.Context, eventType observer.EventType, req models.CompareRequest, start time.Time, success bool, errMsg string, metadata map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, observer.ComparisonEvent{
		EventType:      eventType,
		Timestamp:      time.Now(),
		OriginalRef:    req.OriginalRef,
		ScreenshotRef:  req.ScreenshotRef,
		ProcessingTime: time.Since(start),
		Success:        success,
		ErrorMessage:   errMsg,
		Metadata:       metadata,
	})
}

func (s *compareService) fail(ctx context.Context, req models.CompareRequest, start time.Time, err error) error {
	s.notify(ctx, observer.ComparisonFailed, req, start, false, err.Error(), nil)
	return err
}
