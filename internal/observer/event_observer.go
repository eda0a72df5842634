package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ComparisonEvent represents a lifecycle event of one comparison run
type ComparisonEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	OriginalRef    string                 `json:"original_ref"`
	ScreenshotRef  string                 `json:"screenshot_ref"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of comparison event
type EventType string

const (
	// ComparisonStarted when a comparison begins
	ComparisonStarted EventType = "comparison_started"
	// ComparisonCompleted when a comparison finishes successfully
	ComparisonCompleted EventType = "comparison_completed"
	// ComparisonFailed when a comparison fails
	ComparisonFailed EventType = "comparison_failed"
	// ArtifactWritten when the diff image is persisted
	ArtifactWritten EventType = "artifact_written"
	// SourceFetchFailed when an input image cannot be retrieved
	SourceFetchFailed EventType = "source_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ComparisonEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event ComparisonEvent)
}

// LoggingObserver logs comparison events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{logger: logger}
}

// OnEvent handles comparison events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ComparisonEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"original_ref":    event.OriginalRef,
		"screenshot_ref":  event.ScreenshotRef,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case ComparisonStarted:
		o.logger.WithFields(fields).Debug("Comparison started")
	case ComparisonCompleted:
		o.logger.WithFields(fields).Info("Comparison completed")
	case ComparisonFailed:
		o.logger.WithFields(fields).Error("Comparison failed")
	case ArtifactWritten:
		o.logger.WithFields(fields).Debug("Diff artifact written")
	case SourceFetchFailed:
		o.logger.WithFields(fields).Error("Source image fetch failed")
	default:
		o.logger.WithFields(fields).Info("Comparison event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects in-process counters from comparison events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalComparisons    int64
	passedComparisons   int64
	failedComparisons   int64
	artifactsWritten    int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles comparison events by updating counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event ComparisonEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ComparisonCompleted:
		o.totalComparisons++
		o.passedComparisons++
		o.totalProcessingTime += event.ProcessingTime
	case ComparisonFailed:
		o.totalComparisons++
		o.failedComparisons++
		o.totalProcessingTime += event.ProcessingTime
	case ArtifactWritten:
		o.artifactsWritten++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Metrics is a snapshot of the collected counters
type Metrics struct {
	TotalComparisons  int64         `json:"total_comparisons"`
	PassedComparisons int64         `json:"passed_comparisons"`
	FailedComparisons int64         `json:"failed_comparisons"`
	ArtifactsWritten  int64         `json:"artifacts_written"`
	AvgProcessingTime time.Duration `json:"avg_processing_time"`
}

// GetMetrics returns a snapshot of the collected counters
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		TotalComparisons:  o.totalComparisons,
		PassedComparisons: o.passedComparisons,
		FailedComparisons: o.failedComparisons,
		ArtifactsWritten:  o.artifactsWritten,
	}
	if o.totalComparisons > 0 {
		m.AvgProcessingTime = o.totalProcessingTime / time.Duration(o.totalComparisons)
	}
	return m
}

// eventPublisher implements Subject
type eventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &eventPublisher{}
}

// Subscribe registers an observer
func (p *eventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer by name
func (p *eventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, o := range p.observers {
		if o.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			return
		}
	}
}

// NotifyObservers delivers an event to every subscribed observer
func (p *eventPublisher) NotifyObservers(ctx context.Context, event ComparisonEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, o := range observers {
		o.OnEvent(ctx, event)
	}
}
