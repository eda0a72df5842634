package container

import (
	"net/http"

	"github.com/visualdiff/image-diff-go/internal/config"
	"github.com/visualdiff/image-diff-go/internal/logger"
	"github.com/visualdiff/image-diff-go/internal/observer"
	"github.com/visualdiff/image-diff-go/internal/repository"
	"github.com/visualdiff/image-diff-go/internal/service"
	"github.com/visualdiff/image-diff-go/internal/storage"
	"github.com/visualdiff/image-diff-go/internal/transport"
	"github.com/visualdiff/image-diff-go/pkg/validation"
)

// Container holds all application dependencies for the API server.
type Container struct {
	config         *config.Config
	sourceRepo     repository.SourceRepository
	compareService service.CompareService
	metrics        *observer.MetricsObserver
	handler        http.Handler
}

// NewContainer wires the dependency graph for the API server. The server
// serves remote references only; the local filesystem backend stays out of
// the repository on purpose.
func NewContainer(cfg *config.Config) (*Container, error) {
	remote := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout)

	var blob storage.ImageFetcher
	if cfg.AzureAccountName != "" && cfg.AzureAccountKey != "" {
		var err error
		blob, err = storage.NewAzureBlobFetcher(cfg.AzureAccountName, cfg.AzureAccountKey)
		if err != nil {
			return nil, err
		}
	}

	sourceRepo := repository.NewSourceRepository(nil, remote, blob, validation.NewRemoteOnlySourceValidator())

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	matchValidator := validation.NewMatchValidator(cfg.AcceptanceThreshold)
	compareService := service.NewCompareService(sourceRepo, matchValidator, cfg, events)
	handler := transport.NewHandler(compareService, metrics, cfg)

	return &Container{
		config:         cfg,
		sourceRepo:     sourceRepo,
		compareService: compareService,
		metrics:        metrics,
		handler:        handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// CompareService returns the comparison service
func (c *Container) CompareService() service.CompareService {
	return c.compareService
}
