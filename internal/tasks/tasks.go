package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicmgr/internal/models"
	"github.com/desertthunder/musicmgr/internal/services"
	"github.com/desertthunder/musicmgr/internal/shared"
	"github.com/desertthunder/musicmgr/internal/titles"
	"golang.org/x/time/rate"
)

// EngineOpts configures a [PlaylistEngine].
type EngineOpts struct {
	Service    services.Service
	Normalizer *titles.Normalizer // defaults to [titles.Default]
	RateLimit  float64            // searches per second, 0 disables pacing
	Logger     *log.Logger
}

// PlaylistEngine runs playlist operations against a single music service.
type PlaylistEngine struct {
	service    services.Service
	normalizer *titles.Normalizer
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine from opts.
func NewPlaylistEngine(opts EngineOpts) *PlaylistEngine {
	if opts.Normalizer == nil {
		opts.Normalizer = titles.Default()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &PlaylistEngine{
		service:    opts.Service,
		normalizer: opts.Normalizer,
		limiter:    limiter,
		logger:     opts.Logger,
	}
}

// Normalizer returns the normalizer used for matching and comparison.
func (e *PlaylistEngine) Normalizer() *titles.Normalizer {
	return e.normalizer
}

func (e *PlaylistEngine) requireService() error {
	if e.service == nil {
		return fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// search waits for the limiter and runs one query.
func (e *PlaylistEngine) search(ctx context.Context, query string) ([]models.Track, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSearchFailed, err)
	}

	candidates, err := e.service.FindTrack(ctx, query)
	if err != nil {
		if !errors.Is(err, shared.ErrSearchFailed) {
			err = fmt.Errorf("%w: %v", shared.ErrSearchFailed, err)
		}
		return nil, err
	}
	return candidates, nil
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func uniqueIDs(ids []string) []string {
	out, _ := titles.DedupeBy(ids, func(id string) string { return id })
	return out
}
