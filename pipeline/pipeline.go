package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio/config"
	"portfolio/metrics"
	"portfolio/models"
	"portfolio/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

type Limits struct {
	MaxFileBytes   int64
	MaxAlbumBytes  int64
	MaxAlbumImages int
	MinTitleLength int
}

type Config struct {
	Attempts      int           // total attempts per retried unit, including the first one
	Backoff       time.Duration // wait before retry n is n*Backoff
	BatchSize     int
	StoreTimeout  time.Duration
	RemoveTimeout time.Duration
	Limits        Limits
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Attempts:      cfg.Attempts,
		Backoff:       cfg.RetryBackoff,
		BatchSize:     cfg.BatchSize,
		StoreTimeout:  cfg.StoreTimeout,
		RemoveTimeout: cfg.RemoveTimeout,
		Limits: Limits{
			MaxFileBytes:   cfg.MaxFileBytes,
			MaxAlbumBytes:  cfg.MaxAlbumBytes,
			MaxAlbumImages: cfg.MaxAlbumImages,
			MinTitleLength: cfg.MinTitleLength,
		},
	}
}

// Records is the part of the record store used by the pipeline.
type Records interface {
	FindAlbum(ctx context.Context, id uint64) (*models.Album, error)
	CreateAlbum(ctx context.Context, album *models.Album) error
	UpdateAlbum(ctx context.Context, album *models.Album, appended []models.MediaAsset) error
	DeleteAlbum(ctx context.Context, id uint64) error
	FindImage(ctx context.Context, id uint64) (*models.Image, error)
	CreateImage(ctx context.Context, image *models.Image) error
	DeleteImage(ctx context.Context, id uint64) error
}

var _ Records = (*models.Store)(nil)

// Pipeline moves media between the request, the media store and the record store.
// One call owns its operation until it returns; nothing is shared between calls.
type Pipeline struct {
	cfg      Config
	media    storage.MediaStore
	records  Records
	log      zerolog.Logger
	newTimer func() backoff.Timer
}

func New(cfg Config, media storage.MediaStore, records Records, log zerolog.Logger) *Pipeline {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Pipeline{
		cfg:      cfg,
		media:    media,
		records:  records,
		log:      log.With().Str("component", "pipeline").Logger(),
		newTimer: func() backoff.Timer { return nil },
	}
}

// store uploads a single validated file.
func (p *Pipeline) store(ctx context.Context, u Upload) (models.MediaAsset, error) {
	data, err := u.read(p.cfg.Limits.MaxFileBytes)
	if err != nil {
		return models.MediaAsset{}, err
	}
	if p.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.StoreTimeout)
		defer cancel()
	}
	obj, err := p.media.Store(ctx, data, u.ContentType)
	metrics.ObserveMedia("store", err)
	if err != nil {
		return models.MediaAsset{}, err
	}
	return models.MediaAsset{URL: obj.URL, StorageID: obj.StorageID}, nil
}

// remove deletes a stored asset. An asset that is already gone counts as removed.
func (p *Pipeline) remove(ctx context.Context, storageID string) error {
	if storageID == "" {
		return nil
	}
	if p.cfg.RemoveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RemoveTimeout)
		defer cancel()
	}
	err := p.media.Remove(ctx, storageID)
	metrics.ObserveMedia("remove", err)
	if errors.Is(err, storage.ErrNotFound) {
		p.log.Debug().Str("storage_id", storageID).Msg("media already removed")
		return nil
	}
	return err
}

// cleanup removes assets uploaded by an operation that is being abandoned.
// It is best-effort: failures come back as warnings.
func (p *Pipeline) cleanup(ctx context.Context, assets []models.MediaAsset) []string {
	if len(assets) == 0 {
		return nil
	}
	warnings := []string{}
	outcomes, err := settleAll(ctx, assets, func(ctx context.Context, a models.MediaAsset) (struct{}, error) {
		return struct{}{}, p.remove(ctx, a.StorageID)
	})
	if err != nil {
		p.log.Error().Err(err).Int("assets", len(assets)).Msg("cleanup aborted")
		for _, a := range assets {
			warnings = append(warnings, fmt.Sprintf("Failed to clean up image %s", a.StorageID))
		}
		return warnings
	}
	for _, o := range outcomes {
		if o.Err != nil {
			storageID := assets[o.Index].StorageID
			p.log.Warn().Err(o.Err).Str("storage_id", storageID).Msg("cleanup failed")
			warnings = append(warnings, fmt.Sprintf("Failed to clean up image %s", storageID))
		}
	}
	return warnings
}

// failure turns err into the error returned to the caller. An expired request
// context wins: the outcome is unknown and nothing is compensated.
func (p *Pipeline) failure(ctx context.Context, message string, err error, warnings []string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.log.Error().Err(ctxErr).Strs("warnings", warnings).Msg(message + " (operation cut off)")
		return ctxErr
	}
	p.log.Error().Err(err).Strs("warnings", warnings).Msg(message)
	return &FailureError{Message: message, Warnings: warnings, Err: err}
}

func observe(operation string, started time.Time, err error, warnings int) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.PipelineDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
	if warnings > 0 {
		metrics.WarningsTotal.WithLabelValues(operation).Add(float64(warnings))
	}
}

func notFound(err error, what string, id uint64) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
