package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portfolio/models"
)

type CreateAlbumResult struct {
	Album         *models.Album
	UploadedCount int // images + cover
	Warnings      []string
}

type DeleteAlbumResult struct {
	DeletedImages int // images + cover
	Warnings      []string
}

// CreateAlbum uploads the cover, then the images in batches, and saves the album
// with whatever images made it. Images that failed are reported as warnings.
func (p *Pipeline) CreateAlbum(ctx context.Context, in AlbumInput) (result *CreateAlbumResult, err error) {
	started := time.Now()
	warnings := []string{}
	defer func() { observe("create_album", started, err, len(warnings)) }()

	cover, images, err := p.cfg.Limits.ValidateAlbum(in)
	if err != nil {
		return nil, err
	}
	log := p.log.With().Str("operation", "create_album").Str("title", in.Title).Logger()

	var coverAsset models.MediaAsset
	err = p.retry(ctx, "upload_cover", func(int) error {
		var err error
		coverAsset, err = p.store(ctx, cover)
		return err
	})
	if err != nil {
		return nil, p.failure(ctx, "Failed to upload cover image", err, nil)
	}

	outcomes, batchErr := inBatches(ctx, p, "upload_images", images, p.store)
	assets := make([]models.MediaAsset, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn().Err(o.Err).Str("file", images[o.Index].Name).Msg("image upload failed")
			warnings = append(warnings, fmt.Sprintf("Failed to upload image %s", images[o.Index].Name))
			continue
		}
		assets = append(assets, o.Value)
	}
	uploaded := append([]models.MediaAsset{coverAsset}, assets...)

	if batchErr != nil {
		if ctx.Err() != nil {
			return nil, p.failure(ctx, "Failed to upload album images", batchErr, warnings)
		}
		warnings = append(warnings, p.cleanup(ctx, uploaded)...)
		return nil, p.failure(ctx, "Failed to upload album images", batchErr, warnings)
	}
	if len(assets) == 0 {
		warnings = append(warnings, p.cleanup(ctx, uploaded)...)
		return nil, p.failure(ctx, "Failed to upload any images", nil, warnings)
	}

	album := &models.Album{
		Title:      strings.TrimSpace(in.Title),
		Date:       strings.TrimSpace(in.Date),
		CoverImage: coverAsset,
		Images:     models.NewAlbumImages(assets),
	}
	if err = p.records.CreateAlbum(ctx, album); err != nil {
		if ctx.Err() == nil {
			warnings = append(warnings, p.cleanup(ctx, uploaded)...)
		}
		return nil, p.failure(ctx, "Failed to save album", err, warnings)
	}
	log.Info().Uint64("album_id", album.ID).Int("images", len(assets)).Int("warnings", len(warnings)).Msg("album created")
	return &CreateAlbumResult{Album: album, UploadedCount: len(assets) + 1, Warnings: warnings}, nil
}

// UpdateAlbum saves title and date, replaces the cover when a new one is given
// and appends new images. Unlike create and delete it makes a single attempt per
// media call: the old cover is removed before the new one is uploaded, and new
// images are all-or-nothing. Once a new cover is stored it is saved with the
// title and date even if the images or the full record update fail.
func (p *Pipeline) UpdateAlbum(ctx context.Context, in AlbumInput) (album *models.Album, err error) {
	started := time.Now()
	defer func() { observe("update_album", started, err, 0) }()

	cover, images, err := p.cfg.Limits.ValidateAlbumUpdate(in)
	if err != nil {
		return nil, err
	}
	album, err = p.records.FindAlbum(ctx, in.ID)
	if err != nil {
		return nil, notFound(err, "album", in.ID)
	}
	album.Title = strings.TrimSpace(in.Title)
	album.Date = strings.TrimSpace(in.Date)

	if cover != nil {
		if err = p.remove(ctx, album.CoverImage.StorageID); err != nil {
			return nil, p.failure(ctx, "Failed to delete old cover image", err, nil)
		}
		asset, err := p.store(ctx, *cover)
		if err != nil {
			return nil, p.failure(ctx, "Failed to upload cover image", err, nil)
		}
		album.CoverImage = asset
	}
	// abandon drops the appended images and keeps a replaced cover referenced.
	abandon := func(appended []models.MediaAsset) []string {
		if ctx.Err() != nil {
			return nil
		}
		warnings := p.cleanup(ctx, appended)
		if cover != nil {
			warnings = append(warnings, p.keepCover(ctx, album)...)
		}
		return warnings
	}

	var appended []models.MediaAsset
	if len(images) > 0 {
		outcomes, err := settleAll(ctx, images, p.store)
		if err != nil {
			return nil, p.failure(ctx, "Failed to upload images", err, abandon(nil))
		}
		var failed error
		for _, o := range outcomes {
			if o.Err != nil {
				if failed == nil {
					failed = fmt.Errorf("%s: %w", images[o.Index].Name, o.Err)
				}
				continue
			}
			appended = append(appended, o.Value)
		}
		if failed != nil {
			return nil, p.failure(ctx, "Failed to upload images", failed, abandon(appended))
		}
	}

	if err = p.records.UpdateAlbum(ctx, album, appended); err != nil {
		return nil, p.failure(ctx, "Failed to update album", err, abandon(appended))
	}
	p.log.Info().Uint64("album_id", album.ID).Int("appended", len(appended)).Bool("cover_replaced", cover != nil).Msg("album updated")
	return album, nil
}

// keepCover saves the album without new images so the record points at the
// cover that replaced the removed one.
func (p *Pipeline) keepCover(ctx context.Context, album *models.Album) []string {
	if err := p.records.UpdateAlbum(ctx, album, nil); err != nil {
		p.log.Error().Err(err).Uint64("album_id", album.ID).Str("storage_id", album.CoverImage.StorageID).Msg("cannot save new cover")
		return []string{fmt.Sprintf("Failed to save new cover image %s", album.CoverImage.StorageID)}
	}
	return nil
}

// DeleteAlbum removes the cover first. Only when that succeeds are the images
// removed and the album record deleted; a failed image removal is a warning.
func (p *Pipeline) DeleteAlbum(ctx context.Context, id uint64) (result *DeleteAlbumResult, err error) {
	started := time.Now()
	warnings := []string{}
	defer func() { observe("delete_album", started, err, len(warnings)) }()

	if id == 0 {
		return nil, invalid("Missing album id")
	}
	album, err := p.records.FindAlbum(ctx, id)
	if err != nil {
		return nil, notFound(err, "album", id)
	}
	log := p.log.With().Str("operation", "delete_album").Uint64("album_id", id).Logger()

	err = p.retry(ctx, "delete_cover", func(attempt int) error {
		err := p.remove(ctx, album.CoverImage.StorageID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Attempt %d: failed to delete cover image: %v", attempt, err))
		}
		return err
	})
	if err != nil {
		return nil, p.failure(ctx, "Failed to delete cover image", err, warnings)
	}
	warnings = warnings[:0]

	assets := album.Assets()
	outcomes, batchErr := inBatches(ctx, p, "delete_images", assets, func(ctx context.Context, a models.MediaAsset) (struct{}, error) {
		return struct{}{}, p.remove(ctx, a.StorageID)
	})
	if batchErr != nil {
		if ctx.Err() != nil {
			return nil, p.failure(ctx, "Failed to delete album images", batchErr, warnings)
		}
		log.Error().Err(batchErr).Msg("image batch failed, continuing with the album record")
	}
	deleted := 1
	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn().Err(o.Err).Str("storage_id", assets[o.Index].StorageID).Msg("image delete failed")
			warnings = append(warnings, fmt.Sprintf("Failed to delete image %s", assets[o.Index].StorageID))
			continue
		}
		deleted++
	}
	for _, a := range assets[len(outcomes):] {
		warnings = append(warnings, fmt.Sprintf("Failed to delete image %s", a.StorageID))
	}

	if err = p.records.DeleteAlbum(ctx, id); err != nil {
		return nil, p.failure(ctx, "Failed to delete album record", notFound(err, "album", id), warnings)
	}
	log.Info().Int("deleted_images", deleted).Int("warnings", len(warnings)).Msg("album deleted")
	return &DeleteAlbumResult{DeletedImages: deleted, Warnings: warnings}, nil
}
