package pipeline

import (
	"context"
	"fmt"
	"time"

	"portfolio/models"
)

// UploadImage stores a standalone image and saves its record.
func (p *Pipeline) UploadImage(ctx context.Context, f *File) (image *models.Image, err error) {
	started := time.Now()
	defer func() { observe("upload_image", started, err, 0) }()

	u, err := p.cfg.Limits.ValidateImage(f)
	if err != nil {
		return nil, err
	}
	var asset models.MediaAsset
	err = p.retry(ctx, "upload_image", func(int) error {
		var err error
		asset, err = p.store(ctx, u)
		return err
	})
	if err != nil {
		return nil, p.failure(ctx, "Failed to upload image", err, nil)
	}
	image = &models.Image{StorageID: asset.StorageID, URL: asset.URL}
	if err = p.records.CreateImage(ctx, image); err != nil {
		var warnings []string
		if ctx.Err() == nil {
			warnings = p.cleanup(ctx, []models.MediaAsset{asset})
		}
		return nil, p.failure(ctx, "Failed to save image", err, warnings)
	}
	p.log.Info().Uint64("image_id", image.ID).Str("storage_id", image.StorageID).Msg("image uploaded")
	return image, nil
}

// DeleteImage removes the stored image and then its record. The record stays
// when the media store removal fails. An image already missing from the media
// store counts as removed, so its record is deleted and no error is returned.
func (p *Pipeline) DeleteImage(ctx context.Context, id uint64) (err error) {
	started := time.Now()
	warnings := []string{}
	defer func() { observe("delete_image", started, err, len(warnings)) }()

	if id == 0 {
		return invalid("Missing image id")
	}
	image, err := p.records.FindImage(ctx, id)
	if err != nil {
		return notFound(err, "image", id)
	}
	err = p.retry(ctx, "delete_image", func(attempt int) error {
		err := p.remove(ctx, image.StorageID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Attempt %d: failed to delete image: %v", attempt, err))
		}
		return err
	})
	if err != nil {
		return p.failure(ctx, "Failed to delete image", err, warnings)
	}
	if err = p.records.DeleteImage(ctx, id); err != nil {
		return p.failure(ctx, "Failed to delete image record", notFound(err, "image", id), nil)
	}
	p.log.Info().Uint64("image_id", id).Msg("image deleted")
	return nil
}
