package models

import (
	"context"
	"strconv"
)

// Image is a gallery image that does not belong to any album.
type Image struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	StorageID string `gorm:"type:varchar(300);not null;index" json:"storageId"`
	URL       string `gorm:"type:varchar(2000);not null" json:"url"`
	CreatedAt int64  `gorm:"index" json:"createdAt"`
}

func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	images := []Image{}
	err = conn.Order("created_at DESC, id DESC").Find(&images).Error
	return images, err
}

func (s *Store) FindImage(ctx context.Context, id uint64) (*Image, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	image := Image{}
	if err = conn.First(&image, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &image, nil
}

func (s *Store) CreateImage(ctx context.Context, image *Image) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	return conn.Create(image).Error
}

func (s *Store) DeleteImage(ctx context.Context, id uint64) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	result := conn.Delete(&Image{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ImagesVersion changes whenever an image is added or removed, used as ETag for the image list.
func (s *Store) ImagesVersion(ctx context.Context) (string, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return "", err
	}
	var v struct {
		Count int64
		MaxID *uint64
	}
	if err = conn.Model(&Image{}).Select("count(*) as count, max(id) as max_id").Scan(&v).Error; err != nil {
		return "", err
	}
	maxID := uint64(0)
	if v.MaxID != nil {
		maxID = *v.MaxID
	}
	return strconv.FormatInt(v.Count, 10) + "-" + strconv.FormatUint(maxID, 10), nil
}
