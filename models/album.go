package models

import (
	"context"

	"gorm.io/gorm"
)

type Album struct {
	ID         uint64       `gorm:"primaryKey" json:"id"`
	Title      string       `gorm:"type:varchar(300);not null" json:"title"`
	Date       string       `gorm:"type:varchar(100);not null" json:"date"`
	CoverImage MediaAsset   `gorm:"embedded;embeddedPrefix:cover_" json:"coverImage"`
	Images     []AlbumImage `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images"`
	CreatedAt  int64        `gorm:"index" json:"createdAt"`
}

// AlbumImage keeps the order in which images were added to an album.
type AlbumImage struct {
	ID         uint64 `gorm:"primaryKey" json:"-"`
	AlbumID    uint64 `gorm:"not null;index:album_order,priority:1" json:"-"`
	Position   int    `gorm:"not null;index:album_order,priority:2" json:"-"`
	MediaAsset `gorm:"embedded"`
}

func NewAlbumImages(assets []MediaAsset) []AlbumImage {
	result := make([]AlbumImage, 0, len(assets))
	for i, a := range assets {
		result = append(result, AlbumImage{Position: i, MediaAsset: a})
	}
	return result
}

// Assets returns the album images in order.
func (a *Album) Assets() []MediaAsset {
	result := make([]MediaAsset, 0, len(a.Images))
	for _, image := range a.Images {
		result = append(result, image.MediaAsset)
	}
	return result
}

func orderedImages(tx *gorm.DB) *gorm.DB {
	return tx.Order("album_images.position ASC")
}

func (s *Store) ListAlbums(ctx context.Context) ([]Album, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	albums := []Album{}
	err = conn.Preload("Images", orderedImages).Order("created_at DESC, id DESC").Find(&albums).Error
	return albums, err
}

func (s *Store) FindAlbum(ctx context.Context, id uint64) (*Album, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	album := Album{}
	if err = conn.Preload("Images", orderedImages).First(&album, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &album, nil
}

// CreateAlbum inserts the album together with its images.
func (s *Store) CreateAlbum(ctx context.Context, album *Album) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		return tx.Create(album).Error
	})
}

// UpdateAlbum saves title, date and cover and appends new images after the existing ones.
func (s *Store) UpdateAlbum(ctx context.Context, album *Album, appended []MediaAsset) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Album{ID: album.ID}).Updates(map[string]interface{}{
			"title":            album.Title,
			"date":             album.Date,
			"cover_url":        album.CoverImage.URL,
			"cover_storage_id": album.CoverImage.StorageID,
		}).Error
		if err != nil {
			return err
		}
		if len(appended) == 0 {
			return nil
		}
		var last struct{ Max *int }
		if err := tx.Model(&AlbumImage{}).Select("max(position) as max").Where("album_id = ?", album.ID).Scan(&last).Error; err != nil {
			return err
		}
		next := 0
		if last.Max != nil {
			next = *last.Max + 1
		}
		images := NewAlbumImages(appended)
		for i := range images {
			images[i].AlbumID = album.ID
			images[i].Position += next
		}
		if err := tx.Create(&images).Error; err != nil {
			return err
		}
		album.Images = append(album.Images, images...)
		return nil
	})
}

func (s *Store) DeleteAlbum(ctx context.Context, id uint64) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", id).Delete(&AlbumImage{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&Album{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
