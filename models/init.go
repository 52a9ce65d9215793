package models

import (
	"context"
	"errors"

	"portfolio/db"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Store is the record store for albums, standalone images and users.
// Every method goes through db.Client.Conn, so the connection is (re)opened on demand.
type Store struct {
	db *db.Client
}

func NewStore(client *db.Client) *Store {
	return &Store{db: client}
}

func Migrate(ctx context.Context, client *db.Client) error {
	conn, err := client.Conn(ctx)
	if err != nil {
		return err
	}
	return conn.AutoMigrate(&Album{}, &AlbumImage{}, &Image{}, &User{})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
