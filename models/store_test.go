package models

import (
	"context"
	"strings"
	"testing"

	"portfolio/db"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	client := db.NewWithDialector(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), zerolog.Nop())
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, Migrate(context.Background(), client))
	return NewStore(client)
}

func asset(id string) MediaAsset {
	return MediaAsset{URL: "https://media.example/" + id, StorageID: id}
}

func TestAlbumLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	album := &Album{
		Title:      "Wedding",
		Date:       "2024-06-01",
		CoverImage: asset("cover"),
		Images:     NewAlbumImages([]MediaAsset{asset("a"), asset("b")}),
	}
	require.NoError(t, s.CreateAlbum(ctx, album))
	require.NotZero(t, album.ID)

	found, err := s.FindAlbum(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wedding", found.Title)
	assert.Equal(t, asset("cover"), found.CoverImage)
	assert.Equal(t, []MediaAsset{asset("a"), asset("b")}, found.Assets())

	found.Title = "Wedding day"
	found.CoverImage = asset("cover2")
	require.NoError(t, s.UpdateAlbum(ctx, found, []MediaAsset{asset("c")}))

	updated, err := s.FindAlbum(ctx, album.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wedding day", updated.Title)
	assert.Equal(t, asset("cover2"), updated.CoverImage)
	assert.Equal(t, []MediaAsset{asset("a"), asset("b"), asset("c")}, updated.Assets())

	require.NoError(t, s.DeleteAlbum(ctx, album.ID))
	_, err = s.FindAlbum(ctx, album.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteAlbum(ctx, album.ID), ErrNotFound)
}

func TestListAlbumsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	for _, title := range []string{"First", "Second"} {
		require.NoError(t, s.CreateAlbum(ctx, &Album{
			Title:      title,
			Date:       "2024",
			CoverImage: asset(title + "-cover"),
			Images:     NewAlbumImages([]MediaAsset{asset(title + "-1")}),
		}))
	}
	albums, err := s.ListAlbums(ctx)
	require.NoError(t, err)
	require.Len(t, albums, 2)
	assert.Equal(t, "Second", albums[0].Title)
	assert.Len(t, albums[0].Images, 1)
}

func TestImageLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	image := &Image{StorageID: "x", URL: "https://media.example/x"}
	require.NoError(t, s.CreateImage(ctx, image))

	images, err := s.ListImages(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)

	found, err := s.FindImage(ctx, image.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", found.StorageID)

	require.NoError(t, s.DeleteImage(ctx, image.ID))
	_, err = s.FindImage(ctx, image.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteImage(ctx, image.ID), ErrNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.EnsureUser(ctx, "admin", "Admin@Example.com", "Admin@123")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.EnsureUser(ctx, "admin", "", "other-password")
	require.NoError(t, err)
	assert.False(t, created)

	user, err := s.Login(ctx, "admin", "Admin@123")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.NotEqual(t, "Admin@123", user.Password)

	_, err = s.Login(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", "Admin@123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewUserValidation(t *testing.T) {
	_, err := NewUser("ab", "", "secret1")
	assert.Error(t, err)
	_, err = NewUser("abc", "", "12345")
	assert.Error(t, err)
	u, err := NewUser(" abc ", "", "123456")
	require.NoError(t, err)
	assert.Equal(t, "abc", u.Username)
	assert.True(t, u.CheckPassword("123456"))
}

func TestImagesVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.ImagesVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0-0", empty)

	image := &Image{StorageID: "x", URL: "https://media.example/x"}
	require.NoError(t, s.CreateImage(ctx, image))
	one, err := s.ImagesVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, empty, one)

	require.NoError(t, s.DeleteImage(ctx, image.ID))
	gone, err := s.ImagesVersion(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, one, gone)
}
