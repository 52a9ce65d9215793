package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// File is an incoming upload. Open may be called more than once.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// AlbumInput is the payload of album create (ID unset) and update requests.
type AlbumInput struct {
	ID     uint64
	Title  string
	Date   string
	Cover  *File
	Images []File
}

// Upload is a File that passed validation.
type Upload struct {
	File
	ContentType string
}

func (u Upload) read(limit int64) ([]byte, error) {
	r, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", u.Name, err)
	}
	defer r.Close()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is larger than %d bytes", u.Name, limit)
	}
	return data, nil
}

func formatBytes(n int64) string {
	const mb = 1 << 20
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}

func (l Limits) inspect(f File) (Upload, error) {
	if strings.TrimSpace(f.Name) == "" {
		return Upload{}, invalid("Every file must have a name")
	}
	if f.Size > l.MaxFileBytes {
		return Upload{}, invalid(fmt.Sprintf("File %s exceeds the maximum size of %s", f.Name, formatBytes(l.MaxFileBytes)))
	}
	if f.Open == nil {
		return Upload{}, invalid(fmt.Sprintf("File %s cannot be read", f.Name))
	}
	r, err := f.Open()
	if err != nil {
		return Upload{}, invalid(fmt.Sprintf("File %s cannot be read", f.Name))
	}
	defer r.Close()
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return Upload{}, invalid(fmt.Sprintf("File %s cannot be read", f.Name))
	}
	contentType := mime.String()
	if !allowedMIMEs[contentType] {
		return Upload{}, invalid(fmt.Sprintf("File %s has unsupported type %s (allowed: jpeg, png, gif, webp)", f.Name, contentType))
	}
	return Upload{File: f, ContentType: contentType}, nil
}

func (l Limits) checkTitle(title string) error {
	if len([]rune(strings.TrimSpace(title))) < l.MinTitleLength {
		return invalid(fmt.Sprintf("Title must be at least %d characters long", l.MinTitleLength))
	}
	return nil
}

// inspectAll validates files and the total payload (cover included).
func (l Limits) inspectAll(cover *File, images []File) (*Upload, []Upload, error) {
	if l.MaxAlbumImages > 0 && len(images) > l.MaxAlbumImages {
		return nil, nil, invalid(fmt.Sprintf("Too many images (max %d)", l.MaxAlbumImages))
	}
	var total int64
	var coverUpload *Upload
	if cover != nil {
		total += cover.Size
		u, err := l.inspect(*cover)
		if err != nil {
			return nil, nil, err
		}
		coverUpload = &u
	}
	uploads := make([]Upload, 0, len(images))
	for _, f := range images {
		total += f.Size
		u, err := l.inspect(f)
		if err != nil {
			return nil, nil, err
		}
		uploads = append(uploads, u)
	}
	if total > l.MaxAlbumBytes {
		return nil, nil, invalid(fmt.Sprintf("Total upload size exceeds the maximum of %s", formatBytes(l.MaxAlbumBytes)))
	}
	return coverUpload, uploads, nil
}

// ValidateAlbum checks a create request: title, date, cover and at least one image.
func (l Limits) ValidateAlbum(in AlbumInput) (Upload, []Upload, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Date) == "" || in.Cover == nil || len(in.Images) == 0 {
		return Upload{}, nil, invalid("Missing required fields")
	}
	if err := l.checkTitle(in.Title); err != nil {
		return Upload{}, nil, err
	}
	cover, images, err := l.inspectAll(in.Cover, in.Images)
	if err != nil {
		return Upload{}, nil, err
	}
	return *cover, images, nil
}

// ValidateAlbumUpdate checks an update request. Cover and images are optional.
func (l Limits) ValidateAlbumUpdate(in AlbumInput) (*Upload, []Upload, error) {
	if in.ID == 0 || strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Date) == "" {
		return nil, nil, invalid("Missing required fields")
	}
	if err := l.checkTitle(in.Title); err != nil {
		return nil, nil, err
	}
	return l.inspectAll(in.Cover, in.Images)
}

// ValidateImage checks a standalone image upload.
func (l Limits) ValidateImage(f *File) (Upload, error) {
	if f == nil {
		return Upload{}, invalid("No file provided")
	}
	return l.inspect(*f)
}
