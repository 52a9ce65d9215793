package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

type DiskStorage struct {
	// BasePath is a directory (usually mount point of a disk) that is writable by the current process
	BasePath  string
	PublicURL string
	Folder    string
	dirs      cmap.ConcurrentMap[string, bool]
	log       zerolog.Logger
}

func NewDiskStorage(basePath, publicURL, folder string, log zerolog.Logger) (*DiskStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(absPath, 0777); err != nil {
		return nil, err
	}
	return &DiskStorage{
		BasePath:  absPath,
		PublicURL: strings.TrimSuffix(publicURL, "/"),
		Folder:    folder,
		dirs:      cmap.New[bool](),
		log:       log.With().Str("component", "disk-storage").Logger(),
	}, nil
}

func (s *DiskStorage) createDir(dir string) error {
	if s.dirs.Has(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	s.dirs.Set(dir, true)
	return nil
}

// getFullPath maps a storage id to a file under BasePath, refusing ids that escape it.
func (s *DiskStorage) getFullPath(storageID string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(storageID))
	if clean == string(filepath.Separator) {
		return "", ErrNotFound
	}
	return filepath.Join(s.BasePath, clean), nil
}

func (s *DiskStorage) Store(ctx context.Context, data []byte, contentType string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, transient("store", err)
	}
	storageID := NewStorageID(s.Folder, contentType)
	fileName, err := s.getFullPath(storageID)
	if err != nil {
		return Object{}, transient("store", err)
	}
	if err = s.createDir(filepath.Dir(fileName)); err != nil {
		return Object{}, transient("store", err)
	}
	file, err := os.Create(fileName)
	if err != nil {
		return Object{}, transient("store", err)
	}
	_, err = io.Copy(file, bytes.NewReader(data))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fileName)
		return Object{}, transient("store", err)
	}
	return Object{
		URL:       s.PublicURL + "/" + storageID,
		StorageID: storageID,
	}, nil
}

func (s *DiskStorage) Remove(ctx context.Context, storageID string) error {
	if err := ctx.Err(); err != nil {
		return transient("remove", err)
	}
	fileName, err := s.getFullPath(storageID)
	if err != nil {
		return err
	}
	err = os.Remove(fileName)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return transient("remove", err)
}

// Serve writes the stored file to the response (handles byte ranges too).
func (s *DiskStorage) Serve(storageID string, request *http.Request, writer http.ResponseWriter) {
	fileName, err := s.getFullPath(storageID)
	if err != nil {
		http.NotFound(writer, request)
		return
	}
	if info, err := os.Stat(fileName); err != nil || info.IsDir() {
		http.NotFound(writer, request)
		return
	}
	http.ServeFile(writer, request, fileName)
}

// Load copies the stored file into writer.
func (s *DiskStorage) Load(storageID string, writer io.Writer) (int64, error) {
	fileName, err := s.getFullPath(storageID)
	if err != nil {
		return 0, err
	}
	file, err := os.Open(fileName)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return io.Copy(writer, file)
}
