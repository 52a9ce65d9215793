package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio/db"
	"portfolio/models"
	"portfolio/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n")
	jpegHeader = []byte("\xff\xd8\xff\xe0")
)

var errFlaky = errors.New("media host unavailable")

// fakeMedia keeps objects in memory. storeErr and removeErr script failures.
type fakeMedia struct {
	mu          sync.Mutex
	next        int
	objects     map[string][]byte
	storeCalls  map[string]int // by file name (the data suffix)
	removeCalls map[string]int // by storage id
	inflight    int
	maxInflight int
	storeErr    func(name string, call int) error
	removeErr   func(storageID string, call int) error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		objects:     map[string][]byte{},
		storeCalls:  map[string]int{},
		removeCalls: map[string]int{},
	}
}

func nameOf(data []byte) string {
	for _, header := range [][]byte{pngHeader, jpegHeader} {
		if bytes.HasPrefix(data, header) {
			return string(data[len(header):])
		}
	}
	return string(data)
}

func (m *fakeMedia) Store(ctx context.Context, data []byte, contentType string) (storage.Object, error) {
	m.mu.Lock()
	m.inflight++
	m.maxInflight = max(m.maxInflight, m.inflight)
	m.mu.Unlock()
	time.Sleep(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight--
	name := nameOf(data)
	m.storeCalls[name]++
	if m.storeErr != nil {
		if err := m.storeErr(name, m.storeCalls[name]); err != nil {
			return storage.Object{}, &storage.TransientError{Op: "store", Err: err}
		}
	}
	m.next++
	id := fmt.Sprintf("albums/%03d-%s", m.next, name)
	m.objects[id] = data
	return storage.Object{URL: "https://media.test/" + id, StorageID: id}, nil
}

func (m *fakeMedia) Remove(ctx context.Context, storageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCalls[storageID]++
	if m.removeErr != nil {
		if err := m.removeErr(storageID, m.removeCalls[storageID]); err != nil {
			return &storage.TransientError{Op: "remove", Err: err}
		}
	}
	if _, ok := m.objects[storageID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.objects, storageID)
	return nil
}

func (m *fakeMedia) has(storageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[storageID]
	return ok
}

func (m *fakeMedia) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// recordingTimer fires immediately and remembers every requested wait.
type recordingTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

func (t *recordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c
}

func (t *recordingTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

func testConfig() Config {
	return Config{
		Attempts:  3,
		Backoff:   time.Second,
		BatchSize: 5,
		Limits: Limits{
			MaxFileBytes:   10 << 20,
			MaxAlbumBytes:  200 << 20,
			MaxAlbumImages: 100,
			MinTitleLength: 3,
		},
	}
}

type testEnv struct {
	p      *Pipeline
	store  *models.Store
	media  *fakeMedia
	timer  *recordingTimer
	ctx    context.Context
	config Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "=", "_", ",", "_").Replace(t.Name())
	client := db.NewWithDialector(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), zerolog.Nop())
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, models.Migrate(context.Background(), client))

	env := &testEnv{
		store:  models.NewStore(client),
		media:  newFakeMedia(),
		timer:  &recordingTimer{},
		ctx:    context.Background(),
		config: testConfig(),
	}
	env.p = New(env.config, env.media, env.store, zerolog.Nop())
	env.p.newTimer = func() backoff.Timer { return env.timer }
	return env
}

func (e *testEnv) withRecords(r Records) {
	e.p.records = r
}

func bytesFile(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func pngFile(name string) File {
	return bytesFile(name, append(append([]byte{}, pngHeader...), name...))
}

func pngFiles(n int) []File {
	files := make([]File, 0, n)
	for i := 1; i <= n; i++ {
		files = append(files, pngFile(fmt.Sprintf("img%d.png", i)))
	}
	return files
}

func albumInput(title string, images int) AlbumInput {
	cover := pngFile("cover.png")
	return AlbumInput{Title: title, Date: "2024-06-01", Cover: &cover, Images: pngFiles(images)}
}

func failing(names ...string) func(string, int) error {
	return func(name string, _ int) error {
		for _, n := range names {
			if n == name {
				return errFlaky
			}
		}
		return nil
	}
}
