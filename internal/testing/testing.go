// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/musicmgr/internal/models"
)

// MockService is a test double for [services.Service].
//
// Search results are looked up by exact query; unknown queries return no candidates.
// Playlists live in memory keyed by ID.
type MockService struct {
	mu sync.Mutex

	Results   map[string][]models.Track
	SearchErr map[string]error
	AddErr    error
	RemoveErr error
	CreateErr error
	FetchErr  error

	Playlists map[string][]models.Track
	Created   []models.Playlist
	Queries   []string
	Added     map[string][]string
	Removed   map[string][]string
}

// NewMockService returns an empty [MockService].
func NewMockService() *MockService {
	return &MockService{
		Results:   map[string][]models.Track{},
		SearchErr: map[string]error{},
		Playlists: map[string][]models.Track{},
		Added:     map[string][]string{},
		Removed:   map[string][]string{},
	}
}

func (m *MockService) FindTrack(ctx context.Context, query string) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if err := m.SearchErr[query]; err != nil {
		return nil, err
	}
	return m.Results[query], nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, name, description string, public bool) (*models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	pl := models.Playlist{ID: fmt.Sprintf("mock-%d", len(m.Created)+1), Name: name, Description: description, Public: public}
	m.Created = append(m.Created, pl)
	if m.Playlists == nil {
		m.Playlists = map[string][]models.Track{}
	}
	m.Playlists[pl.ID] = []models.Track{}
	return &pl, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddErr != nil {
		return 0, m.AddErr
	}
	if m.Added == nil {
		m.Added = map[string][]string{}
	}
	m.Added[playlistID] = append(m.Added[playlistID], trackIDs...)
	return len(trackIDs), nil
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return slices.Clone(m.Playlists[playlistID]), nil
}

func (m *MockService) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	if m.Removed == nil {
		m.Removed = map[string][]string{}
	}
	m.Removed[playlistID] = append(m.Removed[playlistID], trackIDs...)
	return nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
