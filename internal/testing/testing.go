// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/songlinks/internal/models"
)

// MockService is an in-memory test double for services.Service.
//
// Search results are keyed by the exact query string. Track ids listed in InvalidTracks fail
// when added; album ids missing from Albums fail when expanded. Ids in MissingIDs fail lookup.
type MockService struct {
	TrackResults  map[string][]models.Candidate
	AlbumResults  map[string][]models.Candidate
	Albums        map[string][]string
	InvalidTracks map[string]bool
	MissingIDs    map[string]bool
	SearchErr     error
	CreateErr     error
	UserErr       error

	mu        sync.Mutex
	Queries   []string
	Created   []models.Playlist
	Added     []string
	Lookups   []string
	playlists int
}

// NewMockService returns an empty MockService.
func NewMockService() *MockService {
	return &MockService{
		TrackResults:  map[string][]models.Candidate{},
		AlbumResults:  map[string][]models.Candidate{},
		Albums:        map[string][]string{},
		InvalidTracks: map[string]bool{},
		MissingIDs:    map[string]bool{},
	}
}

func (m *MockService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	return m.search(m.TrackResults, query, limit)
}

func (m *MockService) SearchAlbums(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	return m.search(m.AlbumResults, query, limit)
}

func (m *MockService) search(results map[string][]models.Candidate, query string, limit int) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)

	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	found := results[query]
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	return &models.User{ID: "mock-user", DisplayName: "Mock User"}, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.playlists++
	p := models.Playlist{
		ID:          fmt.Sprintf("playlist%d", m.playlists),
		Name:        name,
		Description: description,
		Public:      public,
		URL:         fmt.Sprintf("https://open.spotify.com/playlist/playlist%d", m.playlists),
	}
	m.Created = append(m.Created, p)
	return &p, nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, uri := range uris {
		id := uri[strings.LastIndex(uri, ":")+1:]
		if m.InvalidTracks[id] {
			return fmt.Errorf("invalid base62 id: %s", id)
		}
	}
	m.Added = append(m.Added, uris...)
	return nil
}

func (m *MockService) AlbumTrackIDs(ctx context.Context, albumID string) ([]string, error) {
	ids, ok := m.Albums[albumID]
	if !ok {
		return nil, fmt.Errorf("album %s not found", albumID)
	}
	return ids, nil
}

func (m *MockService) Track(ctx context.Context, id string) (*models.Candidate, error) {
	return m.lookup("track", id)
}

func (m *MockService) Album(ctx context.Context, id string) (*models.Candidate, error) {
	return m.lookup("album", id)
}

func (m *MockService) lookup(kind, id string) (*models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups = append(m.Lookups, kind+":"+id)

	if m.MissingIDs[id] {
		return nil, fmt.Errorf("%s %s: status 404", kind, id)
	}
	return &models.Candidate{ID: id, Title: kind + " " + id}, nil
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

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}
