package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"studioaljo/internal/auth"
	"studioaljo/internal/domain"
	"studioaljo/internal/generator"
	"studioaljo/internal/repository"
	"studioaljo/internal/repository/sqlite"
	"studioaljo/internal/storage"
)

type testEnv struct {
	users   repository.UserRepository
	gallery repository.GalleryRepository
	issuer  *auth.Issuer
	userSvc UserService
	quota   QuotaService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(context.Background(), db, nil))

	store := sqlite.NewDocumentStore(db, 2*time.Second)
	users := sqlite.NewUserRepository(store)
	issuer := auth.NewIssuer("test-secret", 7*24*time.Hour)

	return &testEnv{
		users:   users,
		gallery: sqlite.NewGalleryRepository(store),
		issuer:  issuer,
		userSvc: NewUserService(users, issuer, domain.DefaultCredits, bcrypt.MinCost),
		quota:   NewQuotaService(users),
	}
}

func (e *testEnv) seedUser(t *testing.T, email string, credits int) {
	t.Helper()
	_, err := e.users.Create(context.Background(), &domain.User{Email: email, PasswordHash: "x", Credits: credits})
	require.NoError(t, err)
}

func (e *testEnv) credits(t *testing.T, email string) int {
	t.Helper()
	user, err := e.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return user.Credits
}

type fakeGenerator struct {
	mu       sync.Mutex
	requests []generator.Request
	err      error
	url      string
}

func (g *fakeGenerator) Generate(_ context.Context, req generator.Request) (generator.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return generator.Result{}, g.err
	}
	return generator.Result{ImageURL: g.url}, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	uploaded  map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) Upload(_ context.Context, key string, body io.Reader, _ string) (storage.Object, error) {
	if s.uploadErr != nil {
		return storage.Object{}, s.uploadErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return storage.Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded[key] = b
	return storage.Object{Bucket: "test", Key: key, Location: "s3://test/" + key}, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	delete(s.uploaded, key)
	return nil
}

type recordingCache struct {
	mu          sync.Mutex
	lists       map[string][]domain.GalleryItem
	generations map[string]int64
	invalidated []string
	failWith    error
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		lists:       map[string][]domain.GalleryItem{},
		generations: map[string]int64{},
	}
}

func (c *recordingCache) Generation(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return 0, c.failWith
	}
	return c.generations[userID], nil
}

func (c *recordingCache) GetList(_ context.Context, userID string, _ int) ([]domain.GalleryItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return nil, false, c.failWith
	}
	items, ok := c.lists[userID]
	return items, ok, nil
}

func (c *recordingCache) SetList(_ context.Context, userID string, _ int, gen int64, items []domain.GalleryItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	if c.generations[userID] != gen {
		return nil
	}
	c.lists[userID] = items
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, userID)
	if c.failWith != nil {
		return c.failWith
	}
	c.generations[userID]++
	delete(c.lists, userID)
	return nil
}

// interleavingGallery runs afterList once, right after the first store read
// and before the caller gets the result back.
type interleavingGallery struct {
	repository.GalleryRepository
	once      sync.Once
	afterList func()
}

func (g *interleavingGallery) ListByUser(ctx context.Context, userID string, limit int) ([]domain.GalleryItem, error) {
	items, err := g.GalleryRepository.ListByUser(ctx, userID, limit)
	g.once.Do(g.afterList)
	return items, err
}

var errBoom = errors.New("boom")
