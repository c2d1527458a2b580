package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tallyhq/tally/internal/tally/cache"
	"github.com/tallyhq/tally/internal/tally/domain"
	"github.com/tallyhq/tally/internal/tally/service"
	"github.com/tallyhq/tally/internal/tally/store/drivers/sqlite"
	"github.com/tallyhq/tally/pkg/cryptox"
)

var (
	accessKey  = []byte(strings.Repeat("a", 32))
	refreshKey = []byte(strings.Repeat("r", 32))
)

// testClock is a settable clock shared by the services under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store   *sqlite.Store
	clock   *testClock
	tokens  *service.TokenService
	session *service.SessionService
	ledger  *service.LedgerService
	cache   *memoryCache
	hasher  cryptox.PasswordHasher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}

	tokens, err := service.NewTokenService(st, accessKey, refreshKey, "tally")
	require.NoError(t, err)
	tokens.Now = clock.Now

	hasher := cryptox.PasswordHasher{Pepper: "test-pepper"}
	mc := newMemoryCache()

	return &fixture{
		store:  st,
		clock:  clock,
		tokens: tokens,
		session: &service.SessionService{
			Store:  st,
			Tokens: tokens,
			Hasher: hasher,
		},
		ledger: &service.LedgerService{Store: st, Cache: mc},
		cache:  mc,
		hasher: hasher,
	}
}

func (f *fixture) register(t *testing.T, username string) service.AuthResult {
	t.Helper()

	res, err := f.session.Register(context.Background(), username, "password-"+username, username+"@example.com")
	require.NoError(t, err)
	return res
}

// memoryCache is an in-process cache.Categories that counts its traffic.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.Category
	hits        int
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]domain.Category{}}
}

func (m *memoryCache) GetCategories(_ context.Context, userID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cats, ok := m.entries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	m.hits++
	return cats, nil
}

func (m *memoryCache) SetCategories(_ context.Context, userID string, cats []domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = cats
	return nil
}

func (m *memoryCache) InvalidateCategories(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	m.invalidated++
	return nil
}

func (m *memoryCache) Ping(context.Context) error { return nil }
func (m *memoryCache) Close() error               { return nil }
