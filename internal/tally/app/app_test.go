package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	dir := t.TempDir()
	return Config{
		AccessSecret:         strings.Repeat("a", 32),
		RefreshSecret:        strings.Repeat("r", 32),
		Issuer:               "tally",
		AccessTokenTTL:       time.Minute,
		RefreshTokenTTL:      time.Minute,
		DatabaseDriver:       DriverSQLite,
		DatabaseFile:         filepath.Join(dir, "tally.db"),
		CORSAllowedOrigins:   []string{"http://localhost:3000"},
		PepperFile:           filepath.Join(dir, "pepper"),
		Env:                  "test",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 0,
		ShutdownGracePeriod:  time.Minute,
		HousekeepingInterval: time.Minute,
	}
}

func TestNewServesRoutes(t *testing.T) {
	app, err := New(testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.cache.Close()
		_ = app.db.Close()
	})

	for _, path := range []string{"/livez", "/readyz", "/expenses/getFrequencies"} {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/guest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"isGuest":true`)
}

func TestNewRejectsBadRedisURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "not a url"

	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewSessionServiceCreatesPepper(t *testing.T) {
	cfg := testConfig(t)

	db, err := OpenStore(t.Context(), cfg, NewLogger(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions, err := NewSessionService(cfg, db)
	require.NoError(t, err)
	require.Equal(t, time.Minute, sessions.Tokens.AccessTTL)
	require.FileExists(t, cfg.PepperFile)
}
