// Package onemap implements the OneMap geocoding, routing, and
// authentication clients.
package onemap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TokenSource supplies per-call authorization material for the OneMap
// APIs.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenManager caches the OneMap access token in a JSON file and refreshes
// it when missing or expired.
type TokenManager struct {
	email      string
	password   string
	tokenURL   string
	cachePath  string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger

	mu sync.Mutex
}

// NewTokenManager creates a token manager for the given OneMap base URL.
func NewTokenManager(baseURL, email, password, cachePath string, timeout time.Duration, logger *slog.Logger) *TokenManager {
	return NewTokenManagerWithClock(baseURL, email, password, cachePath, timeout, logger, clockwork.NewRealClock())
}

// NewTokenManagerWithClock is NewTokenManager with an injected clock so
// tests control expiry.
func NewTokenManagerWithClock(baseURL, email, password, cachePath string, timeout time.Duration, logger *slog.Logger, clock clockwork.Clock) *TokenManager {
	return &TokenManager{
		email:      email,
		password:   password,
		tokenURL:   baseURL + "/api/auth/post/getToken",
		cachePath:  cachePath,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		logger:     logger,
	}
}

// cachedToken is the on-disk cache format. The API returns the expiry as a
// string-encoded Unix timestamp; flexInt64 accepts either encoding.
type cachedToken struct {
	AccessToken     string    `json:"access_token"`
	ExpiryTimestamp flexInt64 `json:"expiry_timestamp"`
}

type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse expiry timestamp %q: %w", s, err)
	}
	*f = flexInt64(v)
	return nil
}

func (f flexInt64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(f), 10)), nil
}

// Token returns a valid cached token or requests a new one when the cache
// is missing, corrupt, or expired.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tok, ok := m.readCache(); ok {
		return tok, nil
	}
	return m.refresh(ctx)
}

// readCache returns the cached token when it is still valid. Any read or
// decode failure just means a refresh.
func (m *TokenManager) readCache() (string, bool) {
	data, err := os.ReadFile(m.cachePath)
	if err != nil {
		return "", false
	}
	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		m.logger.Warn("token cache corrupt, refreshing", "path", m.cachePath, "error", err)
		return "", false
	}
	if cached.AccessToken == "" || int64(cached.ExpiryTimestamp) <= m.clock.Now().Unix() {
		return "", false
	}
	return cached.AccessToken, true
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"email": m.email, "password": m.password})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token API error: status %d: %s", resp.StatusCode, body)
	}

	var cached cachedToken
	if err := json.NewDecoder(resp.Body).Decode(&cached); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if cached.AccessToken == "" {
		return "", fmt.Errorf("token API returned empty access_token")
	}

	m.writeCache(cached)
	m.logger.Info("fetched new access token", "expires_at", time.Unix(int64(cached.ExpiryTimestamp), 0))
	return cached.AccessToken, nil
}

// writeCache persists the token; failure to cache is not fatal since the
// token itself is already in hand.
func (m *TokenManager) writeCache(cached cachedToken) {
	data, err := json.Marshal(cached)
	if err != nil {
		m.logger.Warn("marshal token cache failed", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.cachePath), 0o755); err != nil {
		m.logger.Warn("create token cache dir failed", "error", err)
		return
	}
	if err := os.WriteFile(m.cachePath, data, 0o600); err != nil {
		m.logger.Warn("write token cache failed", "path", m.cachePath, "error", err)
	}
}
