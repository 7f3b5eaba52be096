package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quibo-cli/internal/config"
	"quibo-cli/internal/logger"
)

const (
	fileName = "session.json"

	// DefaultSkew refreshes tokens this long before they actually expire.
	DefaultSkew = time.Minute
)

var ErrNoRefresh = errors.New("session cannot be refreshed")

type Options struct {
	// Dir holds session.json. Empty keeps the session in memory only.
	Dir string
	// AuthURL is the auth provider base URL; empty disables refresh.
	AuthURL    string
	AnonKey    string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Skew       time.Duration
	Now        func() time.Time
}

// Manager owns the current session. It is safe for concurrent use and
// implements api.TokenSource.
type Manager struct {
	dir     string
	authURL string
	anonKey string
	hc      *http.Client
	log     *slog.Logger
	skew    time.Duration
	now     func() time.Time

	mu  sync.Mutex
	cur *Session

	subMu  sync.Mutex
	subs   map[int]func(Session, bool)
	nextID int
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		dir:     opts.Dir,
		authURL: strings.TrimRight(strings.TrimSpace(opts.AuthURL), "/"),
		anonKey: opts.AnonKey,
		hc:      opts.HTTPClient,
		log:     opts.Logger,
		skew:    opts.Skew,
		now:     opts.Now,
		subs:    map[int]func(Session, bool){},
	}
	if m.hc == nil {
		m.hc = &http.Client{Timeout: 30 * time.Second}
	}
	if m.log == nil {
		m.log = logger.Default()
	}
	if m.skew == 0 {
		m.skew = DefaultSkew
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *Manager) path() string { return filepath.Join(m.dir, fileName) }

// Load reads a persisted session, if any.
func (m *Manager) Load() error {
	if m.dir == "" {
		return nil
	}
	b, err := os.ReadFile(m.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("read %s: %w", m.path(), err)
	}
	if s.AccessToken == "" {
		return nil
	}
	m.mu.Lock()
	m.cur = &s
	m.mu.Unlock()
	return nil
}

func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cur == nil {
		return Session{}, false
	}
	return *m.cur, true
}

// SignIn stores a session built from the given token pair.
func (m *Manager) SignIn(accessToken, refreshToken string) (Session, error) {
	s, err := FromTokens(accessToken, refreshToken)
	if err != nil {
		return Session{}, err
	}
	if err := m.set(&s); err != nil {
		return Session{}, err
	}
	m.log.Info("signed in", "user", s.User.ID)
	return s, nil
}

func (m *Manager) SignOut() error {
	return m.set(nil)
}

// AccessToken returns the bearer token for outgoing requests, refreshing it
// first when it is about to expire. A session that cannot be refreshed is
// dropped and the caller proceeds signed out.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	s, ok := m.Current()
	if !ok {
		return "", nil
	}
	if !s.Expired(m.now(), m.skew) {
		return s.AccessToken, nil
	}
	fresh, err := m.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		m.log.Warn("session refresh failed; continuing signed out", "err", err)
		if clearErr := m.set(nil); clearErr != nil {
			m.log.Warn("failed to clear session", "err", clearErr)
		}
		return "", nil
	}
	return fresh.AccessToken, nil
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Refresh exchanges the refresh token for a new token pair.
func (m *Manager) Refresh(ctx context.Context) (Session, error) {
	cur, ok := m.Current()
	if !ok || cur.RefreshToken == "" {
		return Session{}, fmt.Errorf("%w: no refresh token", ErrNoRefresh)
	}
	if m.authURL == "" {
		return Session{}, fmt.Errorf("%w: auth URL not configured", ErrNoRefresh)
	}

	body, err := json.Marshal(map[string]string{"refresh_token": cur.RefreshToken})
	if err != nil {
		return Session{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.authURL+"/auth/v1/token?grant_type=refresh_token", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.anonKey != "" {
		req.Header.Set("apikey", m.anonKey)
	}

	resp, err := m.hc.Do(req)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, err
	}
	if resp.StatusCode/100 != 2 {
		return Session{}, fmt.Errorf("%w: auth provider returned %d: %s",
			ErrNoRefresh, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var rr refreshResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return Session{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if rr.RefreshToken == "" {
		rr.RefreshToken = cur.RefreshToken
	}
	s, err := FromTokens(rr.AccessToken, rr.RefreshToken)
	if err != nil {
		return Session{}, err
	}
	switch {
	case rr.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(rr.ExpiresAt, 0).UTC()
	case s.ExpiresAt.IsZero() && rr.ExpiresIn > 0:
		s.ExpiresAt = m.now().Add(time.Duration(rr.ExpiresIn) * time.Second).UTC()
	}
	if err := m.set(&s); err != nil {
		return Session{}, err
	}
	m.log.Debug("session refreshed", "user", s.User.ID, "expires_at", s.ExpiresAt)
	return s, nil
}

// Subscribe registers fn for session changes. fn receives the new session and
// false when the user signed out. The returned func unsubscribes.
func (m *Manager) Subscribe(fn func(Session, bool)) func() {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) set(s *Session) error {
	m.mu.Lock()
	if s == nil {
		m.cur = nil
	} else {
		cp := *s
		m.cur = &cp
	}
	m.mu.Unlock()

	err := m.persist(s)

	m.subMu.Lock()
	fns := make([]func(Session, bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		if s == nil {
			fn(Session{}, false)
		} else {
			fn(*s, true)
		}
	}
	return err
}

func (m *Manager) persist(s *Session) error {
	if m.dir == "" {
		return nil
	}
	if s == nil {
		if err := os.Remove(m.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return config.WriteFileAtomic(m.path(), append(b, '\n'), 0o600)
}
