package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quibo-cli/internal/logger"
)

func mintToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Email: sub + "@example.com",
		UserMetadata: userMetadata{
			FullName:  "Test " + sub,
			AvatarURL: "https://example.com/" + sub + ".png",
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestFromTokens_ReadsIdentity(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s, err := FromTokens(mintToken(t, "u1", exp), "r1")
	if err != nil {
		t.Fatalf("FromTokens: %v", err)
	}
	if s.User.ID != "u1" || s.User.Email != "u1@example.com" || s.User.Name != "Test u1" {
		t.Fatalf("user = %+v", s.User)
	}
	if s.User.AvatarURL != "https://example.com/u1.png" {
		t.Fatalf("avatar = %q", s.User.AvatarURL)
	}
	if !s.ExpiresAt.Equal(exp) {
		t.Fatalf("expiresAt = %v want %v", s.ExpiresAt, exp)
	}
	if s.RefreshToken != "r1" {
		t.Fatalf("refresh = %q", s.RefreshToken)
	}
}

func TestFromTokens_Invalid(t *testing.T) {
	for _, tok := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := FromTokens(tok, ""); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("FromTokens(%q) err = %v", tok, err)
		}
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(30 * time.Second)}
	if s.Expired(now, 0) {
		t.Fatalf("should not be expired without skew")
	}
	if !s.Expired(now, time.Minute) {
		t.Fatalf("should be expired within skew")
	}
	if (Session{}).Expired(now, time.Hour) {
		t.Fatalf("no expiry should never expire")
	}
}

func TestDisplayName(t *testing.T) {
	if got := (User{ID: "u", Email: "e@x"}).DisplayName(); got != "e@x" {
		t.Fatalf("got %q", got)
	}
	if got := (User{ID: "u"}).DisplayName(); got != "u" {
		t.Fatalf("got %q", got)
	}
	if got := (User{ID: "u", Name: "Ada"}).DisplayName(); got != "Ada" {
		t.Fatalf("got %q", got)
	}
}

func TestManager_SignInPersistsAndNotifies(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(Options{Dir: dir, Logger: logger.Discard()})

	var events []bool
	unsub := m.Subscribe(func(_ Session, signedIn bool) { events = append(events, signedIn) })

	tok := mintToken(t, "u1", time.Now().Add(time.Hour))
	if _, err := m.SignIn(tok, "r1"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("session file mode = %v", info.Mode().Perm())
	}

	reloaded := NewManager(Options{Dir: dir, Logger: logger.Discard()})
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cur, ok := reloaded.Current()
	if !ok || cur.User.ID != "u1" {
		t.Fatalf("reloaded = %+v ok=%v", cur, ok)
	}

	if err := m.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, fileName)); !os.IsNotExist(err) {
		t.Fatalf("session file should be removed, err=%v", err)
	}
	unsub()
	_, _ = m.SignIn(tok, "r1")

	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("events = %v", events)
	}
}

func TestManager_AccessTokenSignedOut(t *testing.T) {
	m := NewManager(Options{Logger: logger.Discard()})
	tok, err := m.AccessToken(context.Background())
	if err != nil || tok != "" {
		t.Fatalf("tok=%q err=%v", tok, err)
	}
}

func TestManager_AccessTokenRefreshesWhenExpiring(t *testing.T) {
	fresh := mintToken(t, "u1", time.Now().Add(time.Hour))
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "refresh_token" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if r.Header.Get("apikey") != "anon" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "r-old" {
			t.Errorf("refresh_token = %q", body["refresh_token"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fresh,
			"refresh_token": "r-new",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	m := NewManager(Options{AuthURL: srv.URL, AnonKey: "anon", Logger: logger.Discard()})
	stale := mintToken(t, "u1", time.Now().Add(10*time.Second))
	if _, err := m.SignIn(stale, "r-old"); err != nil {
		t.Fatal(err)
	}

	tok, err := m.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken: %v", err)
	}
	if tok != fresh {
		t.Fatalf("expected refreshed token")
	}
	cur, _ := m.Current()
	if cur.RefreshToken != "r-new" {
		t.Fatalf("refresh token = %q", cur.RefreshToken)
	}

	if _, err := m.AccessToken(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Fatalf("refresh calls = %d", calls.Load())
	}
}

func TestManager_RefreshFailureSignsOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	m := NewManager(Options{AuthURL: srv.URL, Logger: logger.Discard()})
	if _, err := m.SignIn(mintToken(t, "u1", time.Now().Add(-time.Minute)), "r1"); err != nil {
		t.Fatal(err)
	}

	tok, err := m.AccessToken(context.Background())
	if err != nil || tok != "" {
		t.Fatalf("tok=%q err=%v", tok, err)
	}
	if _, ok := m.Current(); ok {
		t.Fatalf("session should be cleared after failed refresh")
	}
}

func TestManager_RefreshWithoutRefreshToken(t *testing.T) {
	m := NewManager(Options{AuthURL: "http://127.0.0.1:1", Logger: logger.Discard()})
	if _, err := m.SignIn(mintToken(t, "u1", time.Now().Add(time.Hour)), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Refresh(context.Background()); !errors.Is(err, ErrNoRefresh) {
		t.Fatalf("err = %v", err)
	}
}
