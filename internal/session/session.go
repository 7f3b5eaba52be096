// Package session holds the signed-in user's access token, refreshes it
// against the auth provider before it expires, and notifies subscribers when
// the session changes.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DisplayName prefers the full name, then the email, then the id.
func (u User) DisplayName() string {
	switch {
	case strings.TrimSpace(u.Name) != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
	User         User      `json:"user"`
}

// Expired reports whether the token expires within skew of now. A session
// without an expiry never expires.
func (s Session) Expired(now time.Time, skew time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}

type userMetadata struct {
	FullName  string `json:"full_name"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Claims are the identity claims quibo reads from an access token.
type Claims struct {
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// ParseClaims decodes an access token without verifying its signature.
// The backend verifies tokens; the client only needs expiry and identity.
func ParseClaims(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}

// FromTokens builds a Session from a token pair, filling expiry and user
// identity from the access token's claims.
func FromTokens(accessToken, refreshToken string) (Session, error) {
	claims, err := ParseClaims(accessToken)
	if err != nil {
		return Session{}, err
	}
	s := Session{
		AccessToken:  strings.TrimSpace(accessToken),
		RefreshToken: strings.TrimSpace(refreshToken),
		User: User{
			ID:        claims.Subject,
			Email:     claims.Email,
			Name:      claims.UserMetadata.FullName,
			AvatarURL: claims.UserMetadata.AvatarURL,
		},
	}
	if s.User.Name == "" {
		s.User.Name = claims.UserMetadata.Name
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return s, nil
}
