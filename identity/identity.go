// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/quickly-survey/models"
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// User is the authenticated principal. Only ID takes part in authorization.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Provider resolves the user on whose behalf a call is made.
type Provider interface {
	CurrentUser(ctx context.Context) (User, error)
}

// Claims carried by a session token. The subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier issues and checks HS256 session tokens.
type Verifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewVerifier returns a verifier for secret. A ttl of zero issues tokens
// that never expire.
func NewVerifier(secret string, ttl time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a session token for u.
func (v *Verifier) Issue(u User) (string, error) {
	if u.ID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrInvalidToken)
	}

	now := v.now()
	claims := Claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  u.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if v.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(v.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify checks signature and expiry and returns the token's user.
func (v *Verifier) Verify(tokenString string) (User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !token.Valid {
		return User{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: claims.Subject, Email: claims.Email}, nil
}

// Session is the signed-in state of one client. It notifies listeners
// whenever the signed-in user changes.
type Session struct {
	verifier *Verifier

	mu        sync.RWMutex
	user      *User
	listeners map[int]func(*User)
	nextID    int
}

func NewSession(v *Verifier) *Session {
	return &Session{verifier: v, listeners: make(map[int]func(*User))}
}

// SignIn verifies token and makes its user current.
func (s *Session) SignIn(token string) (User, error) {
	u, err := s.verifier.Verify(token)
	if err != nil {
		return User{}, err
	}
	s.set(&u)
	return u, nil
}

// SignOut clears the current user.
func (s *Session) SignOut() {
	s.set(nil)
}

// CurrentUser implements Provider.
func (s *Session) CurrentUser(ctx context.Context) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, models.ErrUnauthenticated
	}
	return *s.user, nil
}

// OnChange registers fn to run after every change of user; nil means
// signed out. The returned func unregisters it.
func (s *Session) OnChange(fn func(*User)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(u *User) {
	s.mu.Lock()
	changed := !sameUser(s.user, u)
	s.user = u
	var fns []func(*User)
	if changed {
		ids := make([]int, 0, len(s.listeners))
		for id := range s.listeners {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			fns = append(fns, s.listeners[id])
		}
	}
	s.mu.Unlock()

	// Listeners run outside the lock so they may call back into the session
	for _, fn := range fns {
		var arg *User
		if u != nil {
			copied := *u
			arg = &copied
		}
		fn(arg)
	}
}

func sameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}

type ctxKey struct{}

// WithUser returns a context carrying u for ContextProvider.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// ContextProvider reads the user placed on the context by WithUser.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(ctxKey{}).(User)
	if !ok || u.ID == "" {
		return User{}, models.ErrUnauthenticated
	}
	return u, nil
}
