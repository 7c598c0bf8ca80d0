// Package auth handles user accounts and session tokens. Passwords are
// stored as bcrypt hashes in the users collection; sessions live in Redis
// when available and in memory otherwise.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sekolahku/kurikulum/internal/store"
)

// Roles. An admin manages every collection; a guru works within their own
// class and subjects.
const (
	RoleAdmin = "admin"
	RoleGuru  = "guru"
)

// ErrInvalidCredentials is returned for a bad username or password. The two
// cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrSessionNotFound is returned for an unknown or expired session token.
var ErrSessionNotFound = errors.New("session not found")

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder"), bcrypt.MinCost)

// User is an account that can sign in.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Class    string   `json:"class,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// userFromDocument decodes a user record. The password hash stays inside
// the document and never leaves this package.
func userFromDocument(doc store.Document) User {
	u := User{
		ID:       doc.ID,
		Username: docString(doc, "username"),
		Name:     docString(doc, "name"),
		Role:     docString(doc, "role"),
		Class:    docString(doc, "class"),
	}
	if subjects, ok := doc.Data["subjects"].([]any); ok {
		for _, s := range subjects {
			if str, ok := s.(string); ok {
				u.Subjects = append(u.Subjects, str)
			}
		}
	}
	return u
}

func docString(doc store.Document, key string) string {
	if v, ok := doc.Data[key].(string); ok {
		return v
	}
	return ""
}

// Config holds auth service settings.
type Config struct {
	BcryptCost int
	SessionTTL time.Duration
}

// Service authenticates users and manages their sessions.
type Service struct {
	store      store.Store
	sessions   SessionStore
	bcryptCost int
	sessionTTL time.Duration
}

// NewService creates an auth service.
func NewService(st store.Store, sessions SessionStore, cfg Config) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.SessionTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		store:      st,
		sessions:   sessions,
		bcryptCost: cost,
		sessionTTL: ttl,
	}
}

// Login verifies credentials and opens a session. Returns the user and a
// bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (User, string, error) {
	doc, ok, err := s.findByUsername(ctx, username)
	if err != nil {
		return User{}, "", err
	}
	if !ok {
		// Burn a comparison anyway so the two failure paths take
		// comparable time.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return User{}, "", ErrInvalidCredentials
	}

	hash := docString(doc, "password_hash")
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token := newToken()
	if err := s.sessions.Save(ctx, token, doc.ID, s.sessionTTL); err != nil {
		return User{}, "", fmt.Errorf("saving session: %w", err)
	}
	return userFromDocument(doc), token, nil
}

// Logout closes a session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// UserFromToken resolves a session token to its user.
func (s *Service) UserFromToken(ctx context.Context, token string) (User, error) {
	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		return User{}, err
	}

	doc, err := s.store.Get(ctx, store.ColUsers, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return User{}, ErrSessionNotFound
		}
		return User{}, err
	}
	return userFromDocument(doc), nil
}

// CreateUser registers an account with a hashed password.
func (s *Service) CreateUser(ctx context.Context, user User, password string) (User, error) {
	if strings.TrimSpace(user.Username) == "" || password == "" {
		return User{}, fmt.Errorf("username and password are required")
	}
	if user.Role != RoleAdmin && user.Role != RoleGuru {
		return User{}, fmt.Errorf("unknown role %q", user.Role)
	}

	if _, exists, err := s.findByUsername(ctx, user.Username); err != nil {
		return User{}, err
	} else if exists {
		return User{}, fmt.Errorf("username %q is taken", user.Username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	subjects := make([]any, 0, len(user.Subjects))
	for _, sub := range user.Subjects {
		subjects = append(subjects, sub)
	}

	id, err := s.store.Create(ctx, store.ColUsers, map[string]any{
		"username":      user.Username,
		"name":          user.Name,
		"role":          user.Role,
		"class":         user.Class,
		"subjects":      subjects,
		"password_hash": string(hash),
	})
	if err != nil {
		return User{}, fmt.Errorf("creating user: %w", err)
	}

	user.ID = id
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when no users exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) error {
	docs, err := s.store.List(ctx, store.ColUsers)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(docs) > 0 {
		return nil
	}

	_, err = s.CreateUser(ctx, User{
		Username: username,
		Name:     "Administrator",
		Role:     RoleAdmin,
	}, password)
	return err
}

func (s *Service) findByUsername(ctx context.Context, username string) (store.Document, bool, error) {
	docs, err := s.store.List(ctx, store.ColUsers)
	if err != nil {
		return store.Document{}, false, fmt.Errorf("listing users: %w", err)
	}
	for _, doc := range docs {
		if strings.EqualFold(docString(doc, "username"), username) {
			return doc, true, nil
		}
	}
	return store.Document{}, false, nil
}

func newToken() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
