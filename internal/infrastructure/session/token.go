package session

import (
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shoplink/internal/domain/entity"
	"shoplink/pkg/errors"
)

// Store keeps the bearer token in a local file, the headless analog of
// browser local storage.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Token() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Internal("failed to read token", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *Store) Save(token string) error {
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return errors.Internal("failed to persist token", err)
	}
	return nil
}

// Clear removes the token on logout.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Internal("failed to clear token", err)
	}
	return nil
}

// FromToken derives the viewer session from a bearer token. The token is
// issued and verified by the backend; the client only inspects claims, so
// the signature is deliberately not checked here.
func FromToken(token string) (entity.Session, error) {
	if token == "" {
		return entity.Session{}, nil
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return entity.Session{}, errors.Unauthorized("malformed session token", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Session{}, errors.Unauthorized("malformed session token", nil)
	}

	sess := entity.Session{
		UserID:      firstString(claims, "sub", "_id", "id", "userId"),
		Name:        firstString(claims, "name", "username"),
		Role:        entity.Role(firstString(claims, "role")),
		IsVendor:    boolClaim(claims, "isVendor"),
		IsShopAdmin: boolClaim(claims, "isShopAdmin"),
		Token:       token,
		LoggedIn:    true,
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
		if time.Now().After(exp.Time) {
			return entity.Session{}, errors.Unauthorized("session expired", nil)
		}
	}

	return sess, nil
}

// Load reads the stored token and derives the session from it. A missing
// token yields a logged-out session, not an error.
func (s *Store) Load() (entity.Session, error) {
	token, err := s.Token()
	if err != nil {
		return entity.Session{}, err
	}
	return FromToken(token)
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func boolClaim(claims jwt.MapClaims, key string) bool {
	v, ok := claims[key].(bool)
	return ok && v
}
