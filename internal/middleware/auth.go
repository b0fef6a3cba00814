package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	tokenKey
)

// TokenTTL is how long an issued session token stays valid.
const TokenTTL = 24 * time.Hour

// TokenInfo describes the verified session token on a request.
type TokenInfo struct {
	ID        string
	ExpiresAt time.Time
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}

func TokenFromContext(ctx context.Context) (TokenInfo, bool) {
	t, ok := ctx.Value(tokenKey).(TokenInfo)
	return t, ok
}

// Denylist remembers revoked token ids until the tokens would have expired.
type Denylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{revoked: make(map[string]time.Time)}
}

func (d *Denylist) Revoke(id string, expiresAt time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	for k, exp := range d.revoked {
		if exp.Before(now) {
			delete(d.revoked, k)
		}
	}
	d.revoked[id] = expiresAt
}

func (d *Denylist) Revoked(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[id]
	return ok
}

type AuthMiddleware struct {
	jwtSecret []byte
	denylist  *Denylist
}

func NewAuthMiddleware(secret []byte, denylist *Denylist) *AuthMiddleware {
	if denylist == nil {
		denylist = NewDenylist()
	}
	return &AuthMiddleware{jwtSecret: secret, denylist: denylist}
}

func (m *AuthMiddleware) Denylist() *Denylist { return m.denylist }

// IssueToken signs an HS256 session token for userID.
func (m *AuthMiddleware) IssueToken(userID int, now time.Time) (string, TokenInfo, error) {
	info := TokenInfo{ID: uuid.NewString(), ExpiresAt: now.Add(TokenTTL)}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ID:        info.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(info.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.jwtSecret)
	if err != nil {
		return "", TokenInfo{}, err
	}
	return signed, info, nil
}

var errInvalidToken = errors.New("invalid token")

func (m *AuthMiddleware) verify(tokenStr string) (int, TokenInfo, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, TokenInfo{}, errInvalidToken
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, TokenInfo{}, errInvalidToken
	}
	if claims.ID == "" || m.denylist.Revoked(claims.ID) {
		return 0, TokenInfo{}, errInvalidToken
	}
	info := TokenInfo{ID: claims.ID}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return userID, info, nil
}

func bearer(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer ")), true
}

// RequireAuth admits requests carrying a valid, unrevoked session token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := bearer(r)
		if !ok {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		userID, info, err := m.verify(tokenStr)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, tokenKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireClient admits either the public anon key or a valid session token.
// It guards endpoints the app may call before anyone signs in.
func (m *AuthMiddleware) RequireClient(anonKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearer(r)
			if !ok {
				http.Error(w, "missing token", http.StatusUnauthorized)
				return
			}
			if anonKey != "" && subtle.ConstantTimeCompare([]byte(tokenStr), []byte(anonKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			userID, info, err := m.verify(tokenStr)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, tokenKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
