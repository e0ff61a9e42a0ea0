// internal/middleware/jwt.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token expiration time - 24 hours
const tokenExpiration = 24 * time.Hour

// Claims represents the JWT claims for our application
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// UnprotectedRoutes defines routes that don't require JWT authentication
var UnprotectedRoutes = map[string]bool{
	"/health":              true,
	"/auth/signup":         true,
	"/auth/login":          true,
	"/auth/oauth/callback": true,
	// Public reads. The websocket route authenticates via its token query
	// parameter because browsers cannot set headers on the upgrade request.
	"/explore":        true,
	"/explore/search": true,
	"/posts/view":     true,
	"/ws":             true,
}

// TokenManager signs and validates session tokens. The secret comes from
// configuration, never from a compiled-in constant.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// GenerateToken creates a new JWT token for the given user ID
func (tm *TokenManager) GenerateToken(userID string) (string, error) {
	expirationTime := time.Now().Add(tokenExpiration)

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "studio2-api",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ValidateToken validates the provided JWT token
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return tm.secret, nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// AuthMiddleware validates JWT bearer tokens on every protected route and
// stores the caller's user ID in the request context.
func (tm *TokenManager) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UnprotectedRoutes[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := tm.ValidateToken(tokenString)
		if err != nil {
			log.Printf("JWT Error: %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if time.Now().After(claims.ExpiresAt.Time) {
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		}

		ctx := SetUserIDInContext(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ApplyJWTMiddleware wraps a single handler function with JWT authentication
func (tm *TokenManager) ApplyJWTMiddleware(handler http.HandlerFunc, path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if UnprotectedRoutes[path] {
			handler(w, r)
			return
		}
		tm.AuthMiddleware(http.HandlerFunc(handler)).ServeHTTP(w, r)
	}
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// UserIDKey is the key used to store the user ID in the context
const UserIDKey contextKey = "user_id"

// SetUserIDInContext saves the user ID in the request context
func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext retrieves the user ID from the context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}
