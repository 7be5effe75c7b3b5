// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adoptmatch/chat-service/internal/model"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// ActorIDKey is the context key for the authenticated actor id.
	ActorIDKey ContextKey = "actor_id"
	// ActorRoleKey is the context key for the authenticated actor role.
	ActorRoleKey ContextKey = "actor_role"
)

// Claims represents JWT claims. Subject is the actor id; Role tags the actor
// as adopter, organization or admin.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Auth creates JWT authentication middleware.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				http.Error(w, `{"error":"invalid authorization header format"}`, http.StatusUnauthorized)
				return
			}

			tokenString := parts[1]

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid || claims.Subject == "" {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ActorIDKey, claims.Subject)
			ctx = context.WithValue(ctx, ActorRoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActorID gets the authenticated actor id from context.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(ActorIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetActorRole gets the authenticated actor role from context.
func GetActorRole(ctx context.Context) model.Role {
	if v := ctx.Value(ActorRoleKey); v != nil {
		return model.Role(v.(string))
	}
	return ""
}
