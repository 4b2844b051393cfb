package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mvaleed/conduit/internal/auth"
	"github.com/mvaleed/conduit/internal/domain"
)

var (
	errMissingAuthHeader = errors.New("missing authorization header")
	errBadAuthHeader     = errors.New("invalid authorization header format")
)

type contextKey string

const userClaimsKey contextKey = "user_claims"

func setUserClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

func getUserClaims(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(userClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// currentUserID is the authenticated user. Only valid behind authMiddleware.
func currentUserID(r *http.Request) domain.UserID {
	return domain.UserID(getUserClaims(r.Context()).UserID)
}

// viewpoint is the authenticated user, or nil for an anonymous request.
func viewpoint(r *http.Request) *domain.UserID {
	claims := getUserClaims(r.Context())
	if claims == nil {
		return nil
	}
	id := domain.UserID(claims.UserID)
	return &id
}

// bearerToken extracts the token from "Token <jwt>" or "Bearer <jwt>".
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingAuthHeader
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", errBadAuthHeader
	}
	switch strings.ToLower(parts[0]) {
	case "token", "bearer":
		return parts[1], nil
	}
	return "", errBadAuthHeader
}

// authMiddleware rejects requests without a valid token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "UNAUTHORIZED"})
			return
		}

		claims, err := s.jwtManager.ValidateToken(tokenString)
		if err != nil {
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error: "invalid or expired token",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(setUserClaims(r.Context(), claims)))
	})
}

// optionalAuthMiddleware sets the claims when a token is sent. A request
// without a token proceeds anonymously; a bad token is still rejected.
func (s *Server) optionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		s.authMiddleware(next).ServeHTTP(w, r)
	})
}
