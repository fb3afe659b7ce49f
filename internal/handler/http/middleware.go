package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/rookgm/fmmall/internal/models"
)

type contextKey string

const (
	authPayloadKey contextKey = "auth_payload"
)

const authCookieName = "auth_token"

type TokenService interface {
	// VerifyToken checks token and returns its payload
	VerifyToken(tokenString string) (*models.TokenPayload, error)
}

// AuthMiddleware gets the token from the cookie or Authorization header and passes its payload to the context
func AuthMiddleware(ts TokenService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := tokenFromRequest(r)
			if !ok {
				writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			payload, err := ts.VerifyToken(tokenString)
			if err != nil {
				writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), authPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware allows request only for administrators. It must be used after AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := getAuthPayload(r.Context(), authPayloadKey)
		if !ok {
			writeErrorMessage(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !payload.IsAdmin() {
			writeErrorMessage(w, r, http.StatusForbidden, "admin role required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// tokenFromRequest extracts token from auth cookie, then from bearer Authorization header
func tokenFromRequest(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):]), true
	}

	return "", false
}

// getAuthPayload extracts authorization token payload from context
func getAuthPayload(ctx context.Context, key contextKey) (*models.TokenPayload, bool) {
	payload, ok := ctx.Value(key).(*models.TokenPayload)
	if !ok || payload == nil {
		return nil, false
	}
	return payload, true
}
