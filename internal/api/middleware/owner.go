// Package middleware holds the HTTP middleware chain for the daemon.
package middleware

import (
	"context"
	"net/http"

	"github.com/draftwise/draftwise/internal/api"
)

type contextKey string

const OwnerIDKey contextKey = "owner_id"

// OwnerScope requires the X-Owner-ID header and places its value in the
// request context. Every data route is scoped to this owner.
func OwnerScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Header.Get("X-Owner-ID")
		if ownerID == "" {
			api.Error(w, http.StatusBadRequest, "missing X-Owner-ID header")
			return
		}

		ctx := context.WithValue(r.Context(), OwnerIDKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetOwnerID returns the owner ID from context.
func GetOwnerID(ctx context.Context) string {
	ownerID, _ := ctx.Value(OwnerIDKey).(string)
	return ownerID
}
