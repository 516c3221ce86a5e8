package middleware

import (
	"net/http"
	"regexp"

	"github.com/sefaaycicek/fakestore/pkg/httputil"
	"github.com/sefaaycicek/fakestore/pkg/logger"
)

// OwnerHeader identifies the shopper whose favorites and basket a request touches.
const OwnerHeader = "X-User-ID"

// DefaultOwner is used when a request carries no owner header.
const DefaultOwner = "anonymous"

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)

// Owner resolves the request owner from X-User-ID and stores it in context.
// Malformed IDs are rejected with 400 since they end up in Redis keys.
func Owner() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := r.Header.Get(OwnerHeader)
			if owner == "" {
				owner = DefaultOwner
			}
			if !ownerPattern.MatchString(owner) {
				httputil.WriteBadRequest(w, r, "invalid "+OwnerHeader+" header")
				return
			}

			next.ServeHTTP(w, r.WithContext(logger.WithOwnerID(r.Context(), owner)))
		})
	}
}

// OwnerFromRequest returns the owner resolved by Owner, or DefaultOwner.
func OwnerFromRequest(r *http.Request) string {
	if owner := logger.OwnerIDFromContext(r.Context()); owner != "" {
		return owner
	}
	return DefaultOwner
}
