package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BusinessHeader carries the business a request acts for
const BusinessHeader = "X-Business-ID"

// MembershipChecker reports whether a user may act for a business
type MembershipChecker interface {
	IsMember(ctx context.Context, userID string, businessID uuid.UUID) (bool, error)
}

// BusinessMiddleware resolves X-Business-ID (or ?business= for websockets) and
// rejects users who are not members. Must run after AuthMiddleware.
func BusinessMiddleware(members MembershipChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(BusinessHeader))
			if raw == "" {
				raw = r.URL.Query().Get("business")
			}
			if raw == "" {
				http.Error(w, BusinessHeader+" header required", http.StatusBadRequest)
				return
			}
			businessID, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "Invalid "+BusinessHeader, http.StatusBadRequest)
				return
			}

			userID := UserID(r.Context())
			ok, err := members.IsMember(r.Context(), userID, businessID)
			if err != nil {
				log.Error().Err(err).Str("business", businessID.String()).Msg("Membership check failed")
				http.Error(w, "Membership check failed", http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Error(w, "Not a member of this business", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), BusinessContextKey, businessID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BusinessID returns the business resolved by BusinessMiddleware
func BusinessID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(BusinessContextKey).(uuid.UUID)
	return id, ok
}
