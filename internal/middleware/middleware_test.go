package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckdocs/internal/config"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/utils"
)

const secret = "test-secret"

func tokens(t *testing.T, userID string) (string, string) {
	t.Helper()
	access, refresh, err := utils.GenerateTokens(&models.UserAuth{ID: userID, Email: "a@b.c", Role: "user"}, &config.Config{JWTSecret: secret})
	require.NoError(t, err)
	return access, refresh
}

type members map[string]uuid.UUID

func (m members) IsMember(_ context.Context, userID string, businessID uuid.UUID) (bool, error) {
	if userID == "broken" {
		return false, errors.New("db down")
	}
	return m[userID] == businessID, nil
}

func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		biz, _ := BusinessID(r.Context())
		w.Write([]byte(UserID(r.Context()) + "|" + biz.String()))
	})
}

func TestAuthMiddleware(t *testing.T) {
	access, refresh := tokens(t, "user-1")
	h := AuthMiddleware(secret)(echo())

	tests := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"malformed", "Token " + access, "", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + access + "x", "", http.StatusUnauthorized},
		{"valid", "Bearer " + access, "", http.StatusOK},
		{"query token", "", "?token=" + access, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/documents"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "user-1|")
			}
		})
	}
}

func TestBusinessMiddleware(t *testing.T) {
	biz := uuid.New()
	h := AuthMiddleware(secret)(BusinessMiddleware(members{"user-1": biz})(echo()))

	call := func(userID, business string) *httptest.ResponseRecorder {
		access, _ := tokens(t, userID)
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		if business != "" {
			req.Header.Set(BusinessHeader, business)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("user-1", biz.String())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1|"+biz.String(), rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, call("user-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, call("user-1", "not-a-uuid").Code)
	assert.Equal(t, http.StatusForbidden, call("user-2", biz.String()).Code)
	assert.Equal(t, http.StatusForbidden, call("user-1", uuid.NewString()).Code)
	assert.Equal(t, http.StatusInternalServerError, call("broken", biz.String()).Code)
}
