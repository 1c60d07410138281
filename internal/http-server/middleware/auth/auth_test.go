package authmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanzhit/meeting_recordings/internal/domain/constants"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/lib/jwt"
)

const secret = "test-secret"

func echoUser(got *models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = r.Context().Value(UserContextKey).(models.User)
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuth(t *testing.T) {
	user := models.User{Id: 3, Email: "m@example.com", UserType: constants.User}

	valid, err := jwt.NewToken(user, time.Hour, secret)
	require.NoError(t, err)
	expired, err := jwt.NewToken(user, -time.Hour, secret)
	require.NoError(t, err)
	foreign, err := jwt.NewToken(user, time.Hour, "other-secret")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		cookie string
		code   int
	}{
		{"bearer header", "Bearer " + valid, "", http.StatusOK},
		{"cookie", "", valid, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, "", http.StatusUnauthorized},
		{"garbage", "Bearer not.a.token", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.User

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tt.cookie})
			}

			w := httptest.NewRecorder()
			JWTAuth(secret)(echoUser(&got)).ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, 3, got.Id)
				assert.Equal(t, "m@example.com", got.Email)
				assert.Equal(t, constants.User, got.UserType)
			}
		})
	}
}

func TestAdminRequired(t *testing.T) {
	admin, err := jwt.NewToken(models.User{Id: 1, UserType: constants.Admin}, time.Hour, secret)
	require.NoError(t, err)
	user, err := jwt.NewToken(models.User{Id: 2, UserType: constants.User}, time.Hour, secret)
	require.NoError(t, err)

	h := JWTAuth(secret)(AdminRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodPost, "/activities", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/activities", nil)
	req.Header.Set("Authorization", "Bearer "+user)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
