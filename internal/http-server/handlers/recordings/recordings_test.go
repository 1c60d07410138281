package recordinghandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	authmiddleware "github.com/zanzhit/meeting_recordings/internal/http-server/middleware/auth"
)

type fakeRecordings struct {
	page       models.RecordingPage
	err        error
	toggled    []models.SessionKey
	loadURL    string
	activityID int64
}

func (f *fakeRecordings) Page(_ context.Context, activityID int64, _ models.User) (models.RecordingPage, error) {
	f.activityID = activityID

	return f.page, f.err
}

func (f *fakeRecordings) Toggle(_ context.Context, activityID int64, _ models.User, key models.SessionKey) (int64, error) {
	f.activityID = activityID
	if f.err != nil {
		return 0, f.err
	}
	f.toggled = append(f.toggled, key)

	return 2, nil
}

func (f *fakeRecordings) Load(_ context.Context, activityID, _ int64, _ models.User) (string, error) {
	f.activityID = activityID

	return f.loadURL, f.err
}

func newRouter(svc Recordings, user *models.User) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.URLFormat)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(context.WithValue(r.Context(), authmiddleware.UserContextKey, *user))
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/activities/{id}/recordings", h.Recordings)
	r.Get("/activities/{id}/recordings/toggle", h.Toggle)
	r.Get("/activities/{id}/recordings/{recordingID}/load", h.Load)

	return r
}

func samplePage(manager bool) models.RecordingPage {
	start := time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC)

	return models.RecordingPage{
		Activity: models.Activity{ID: 7, Name: "Lecture"},
		Manager:  manager,
		Listed:   true,
		Rows: []models.RecordingRow{{
			Session:  models.SessionKey{MeetingUUID: "uuid-1", RecordingStart: start.Unix()},
			Start:    start,
			Passcode: "pw123",
			Recordings: []models.Recording{
				{ID: 11, Name: "Lecture (shared_screen_with_speaker_view)"},
				{ID: 12, Name: "Lecture (audio_only)"},
			},
		}},
	}
}

func TestRecordings_ManagerHTML(t *testing.T) {
	svc := &fakeRecordings{page: samplePage(true)}
	user := models.User{Id: 1}

	w := httptest.NewRecorder()
	newRouter(svc, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/7/recordings", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, int64(7), svc.activityID)

	body := w.Body.String()
	assert.Contains(t, body, "March 10, 2024, 4:00:00 pm UTC")
	assert.Contains(t, body, `href="/activities/7/recordings/11/load"`)
	assert.Contains(t, body, `href="/activities/7/recordings/12/load"`)
	assert.Contains(t, body, "Lecture (audio_only)")
	assert.Contains(t, body, "pw123")
	assert.Contains(t, body, "/activities/7/recordings/toggle?")
	assert.Contains(t, body, "meetinguuid=uuid-1")
	assert.Contains(t, body, ">Show<")
}

func TestRecordings_ViewerHasNoToggle(t *testing.T) {
	svc := &fakeRecordings{page: samplePage(false)}
	user := models.User{Id: 2}

	w := httptest.NewRecorder()
	newRouter(svc, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/7/recordings", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "recordings/toggle")
	assert.Contains(t, w.Body.String(), "pw123")
}

func TestRecordings_JSON(t *testing.T) {
	svc := &fakeRecordings{page: samplePage(true)}
	user := models.User{Id: 1}

	w := httptest.NewRecorder()
	newRouter(svc, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/7/recordings.json", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var page models.RecordingPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "uuid-1", page.Rows[0].Session.MeetingUUID)
	assert.Len(t, page.Rows[0].Recordings, 2)
}

func TestRecordings_ErrorStatuses(t *testing.T) {
	user := models.User{Id: 1}

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"activity missing", errs.ErrActivityNotFound, http.StatusNotFound},
		{"not enrolled", errs.ErrAccessDenied, http.StatusForbidden},
		{"remote down", errs.ErrRemoteService, http.StatusBadGateway},
		{"storage", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newRouter(&fakeRecordings{err: tt.err}, &user).
				ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/7/recordings", nil))

			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRecordings_BadRequests(t *testing.T) {
	user := models.User{Id: 1}

	w := httptest.NewRecorder()
	newRouter(&fakeRecordings{}, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/abc/recordings", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	newRouter(&fakeRecordings{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/7/recordings", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToggle_RedirectsToListing(t *testing.T) {
	svc := &fakeRecordings{}
	user := models.User{Id: 1}

	w := httptest.NewRecorder()
	newRouter(svc, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		ToggleURL(7, models.SessionKey{MeetingUUID: "gkAB/cd==", RecordingStart: 1710086400}), nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/activities/7/recordings", w.Header().Get("Location"))
	require.Len(t, svc.toggled, 1)
	assert.Equal(t, models.SessionKey{MeetingUUID: "gkAB/cd==", RecordingStart: 1710086400}, svc.toggled[0])
}

func TestToggle_Validation(t *testing.T) {
	user := models.User{Id: 1}

	for _, target := range []string{
		"/activities/7/recordings/toggle?recordingstart=100",
		"/activities/7/recordings/toggle?meetinguuid=u1",
		"/activities/7/recordings/toggle?meetinguuid=u1&recordingstart=soon",
	} {
		svc := &fakeRecordings{}

		w := httptest.NewRecorder()
		newRouter(svc, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Empty(t, svc.toggled, target)
	}
}

func TestToggle_NoRecordings(t *testing.T) {
	user := models.User{Id: 1}

	w := httptest.NewRecorder()
	newRouter(&fakeRecordings{err: errs.ErrRecordingNotFound}, &user).ServeHTTP(w,
		httptest.NewRequest(http.MethodGet, "/activities/7/recordings/toggle?meetinguuid=u1&recordingstart=100", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "recordings could not be found")
	assert.Empty(t, w.Header().Get("Location"))
}

func TestLoad_RedirectsToPlayback(t *testing.T) {
	svc := &fakeRecordings{loadURL: "https://zoom.us/rec/play/v1"}
	user := models.User{Id: 2}

	w := httptest.NewRecorder()
	newRouter(svc, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/activities/7/recordings/11/load", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://zoom.us/rec/play/v1", w.Header().Get("Location"))
}

func TestToggle_ZeroStart(t *testing.T) {
	svc := &fakeRecordings{}
	user := models.User{Id: 1}

	w := httptest.NewRecorder()
	newRouter(svc, &user).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		ToggleURL(7, models.SessionKey{MeetingUUID: "u1", RecordingStart: 0}), nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, svc.toggled, 1)
	assert.Equal(t, models.SessionKey{MeetingUUID: "u1", RecordingStart: 0}, svc.toggled[0])
}
