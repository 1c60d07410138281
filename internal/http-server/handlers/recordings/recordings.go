package recordinghandler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/http-server/handlers"
	authmiddleware "github.com/zanzhit/meeting_recordings/internal/http-server/middleware/auth"
	"github.com/zanzhit/meeting_recordings/internal/lib/api/response"
	"github.com/zanzhit/meeting_recordings/internal/lib/sl"
)

const dateLayout = "January 2, 2006, 3:04:05 pm MST"

//go:embed templates/recordings.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.New("recordings.html").Funcs(template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format(dateLayout)
	},
	"loadURL":   LoadURL,
	"toggleURL": ToggleURL,
}).ParseFS(templatesFS, "templates/recordings.html"))

type RecordingHandler struct {
	log        *slog.Logger
	recordings Recordings
}

type Recordings interface {
	Page(ctx context.Context, activityID int64, user models.User) (models.RecordingPage, error)
	Toggle(ctx context.Context, activityID int64, user models.User, key models.SessionKey) (int64, error)
	Load(ctx context.Context, activityID, recordingID int64, user models.User) (string, error)
}

func New(log *slog.Logger, recordings Recordings) *RecordingHandler {
	return &RecordingHandler{
		log:        log,
		recordings: recordings,
	}
}

func ListURL(activityID int64) string {
	return fmt.Sprintf("/activities/%d/recordings", activityID)
}

func LoadURL(activityID, recordingID int64) string {
	return fmt.Sprintf("/activities/%d/recordings/%d/load", activityID, recordingID)
}

func ToggleURL(activityID int64, key models.SessionKey) string {
	params := url.Values{}
	params.Set("meetinguuid", key.MeetingUUID)
	params.Set("recordingstart", strconv.FormatInt(key.RecordingStart, 10))

	return fmt.Sprintf("/activities/%d/recordings/toggle?%s", activityID, params.Encode())
}

// Recordings renders the listing as HTML, or as JSON when requested with a .json suffix.
func (h *RecordingHandler) Recordings(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recordings.Recordings"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	activityID, user, ok := h.activityAndUser(w, r, log)
	if !ok {
		return
	}

	page, err := h.recordings.Page(r.Context(), activityID, user)
	if err != nil {
		h.fail(w, r, log, err, "failed to list recordings")

		return
	}

	if format, _ := r.Context().Value(middleware.URLFormatCtxKey).(string); format == "json" {
		render.JSON(w, r, page)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := pageTemplate.Execute(w, page); err != nil {
		log.Error("failed to render recordings page", sl.Err(err))
	}
}

type ToggleRequest struct {
	MeetingUUID    string `validate:"required"`
	RecordingStart int64
}

// Toggle flips visibility of a capture session and redirects back to the listing.
func (h *RecordingHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recordings.Toggle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	activityID, user, ok := h.activityAndUser(w, r, log)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		log.Error("failed to parse form", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid request", ""))

		return
	}

	var req ToggleRequest
	req.MeetingUUID = r.Form.Get("meetinguuid")

	raw := r.Form.Get("recordingstart")
	if raw == "" {
		log.Error("recordingstart is missing")

		handlers.Error(w, r, http.StatusBadRequest, response.Error("field RecordingStart is a required field", ""))

		return
	}

	start, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Error("invalid recordingstart", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("field RecordingStart is not valid", ""))

		return
	}

	req.RecordingStart = start

	if err := validator.New().Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return
	}

	key := models.SessionKey{MeetingUUID: req.MeetingUUID, RecordingStart: req.RecordingStart}

	if _, err := h.recordings.Toggle(r.Context(), activityID, user, key); err != nil {
		h.fail(w, r, log, err, "failed to toggle recordings")

		return
	}

	http.Redirect(w, r, ListURL(activityID), http.StatusSeeOther)
}

// Load redirects to the external playback URL of a recording.
func (h *RecordingHandler) Load(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recordings.Load"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	activityID, user, ok := h.activityAndUser(w, r, log)
	if !ok {
		return
	}

	recordingID, err := strconv.ParseInt(chi.URLParam(r, "recordingID"), 10, 64)
	if err != nil {
		log.Error("invalid recording id", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid recording id", ""))

		return
	}

	externalURL, err := h.recordings.Load(r.Context(), activityID, recordingID, user)
	if err != nil {
		h.fail(w, r, log, err, "failed to load recording")

		return
	}

	http.Redirect(w, r, externalURL, http.StatusSeeOther)
}

func (h *RecordingHandler) activityAndUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int64, models.User, bool) {
	activityID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid activity id", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid activity id", ""))

		return 0, models.User{}, false
	}

	user, ok := r.Context().Value(authmiddleware.UserContextKey).(models.User)
	if !ok {
		log.Error("user not found in context")

		handlers.Error(w, r, http.StatusUnauthorized, response.Error("user not found", ""))

		return 0, models.User{}, false
	}

	return activityID, user, true
}

func (h *RecordingHandler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, errs.ErrActivityNotFound):
		handlers.Error(w, r, http.StatusNotFound, response.Error("activity not found", ""))
	case errors.Is(err, errs.ErrRecordingNotFound):
		handlers.Error(w, r, http.StatusNotFound, response.Error("recordings could not be found", ""))
	case errors.Is(err, errs.ErrAccessDenied):
		handlers.Error(w, r, http.StatusForbidden, response.Error("access denied", ""))
	case errors.Is(err, errs.ErrRemoteService):
		log.Error(msg, sl.Err(err))

		handlers.Error(w, r, http.StatusBadGateway, response.Error(msg, middleware.GetReqID(r.Context())))
	default:
		log.Error(msg, sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error(msg, middleware.GetReqID(r.Context())))
	}
}
