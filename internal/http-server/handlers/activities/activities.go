package activityhandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/zanzhit/meeting_recordings/internal/domain/constants"
	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/http-server/handlers"
	"github.com/zanzhit/meeting_recordings/internal/lib/api/response"
	"github.com/zanzhit/meeting_recordings/internal/lib/sl"
)

type ActivityHandler struct {
	log      *slog.Logger
	activity Activity
	validate *validator.Validate
}

type Activity interface {
	SaveActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	Enroll(ctx context.Context, e models.Enrollment) error
}

func New(
	log *slog.Logger,
	activity Activity,
) *ActivityHandler {
	validate := validator.New()
	err := validate.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		role := fl.Field().String()

		return role == constants.RoleManager || role == constants.RoleViewer
	})
	if err != nil {
		panic("failed to register role validation: " + err.Error())
	}

	return &ActivityHandler{
		log:      log,
		activity: activity,
		validate: validate,
	}
}

func (h *ActivityHandler) SaveActivity(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activities.SaveActivity"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.Activity
	if !h.decode(w, r, log, &req) {
		return
	}

	saved, err := h.activity.SaveActivity(r.Context(), req)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidRecurrence) {
			handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid recurrence rule", ""))

			return
		}

		log.Error("failed to save activity", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to save activity", middleware.GetReqID(r.Context())))

		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, saved)
}

func (h *ActivityHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activities.Enroll"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	activityID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid activity id", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid activity id", ""))

		return
	}

	var req models.Enrollment
	if !h.decode(w, r, log, &req) {
		return
	}

	req.ActivityID = activityID

	if err := h.activity.Enroll(r.Context(), req); err != nil {
		if errors.Is(err, errs.ErrActivityNotFound) {
			handlers.Error(w, r, http.StatusNotFound, response.Error("activity not found", ""))

			return
		}
		if errors.Is(err, errs.ErrUserNotFound) {
			handlers.Error(w, r, http.StatusNotFound, response.Error("user not found", ""))

			return
		}

		log.Error("failed to enroll user", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to enroll user", middleware.GetReqID(r.Context())))

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ActivityHandler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	err := render.DecodeJSON(r.Body, req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")

			handlers.Error(w, r, http.StatusBadRequest, response.Error("empty request", ""))

			return false
		}

		log.Error("failed to decode request body", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("failed to decode request", middleware.GetReqID(r.Context())))

		return false
	}

	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return false
	}

	return true
}
