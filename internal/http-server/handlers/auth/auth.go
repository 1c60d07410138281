package authhandler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/http-server/handlers"
	"github.com/zanzhit/meeting_recordings/internal/lib/api/response"
	"github.com/zanzhit/meeting_recordings/internal/lib/sl"
)

type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	UserType string `json:"user_type"`
}

type AuthHandler struct {
	log  *slog.Logger
	user User
}

type User interface {
	Login(ctx context.Context, email, password string) (string, error)
	RegisterNewUser(ctx context.Context, email, password, userType string) (int, error)
}

func New(
	log *slog.Logger,
	user User,
) *AuthHandler {
	return &AuthHandler{
		log:  log,
		user: user,
	}
}

func (h *AuthHandler) RegisterNewUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.RegisterNewUser"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}

	id, err := h.user.RegisterNewUser(r.Context(), req.Email, req.Password, req.UserType)
	if err != nil {
		if errors.Is(err, errs.ErrUserExists) {
			handlers.Error(w, r, http.StatusBadRequest, response.Error("user with this email already exists", ""))

			return
		}
		if errors.Is(err, errs.ErrUserType) {
			handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid user_type", ""))

			return
		}

		log.Error("failed to register new user", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to register new user", middleware.GetReqID(r.Context())))

		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]int{"id": id})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.Login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req, ok := h.decode(w, r, log)
	if !ok {
		return
	}

	token, err := h.user.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			handlers.Error(w, r, http.StatusBadRequest, response.Error("invalid credentials", ""))

			return
		}

		log.Error("failed to login", sl.Err(err))

		handlers.Error(w, r, http.StatusInternalServerError, response.Error("failed to login", middleware.GetReqID(r.Context())))

		return
	}

	render.JSON(w, r, map[string]string{"token": token})
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger) (Request, bool) {
	var req Request
	err := render.DecodeJSON(r.Body, &req)
	if err != nil {
		if errors.Is(err, io.EOF) {
			log.Error("request body is empty")

			handlers.Error(w, r, http.StatusBadRequest, response.Error("empty request", ""))

			return Request{}, false
		}

		log.Error("failed to decode request body", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.Error("failed to decode request", middleware.GetReqID(r.Context())))

		return Request{}, false
	}

	log.Info("request body decoded", slog.String("email", req.Email))

	if err := validator.New().Struct(req); err != nil {
		validateErr := err.(validator.ValidationErrors)

		log.Error("invalid request", sl.Err(err))

		handlers.Error(w, r, http.StatusBadRequest, response.ValidationError(validateErr))

		return Request{}, false
	}

	return req, true
}
