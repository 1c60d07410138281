package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zanzhit/meeting_recordings/internal/domain/constants"
	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	jwtlib "github.com/zanzhit/meeting_recordings/internal/lib/jwt"
	"github.com/zanzhit/meeting_recordings/internal/lib/sl"
)

type AuthService struct {
	secret       string
	tokenTTL     time.Duration
	log          *slog.Logger
	userSaver    UserSaver
	userProvider UserProvider
}

type UserSaver interface {
	SaveUser(ctx context.Context, email, userType string, passHash []byte) (int, error)
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
}

func New(log *slog.Logger, userSaver UserSaver, userProvider UserProvider, tokenTTL time.Duration, secret string) *AuthService {
	return &AuthService{
		secret:       secret,
		tokenTTL:     tokenTTL,
		log:          log,
		userSaver:    userSaver,
		userProvider: userProvider,
	}
}

func (s *AuthService) RegisterNewUser(ctx context.Context, email, password, userType string) (int, error) {
	const op = "service.auth.RegisterNewUser"

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	if userType == "" {
		userType = constants.User
	}

	if userType != constants.User && userType != constants.Admin {
		log.Warn("invalid user_type", sl.Err(errs.ErrUserType))

		return 0, fmt.Errorf("%s: %w", op, errs.ErrUserType)
	}

	log.Info("registering user")

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.userSaver.SaveUser(ctx, email, userType, passHash)
	if err != nil {
		log.Error("failed to save user", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.auth.Login"

	log := s.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	log.Info("attempting to login user")

	user, err := s.userProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			log.Warn("user not found", sl.Err(err))

			return "", fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
		}

		log.Error("failed to get user", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("invalid credentials", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
	}

	log.Info("user logged in successfully")

	token, err := jwtlib.NewToken(user, s.tokenTTL, s.secret)
	if err != nil {
		log.Error("failed to generate token", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// CreateInitialAdmin registers the bootstrap admin unless that email already exists.
func (s *AuthService) CreateInitialAdmin(ctx context.Context, email, password string) error {
	const op = "service.auth.CreateInitialAdmin"

	log := s.log.With(
		slog.String("op", op),
	)

	if email == "" || password == "" {
		return fmt.Errorf("%s: admin email and password are required", op)
	}

	_, err := s.userProvider.User(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errs.ErrInvalidCredentials) {
		return fmt.Errorf("%s: failed to check admin existence: %w", op, err)
	}

	if _, err := s.RegisterNewUser(ctx, email, password, constants.Admin); err != nil {
		log.Error("failed to create admin", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("admin created successfully")

	return nil
}
