package authstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zanzhit/meeting_recordings/internal/domain/constants"
	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/storage/postgres"
)

const uniqueViolation = "23505"

type AuthStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *AuthStorage {
	return &AuthStorage{db: db}
}

func (s *AuthStorage) SaveUser(ctx context.Context, email, userType string, passHash []byte) (id int, err error) {
	const op = "storage.postgres.auth.SaveUser"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}

		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("%s: %w", op, cerr)
		}
	}()

	query := fmt.Sprintf("INSERT INTO %s (email, password_hash) VALUES ($1, $2) RETURNING id", postgres.UsersTable)

	if err = tx.QueryRowxContext(ctx, query, email, passHash).Scan(&id); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, errs.ErrUserExists)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if userType == constants.Admin {
		adminQuery := fmt.Sprintf("INSERT INTO %s (user_id) VALUES ($1)", postgres.AdminsTable)
		if _, err = tx.ExecContext(ctx, adminQuery, id); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	return id, nil
}

func (s *AuthStorage) User(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.auth.User"

	var user models.User
	query := fmt.Sprintf("SELECT id, email, password_hash FROM %s WHERE email = $1", postgres.UsersTable)

	if err := s.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, errs.ErrInvalidCredentials)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	query = fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1)", postgres.AdminsTable)
	var isAdmin bool

	if err := s.db.GetContext(ctx, &isAdmin, query, user.Id); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if isAdmin {
		user.UserType = constants.Admin
	} else {
		user.UserType = constants.User
	}

	return user, nil
}
