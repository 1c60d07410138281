package activitystorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/storage/postgres"
)

const (
	foreignKeyViolation = "23503"
	userForeignKey      = "enrollments_user_id_fkey"
)

type ActivityStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *ActivityStorage {
	return &ActivityStorage{
		db: db,
	}
}

func (s *ActivityStorage) SaveActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	const op = "storage.postgres.activities.SaveActivity"

	query := fmt.Sprintf(`INSERT INTO %s (name, meeting_id, start_time, duration, recurring, recurrence)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, name, meeting_id, start_time, duration, recurring, recurrence`,
		postgres.ActivitiesTable)

	err := s.db.QueryRowxContext(ctx, query, a.Name, a.MeetingID, a.StartTime, a.Duration, a.Recurring, a.Recurrence).StructScan(&a)
	if err != nil {
		return a, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

func (s *ActivityStorage) Activity(ctx context.Context, id int64) (models.Activity, error) {
	const op = "storage.postgres.activities.Activity"

	var a models.Activity
	query := fmt.Sprintf(`SELECT id, name, meeting_id, start_time, duration, recurring, recurrence FROM %s WHERE id = $1`,
		postgres.ActivitiesTable)

	if err := s.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Activity{}, fmt.Errorf("%s: %w", op, errs.ErrActivityNotFound)
		}

		return models.Activity{}, fmt.Errorf("%s: %w", op, err)
	}

	return a, nil
}

// Role returns the caller's enrollment role, or "" when not enrolled.
func (s *ActivityStorage) Role(ctx context.Context, activityID int64, userID int) (string, error) {
	const op = "storage.postgres.activities.Role"

	var role string
	query := fmt.Sprintf(`SELECT role FROM %s WHERE activity_id = $1 AND user_id = $2`, postgres.EnrollmentsTable)

	if err := s.db.GetContext(ctx, &role, query, activityID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return role, nil
}

func (s *ActivityStorage) Enroll(ctx context.Context, e models.Enrollment) error {
	const op = "storage.postgres.activities.Enroll"

	query := fmt.Sprintf(`INSERT INTO %s (activity_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (activity_id, user_id) DO UPDATE SET role = EXCLUDED.role`, postgres.EnrollmentsTable)

	if _, err := s.db.ExecContext(ctx, query, e.ActivityID, e.UserID, e.Role); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			if pqErr.Constraint == userForeignKey {
				return fmt.Errorf("%s: %w", op, errs.ErrUserNotFound)
			}

			return fmt.Errorf("%s: %w", op, errs.ErrActivityNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
