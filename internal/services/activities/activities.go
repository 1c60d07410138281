package activityservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teambition/rrule-go"

	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/lib/sl"
)

type ActivityService struct {
	log             *slog.Logger
	activityStorage ActivityStorage
}

type ActivityStorage interface {
	SaveActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	Enroll(ctx context.Context, e models.Enrollment) error
}

func New(log *slog.Logger, activityStorage ActivityStorage) *ActivityService {
	return &ActivityService{
		log:             log,
		activityStorage: activityStorage,
	}
}

// SaveActivity stores a new activity. A recurrence rule marks the activity recurring.
func (s *ActivityService) SaveActivity(ctx context.Context, a models.Activity) (models.Activity, error) {
	const op = "service.activities.SaveActivity"

	log := s.log.With(
		slog.String("op", op),
		slog.String("meeting_id", a.MeetingID),
	)

	if a.Recurrence != "" {
		if _, err := rrule.StrToRRule(a.Recurrence); err != nil {
			log.Warn("invalid recurrence rule", sl.Err(err))

			return models.Activity{}, fmt.Errorf("%s: %w: %v", op, errs.ErrInvalidRecurrence, err)
		}

		a.Recurring = true
	}

	saved, err := s.activityStorage.SaveActivity(ctx, a)
	if err != nil {
		log.Error("failed to save activity", sl.Err(err))

		return models.Activity{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("activity saved", slog.Int64("activity_id", saved.ID))

	return saved, nil
}

func (s *ActivityService) Enroll(ctx context.Context, e models.Enrollment) error {
	const op = "service.activities.Enroll"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("activity_id", e.ActivityID),
		slog.Int("user_id", e.UserID),
		slog.String("role", e.Role),
	)

	if err := s.activityStorage.Enroll(ctx, e); err != nil {
		log.Error("failed to enroll user", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user enrolled")

	return nil
}
