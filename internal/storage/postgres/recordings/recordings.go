package recordingstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/storage/postgres"
)

const recordingColumns = `id, activity_id, meeting_uuid, zoom_recording_id, name, external_url, passcode,
		recording_type, recording_start, show_recording, time_created, time_modified`

type RecordingStorage struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *RecordingStorage {
	return &RecordingStorage{
		db: db,
	}
}

// Recordings returns every stored recording of the activity, oldest first.
func (s *RecordingStorage) Recordings(ctx context.Context, activityID int64) ([]models.Recording, error) {
	const op = "storage.postgres.recordings.Recordings"

	recs := []models.Recording{}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE activity_id = $1 ORDER BY time_created ASC, id ASC`,
		recordingColumns, postgres.RecordingsTable)

	if err := s.db.SelectContext(ctx, &recs, query, activityID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return recs, nil
}

// SaveRecording inserts rec unless the activity already holds its remote recording id.
// The returned bool is false when the row already existed.
func (s *RecordingStorage) SaveRecording(ctx context.Context, rec models.Recording) (models.Recording, bool, error) {
	const op = "storage.postgres.recordings.SaveRecording"

	query := fmt.Sprintf(`INSERT INTO %s (activity_id, meeting_uuid, zoom_recording_id, name, external_url, passcode,
		recording_type, recording_start, show_recording, time_created, time_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (activity_id, zoom_recording_id) DO NOTHING
		RETURNING id`, postgres.RecordingsTable)

	row := s.db.QueryRowxContext(ctx, query, rec.ActivityID, rec.MeetingUUID, rec.ZoomRecordingID, rec.Name,
		rec.ExternalURL, rec.Passcode, rec.RecordingType, rec.RecordingStart, rec.ShowRecording,
		rec.TimeCreated, rec.TimeModified)
	if err := row.Scan(&rec.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, false, nil
		}

		return rec, false, fmt.Errorf("%s: %w", op, err)
	}

	return rec, true, nil
}

// ToggleVisibility flips show_recording for the whole capture session in one statement.
func (s *RecordingStorage) ToggleVisibility(ctx context.Context, activityID int64, key models.SessionKey, now time.Time) (int64, error) {
	const op = "storage.postgres.recordings.ToggleVisibility"

	query := fmt.Sprintf(`UPDATE %s SET show_recording = NOT show_recording, time_modified = $1
		WHERE activity_id = $2 AND meeting_uuid = $3 AND recording_start = $4`, postgres.RecordingsTable)

	result, err := s.db.ExecContext(ctx, query, now.Unix(), activityID, key.MeetingUUID, key.RecordingStart)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if rowsAffected == 0 {
		return 0, fmt.Errorf("%s: %w", op, errs.ErrRecordingNotFound)
	}

	return rowsAffected, nil
}

func (s *RecordingStorage) Recording(ctx context.Context, activityID, recordingID int64) (models.Recording, error) {
	const op = "storage.postgres.recordings.Recording"

	var rec models.Recording
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE activity_id = $1 AND id = $2`, recordingColumns, postgres.RecordingsTable)

	if err := s.db.GetContext(ctx, &rec, query, activityID, recordingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Recording{}, fmt.Errorf("%s: %w", op, errs.ErrRecordingNotFound)
		}

		return models.Recording{}, fmt.Errorf("%s: %w", op, err)
	}

	return rec, nil
}

// SaveView records that userID opened the recording; repeated views refresh viewed_at.
func (s *RecordingStorage) SaveView(ctx context.Context, recordingID int64, userID int, viewedAt time.Time) error {
	const op = "storage.postgres.recordings.SaveView"

	query := fmt.Sprintf(`INSERT INTO %s (id, recording_id, user_id, viewed_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (recording_id, user_id) DO UPDATE SET viewed_at = EXCLUDED.viewed_at`, postgres.ViewsTable)

	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), recordingID, userID, viewedAt.Unix()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
