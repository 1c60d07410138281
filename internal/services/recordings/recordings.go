package recordingservice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/zanzhit/meeting_recordings/internal/domain/constants"
	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
	"github.com/zanzhit/meeting_recordings/internal/domain/models"
	"github.com/zanzhit/meeting_recordings/internal/lib/sl"
)

type RecordingService struct {
	log              *slog.Logger
	recordingStorage RecordingStorage
	activityProvider ActivityProvider
	meetingService   MeetingService
	location         *time.Location
	now              func() time.Time
}

type RecordingStorage interface {
	Recordings(ctx context.Context, activityID int64) ([]models.Recording, error)
	SaveRecording(ctx context.Context, rec models.Recording) (models.Recording, bool, error)
	ToggleVisibility(ctx context.Context, activityID int64, key models.SessionKey, now time.Time) (int64, error)
	Recording(ctx context.Context, activityID, recordingID int64) (models.Recording, error)
	SaveView(ctx context.Context, recordingID int64, userID int, viewedAt time.Time) error
}

type ActivityProvider interface {
	Activity(ctx context.Context, id int64) (models.Activity, error)
	Role(ctx context.Context, activityID int64, userID int) (string, error)
}

type MeetingService interface {
	RecordingGroups(ctx context.Context, meetingID string) (map[int64][]models.RemoteRecording, error)
}

func New(
	log *slog.Logger,
	recordingStorage RecordingStorage,
	activityProvider ActivityProvider,
	meetingService MeetingService,
	location *time.Location,
) *RecordingService {
	if location == nil {
		location = time.UTC
	}

	return &RecordingService{
		log:              log,
		recordingStorage: recordingStorage,
		activityProvider: activityProvider,
		meetingService:   meetingService,
		location:         location,
		now:              time.Now,
	}
}

// WithClock replaces the time source.
func (s *RecordingService) WithClock(now func() time.Time) *RecordingService {
	s.now = now

	return s
}

// Page builds the recordings listing for an activity. Managers first import any
// recordings the meeting service reports that are not stored yet; viewers only
// see recordings whose visibility flag is set.
func (s *RecordingService) Page(ctx context.Context, activityID int64, user models.User) (models.RecordingPage, error) {
	const op = "service.recordings.Page"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("activity_id", activityID),
		slog.Int("user_id", user.Id),
	)

	activity, manager, err := s.authorize(ctx, activityID, user)
	if err != nil {
		log.Warn("listing not authorized", sl.Err(err))

		return models.RecordingPage{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()

	page := models.RecordingPage{
		Activity:    activity,
		Manager:     manager,
		NextSession: s.nextSession(log, activity, now),
		Rows:        []models.RecordingRow{},
	}

	if !activity.Ended(now) {
		log.Info("session has not ended yet, skipping listing")

		return page, nil
	}

	page.Listed = true

	recs, err := s.recordingStorage.Recordings(ctx, activityID)
	if err != nil {
		log.Error("failed to get recordings", sl.Err(err))

		return models.RecordingPage{}, fmt.Errorf("%s: %w", op, err)
	}

	if manager {
		recs, err = s.sync(ctx, activity, recs, now)
		if err != nil {
			log.Error("failed to sync recordings", sl.Err(err))

			return models.RecordingPage{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	page.Rows = s.rows(recs, manager)

	log.Info("recordings listed", slog.Int("rows", len(page.Rows)))

	return page, nil
}

// Toggle flips visibility of every recording in the capture session.
func (s *RecordingService) Toggle(ctx context.Context, activityID int64, user models.User, key models.SessionKey) (int64, error) {
	const op = "service.recordings.Toggle"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("activity_id", activityID),
		slog.Int("user_id", user.Id),
		slog.String("meeting_uuid", key.MeetingUUID),
		slog.Int64("recording_start", key.RecordingStart),
	)

	_, manager, err := s.authorize(ctx, activityID, user)
	if err != nil {
		log.Warn("toggle not authorized", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if !manager {
		log.Warn("toggle requires manager capability")

		return 0, fmt.Errorf("%s: %w", op, errs.ErrAccessDenied)
	}

	toggled, err := s.recordingStorage.ToggleVisibility(ctx, activityID, key, s.now())
	if err != nil {
		log.Error("failed to toggle recordings", sl.Err(err))

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("recording visibility toggled", slog.Int64("recordings", toggled))

	return toggled, nil
}

// Load resolves the playback URL of a recording and records the view.
func (s *RecordingService) Load(ctx context.Context, activityID, recordingID int64, user models.User) (string, error) {
	const op = "service.recordings.Load"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("activity_id", activityID),
		slog.Int64("recording_id", recordingID),
		slog.Int("user_id", user.Id),
	)

	_, manager, err := s.authorize(ctx, activityID, user)
	if err != nil {
		log.Warn("load not authorized", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	rec, err := s.recordingStorage.Recording(ctx, activityID, recordingID)
	if err != nil {
		log.Error("failed to get recording", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !manager && !rec.ShowRecording {
		log.Warn("hidden recording requested by viewer")

		return "", fmt.Errorf("%s: %w", op, errs.ErrRecordingNotFound)
	}

	if err := s.recordingStorage.SaveView(ctx, rec.ID, user.Id, s.now()); err != nil {
		log.Error("failed to save recording view", sl.Err(err))
	}

	return rec.ExternalURL, nil
}

func (s *RecordingService) authorize(ctx context.Context, activityID int64, user models.User) (models.Activity, bool, error) {
	activity, err := s.activityProvider.Activity(ctx, activityID)
	if err != nil {
		return models.Activity{}, false, err
	}

	if user.UserType == constants.Admin {
		return activity, true, nil
	}

	role, err := s.activityProvider.Role(ctx, activityID, user.Id)
	if err != nil {
		return models.Activity{}, false, err
	}

	switch role {
	case constants.RoleManager:
		return activity, true, nil
	case constants.RoleViewer:
		return activity, false, nil
	default:
		return models.Activity{}, false, errs.ErrAccessDenied
	}
}

// sync stores every remote recording missing from recs and returns recs with the
// new rows appended. Remote groups are walked in start order.
func (s *RecordingService) sync(ctx context.Context, activity models.Activity, recs []models.Recording, now time.Time) ([]models.Recording, error) {
	groups, err := s.meetingService.RecordingGroups(ctx, activity.MeetingID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		known[rec.ZoomRecordingID] = struct{}{}
	}

	starts := make([]int64, 0, len(groups))
	for start := range groups {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	for _, start := range starts {
		for _, remote := range groups[start] {
			if _, ok := known[remote.RecordingID]; ok {
				continue
			}

			rec, inserted, err := s.recordingStorage.SaveRecording(ctx, models.Recording{
				ActivityID:      activity.ID,
				MeetingUUID:     remote.MeetingUUID,
				ZoomRecordingID: remote.RecordingID,
				Name:            fmt.Sprintf("%s (%s)", activity.Name, remote.RecordingType),
				ExternalURL:     remote.URL,
				Passcode:        remote.Passcode,
				RecordingType:   remote.RecordingType,
				RecordingStart:  start,
				TimeCreated:     now.Unix(),
				TimeModified:    now.Unix(),
			})
			if err != nil {
				return nil, err
			}

			known[remote.RecordingID] = struct{}{}

			// Lost an insert race with a concurrent listing; the row shows up on the next load.
			if !inserted {
				continue
			}

			recs = append(recs, rec)
		}
	}

	return recs, nil
}

// rows groups recordings by capture session in order of first appearance.
func (s *RecordingService) rows(recs []models.Recording, manager bool) []models.RecordingRow {
	rows := []models.RecordingRow{}
	index := make(map[models.SessionKey]int)

	for _, rec := range recs {
		if !manager && !rec.ShowRecording {
			continue
		}

		key := rec.Session()

		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, models.RecordingRow{
				Session: key,
				Start:   time.Unix(key.RecordingStart, 0).In(s.location),
			})
		}

		row := &rows[i]
		row.Recordings = append(row.Recordings, rec)
		row.Visible = row.Visible || rec.ShowRecording

		if row.Passcode == "" {
			row.Passcode = rec.Passcode
		}
	}

	return rows
}

func (s *RecordingService) nextSession(log *slog.Logger, activity models.Activity, now time.Time) *time.Time {
	if activity.Recurrence == "" {
		return nil
	}

	r, err := rrule.StrToRRule(activity.Recurrence)
	if err != nil {
		log.Warn("stored recurrence rule is invalid", sl.Err(err))

		return nil
	}

	r.DTStart(time.Unix(activity.StartTime, 0).In(s.location))

	next := r.After(now, false)
	if next.IsZero() {
		return nil
	}

	return &next
}
