package models

import "time"

type Activity struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name" validate:"required"`
	MeetingID  string `json:"meeting_id" db:"meeting_id" validate:"required"`
	StartTime  int64  `json:"start_time" db:"start_time"`
	Duration   int64  `json:"duration" db:"duration" validate:"gte=0"`
	Recurring  bool   `json:"recurring" db:"recurring"`
	Recurrence string `json:"recurrence,omitempty" db:"recurrence"`
}

// Ended reports whether recordings may exist yet. A recurring activity always
// qualifies; a single session qualifies once its scheduled end has passed.
func (a Activity) Ended(now time.Time) bool {
	return a.Recurring || now.Unix() > a.StartTime+a.Duration
}

type Enrollment struct {
	ActivityID int64  `json:"activity_id" db:"activity_id"`
	UserID     int    `json:"user_id" db:"user_id" validate:"required"`
	Role       string `json:"role" db:"role" validate:"required,role"`
}
