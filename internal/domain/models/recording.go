package models

type Recording struct {
	ID              int64  `json:"id" db:"id"`
	ActivityID      int64  `json:"activity_id" db:"activity_id"`
	MeetingUUID     string `json:"meeting_uuid" db:"meeting_uuid"`
	ZoomRecordingID string `json:"zoom_recording_id" db:"zoom_recording_id"`
	Name            string `json:"name" db:"name"`
	ExternalURL     string `json:"-" db:"external_url"`
	Passcode        string `json:"passcode" db:"passcode"`
	RecordingType   string `json:"recording_type" db:"recording_type"`
	RecordingStart  int64  `json:"recording_start" db:"recording_start"`
	ShowRecording   bool   `json:"show_recording" db:"show_recording"`
	TimeCreated     int64  `json:"time_created" db:"time_created"`
	TimeModified    int64  `json:"time_modified" db:"time_modified"`
}

// RemoteRecording is a single playable file reported by the meeting service.
type RemoteRecording struct {
	RecordingID    string
	MeetingUUID    string
	RecordingType  string
	URL            string
	Passcode       string
	RecordingStart int64
}

// SessionKey identifies a capture session: every recording sharing it was captured together.
type SessionKey struct {
	MeetingUUID    string `json:"meeting_uuid" validate:"required"`
	RecordingStart int64  `json:"recording_start"`
}

func (r Recording) Session() SessionKey {
	return SessionKey{MeetingUUID: r.MeetingUUID, RecordingStart: r.RecordingStart}
}
