package models

import "time"

// RecordingPage is what the listing renders, as HTML or JSON.
type RecordingPage struct {
	Activity    Activity       `json:"activity"`
	Manager     bool           `json:"manager"`
	Listed      bool           `json:"listed"`
	NextSession *time.Time     `json:"next_session,omitempty"`
	Rows        []RecordingRow `json:"rows"`
}

// RecordingRow is one capture session.
type RecordingRow struct {
	Session    SessionKey  `json:"session"`
	Start      time.Time   `json:"start"`
	Passcode   string      `json:"passcode"`
	Visible    bool        `json:"visible"`
	Recordings []Recording `json:"recordings"`
}
