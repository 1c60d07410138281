package errs

import "errors"

var (
	ErrUserType           = errors.New("wrong user type")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	ErrActivityNotFound  = errors.New("activity not found")
	ErrInvalidRecurrence = errors.New("invalid recurrence rule")
	ErrAccessDenied      = errors.New("access denied")

	ErrRecordingNotFound = errors.New("recordings could not be found")
	ErrRemoteService     = errors.New("meeting service request failed")
)
