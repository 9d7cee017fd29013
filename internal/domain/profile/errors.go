package profile

import "errors"

var (
	ErrProfileNotFound = errors.New("health profile not found")
	ErrMissingClientID = errors.New("client id is required")
	ErrMissingUserID   = errors.New("an authenticated user is required")
)
