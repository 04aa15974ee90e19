package services

import "errors"

// Transform service errors
var (
	// ErrBusy is returned when no transform slot frees up before the request
	// deadline.
	ErrBusy = errors.New("transform capacity exhausted")

	// ErrNilContent is returned for uploads without a body.
	ErrNilContent = errors.New("upload has no content")
)
