package services

import "errors"

var (
	// ErrNotFound is returned when the requested report does not exist.
	ErrNotFound = errors.New("report not found")

	// ErrPermission is returned when the acting user is neither the
	// report owner nor an admin.
	ErrPermission = errors.New("not permitted")
)
