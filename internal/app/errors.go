package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound         = errors.New("not found")
	ErrSuperseded       = errors.New("load superseded by a newer load")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMoveDeclined     = errors.New("move declined")
)
