package models

import "errors"

// Store-level sentinels. Every store implementation translates its driver
// errors into these.
var (
	ErrNotFound            = errors.New("record not found")
	ErrActiveAttemptExists = errors.New("an in-progress attempt already exists for this user and quiz")
	ErrAttemptNotActive    = errors.New("attempt is no longer active")
	ErrDuplicateEmail      = errors.New("email already exists")
)
