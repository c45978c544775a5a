package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrRecordNotFound indicates that resource record was not found
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordExists indicates that a record with this id is already stored
	ErrRecordExists = errors.New("record already exists")
)
