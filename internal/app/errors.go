package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMissingCredential = errors.New("session credential is missing")
	ErrNotOwner          = errors.New("meal belongs to another session")
	ErrMealNotFound      = errors.New("meal not found")
)
