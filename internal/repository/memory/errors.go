package memory

import "errors"

var (
	// ErrUnknownSession mirrors the foreign key failure of a relational store.
	ErrUnknownSession = errors.New("meal references an unregistered session")
	ErrDuplicateMeal  = errors.New("meal id already exists")
)
