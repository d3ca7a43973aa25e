package service

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the referenced chat, message, or
	// membership does not exist (the user never joined the chat).
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned after a transaction kept aborting on
	// concurrent conflicting writers and the retry budget ran out. The
	// operation was not applied, not even partially.
	ErrConflict = errors.New("conflict: concurrent update")

	// ErrInvalidInput is returned for zero/garbage ids or empty payloads.
	ErrInvalidInput = errors.New("invalid input")
)

// mapNotFound translates gorm's record-not-found into the service taxonomy.
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
