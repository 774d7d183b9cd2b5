package storage

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrSaveNotFound  = errors.New("save not found")
	ErrSaveCorrupt   = errors.New("save data is corrupt")
	ErrInvalidSaveID = errors.New("invalid save id")
	ErrLockBusy      = errors.New("game is busy")
)

var saveIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// SaveError reports a failed save store operation for one save id.
type SaveError struct {
	SaveID string
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %q: %v", e.SaveID, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// ValidateSaveID rejects ids that could escape the save directory or break
// the key space.
func ValidateSaveID(saveID string) error {
	if len(saveID) > 128 || !saveIDPattern.MatchString(saveID) {
		return &SaveError{SaveID: saveID, Err: ErrInvalidSaveID}
	}
	return nil
}
