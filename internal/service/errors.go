package service

import (
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrPlanNotFound          = errors.New("workout plan not found")
	ErrEnrollmentNotFound    = errors.New("enrollment not found")
	ErrPlanAlreadyInProgress = errors.New("user already has a plan in progress")
	ErrInvalidOperation      = errors.New("invalid operation for this enrollment")
	ErrEnrollmentNoAccess    = fmt.Errorf("%w: enrollment belongs to another user", ErrInvalidOperation)
	ErrProgressConflict      = errors.New("enrollment was updated concurrently, try again")
	ErrDuplicateCheckIn      = errors.New("already checked in for this date")
	ErrInvalidInput          = errors.New("invalid input")
	ErrStorageUnavailable    = errors.New("image storage is not configured")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
