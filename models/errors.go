package models

import (
	"errors"
	"fmt"
	"time"
)

// Precondition and lookup failures surfaced to the player.
var (
	ErrLoginRequired         = errors.New("login required")
	ErrSuspended             = errors.New("account suspended")
	ErrAlreadyEnrolled       = errors.New("already enrolled in this event")
	ErrEntryClosed           = errors.New("entry closed for this event")
	ErrEventNotFound         = errors.New("event not found")
	ErrEventFull             = errors.New("event is full")
	ErrNotEnrolled           = errors.New("not enrolled in this event")
	ErrInvalidCheckInMethod  = errors.New("check-in method must be photo or video")
	ErrProofRequired         = errors.New("check-in proof is required")
	ErrNothingDue            = errors.New("nothing due this month")
	ErrAlreadyPaid           = errors.New("already paid this month")
	ErrVenueNotFound         = errors.New("venue not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrNoActivePing          = errors.New("team has no active ping")
	ErrNotTeamMember         = errors.New("not a member of this team")
	ErrChampionshipNotFound  = errors.New("championship not found")
	ErrChampionshipFull      = errors.New("championship has no room for another team")
	ErrAlreadyRegistered     = errors.New("already registered in this championship")
	ErrInvalidEnrollmentMode = errors.New("enrollment mode must be solo, create-team or team")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailTaken            = errors.New("email already registered")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// SuspendedError carries the moment a suspension ends.
type SuspendedError struct {
	Until time.Time
}

func (e *SuspendedError) Error() string {
	return fmt.Sprintf("account suspended until %s", e.Until.Format(time.RFC3339))
}

func (e *SuspendedError) Is(target error) bool {
	return target == ErrSuspended
}
