package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrItemNotFound     = errors.New("content item not found")
	ErrRequestNotFound  = errors.New("consultation request not found")
	ErrAlreadyProcessed = errors.New("consultation request already processed")
	ErrNoRecipients     = errors.New("no recipients")
	ErrBootstrapAdmin   = errors.New("bootstrap admin cannot be removed")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrNothingSelected  = errors.New("nothing selected")
)

// GuardRejection reports which precondition stopped an event.
type GuardRejection struct {
	Guard string
}

func (e *GuardRejection) Error() string {
	return fmt.Sprintf("guard %s rejected event", e.Guard)
}

// InvalidEventError is returned when an event matches nothing allowed in the current state.
type InvalidEventError struct {
	State string
	Event string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("event %q is not valid in state %q", e.Event, e.State)
}

type DraftField string

const (
	FieldTitle       DraftField = "title"
	FieldDescription DraftField = "description"
	FieldCover       DraftField = "cover"
)

// IncompleteDraftError is returned by a commit attempted without a required field.
type IncompleteDraftError struct {
	Missing DraftField
}

func (e *IncompleteDraftError) Error() string {
	return fmt.Sprintf("draft is missing %s", e.Missing)
}

type RecipientDeliveryError struct {
	UserID int64
	Err    error
}

func (e *RecipientDeliveryError) Error() string {
	return fmt.Sprintf("deliver to %d: %v", e.UserID, e.Err)
}

func (e *RecipientDeliveryError) Unwrap() error {
	return e.Err
}

// StaleSelectionError means a menu entry points at a record deleted after the menu was built.
type StaleSelectionError struct {
	Kind ContentKind
	ID   int64
}

func (e *StaleSelectionError) Error() string {
	return fmt.Sprintf("%s %d is no longer available", e.Kind, e.ID)
}

func (e *StaleSelectionError) Is(target error) bool {
	return target == ErrContentNotFound
}

type AlreadyProcessedError struct {
	RequestID int64
	Status    ConsultationStatus
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("consultation request %d already %s", e.RequestID, e.Status)
}

func (e *AlreadyProcessedError) Is(target error) bool {
	return target == ErrAlreadyProcessed
}
