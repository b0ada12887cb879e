package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	// EventActive accepts new participants, expenses and settlements.
	EventActive EventStatus = "active"

	// EventClosed keeps its data readable but rejects modifications.
	EventClosed EventStatus = "closed"

	// EventArchived is retained for history only.
	EventArchived EventStatus = "archived"
)

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidStatus   = errors.New("invalid event status")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// DefaultCurrency is assigned to events created without an explicit currency.
const DefaultCurrency = "RUB"

// Event represents a gathering whose expenses are tracked and settled together.
type Event struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	// Name is the human-readable name, 3-100 characters.
	Name string

	// Description is optional free text shown alongside the event.
	Description string

	// CreatorID is the external user ID of whoever created the event.
	CreatorID string

	// ChatID optionally links the event to the upstream conversation it
	// was created from, as an opaque reference.
	ChatID string

	// Status is the lifecycle state. New events start as EventActive.
	Status EventStatus

	// Currency is the ISO 4217 code all amounts in this event share.
	Currency string

	// CreatedAt is the Unix timestamp when the event was created.
	CreatedAt int64

	// ClosedAt is the Unix timestamp when the event was closed (0 while active).
	ClosedAt int64

	// DeletedAt is the Unix timestamp of soft deletion (0 while live).
	DeletedAt int64
}

// Deleted reports whether the event has been soft-deleted.
func (e *Event) Deleted() bool { return e.DeletedAt != 0 }

// Editable reports whether the event still accepts changes.
func (e *Event) Editable() bool { return e.Status == EventActive && !e.Deleted() }

// Validate checks the event's own fields. Cross-entity rules live in services.
func (e *Event) Validate() error {
	if err := validateName(e.Name, 3, 100); err != nil {
		return fmt.Errorf("event name: %w", err)
	}
	switch e.Status {
	case EventActive, EventClosed, EventArchived:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}
	if len(e.Currency) != 3 {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, e.Currency)
	}
	return nil
}

// validateName enforces a trimmed length between min and max runes.
// Lengths count runes, not bytes, so non-ASCII names are not penalized.
func validateName(name string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case n < min:
		return fmt.Errorf("%w: shorter than %d characters", ErrInvalidName, min)
	case n > max:
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidName, max)
	}
	return nil
}
