package models

import (
	"errors"
	"fmt"
)

// ParticipantType distinguishes identity-linked participants from ones that
// exist only as a name inside the event.
type ParticipantType string

const (
	// ParticipantUser is linked to an external user identity and can act on
	// the event through the API.
	ParticipantUser ParticipantType = "user"

	// ParticipantExternal was added by name only. It carries balances but has
	// no identity of its own.
	ParticipantExternal ParticipantType = "external"
)

var ErrInvalidParticipantType = errors.New("invalid participant type")

// Participant is a person taking part in one event.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// EventID is the event this participant belongs to.
	EventID string

	// UserID is the external user identity, empty for ParticipantExternal.
	UserID string

	// Username is the optional handle of the linked identity.
	Username string

	// DisplayName is shown in reports and settlements, 2-50 characters.
	DisplayName string

	// Type tells whether the participant is identity-linked.
	Type ParticipantType

	// Active is false once the participant has been removed from the event.
	Active bool

	// AddedBy is the external user ID of whoever added this participant.
	AddedBy string

	// CreatedAt is the Unix timestamp when the participant was added.
	CreatedAt int64

	// DeletedAt and DeletedBy record soft deletion (zero values while active).
	DeletedAt int64
	DeletedBy string
}

// Validate checks the participant's own fields.
func (p *Participant) Validate() error {
	if err := validateName(p.DisplayName, 2, 50); err != nil {
		return fmt.Errorf("participant name: %w", err)
	}
	switch p.Type {
	case ParticipantUser, ParticipantExternal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidParticipantType, p.Type)
	}
	if p.Type == ParticipantUser && p.UserID == "" {
		return fmt.Errorf("%w: user participant without user ID", ErrInvalidParticipantType)
	}
	return nil
}
