package models

import "fmt"

// Family is a group of participants inside one event that settles as a single
// unit. All debts and credits of its members are carried by the head.
type Family struct {
	// ID is the unique identifier for the family (UUID format).
	ID string

	// EventID is the event this family belongs to.
	EventID string

	// TemplateID links back to the FamilyTemplate this family was stamped
	// from, empty when the family was created directly in the event.
	TemplateID string

	// Name is the display name of the family, 2-50 characters.
	Name string

	// HeadID is the participant who settles on behalf of the family.
	// Empty until a head is assigned; balance aggregation requires one.
	HeadID string

	// CreatedAt is the Unix timestamp when the family was created.
	CreatedAt int64
}

// Validate checks the family's own fields.
func (f *Family) Validate() error {
	if err := validateName(f.Name, 2, 50); err != nil {
		return fmt.Errorf("family name: %w", err)
	}
	return nil
}

// FamilyMember ties a participant to a family within the same event.
type FamilyMember struct {
	ID            string
	FamilyID      string
	ParticipantID string
	CreatedAt     int64
}

// FamilyTemplate is a reusable family definition owned by a user. It lives
// outside any event and is instantiated into events on demand.
type FamilyTemplate struct {
	// ID is the unique identifier for the template (UUID format).
	ID string

	// CreatorID is the external user ID of the template owner.
	CreatorID string

	// Name is the display name, 2-50 characters.
	Name string

	// Description is optional free text.
	Description string

	// Members are the people stamped into an event when the template is used.
	Members []FamilyTemplateMember

	// CreatedAt is the Unix timestamp when the template was created.
	CreatedAt int64
}

// Validate checks the template and all its members.
func (t *FamilyTemplate) Validate() error {
	if err := validateName(t.Name, 2, 50); err != nil {
		return fmt.Errorf("template name: %w", err)
	}
	heads := 0
	for i := range t.Members {
		if err := validateName(t.Members[i].DisplayName, 2, 50); err != nil {
			return fmt.Errorf("template member name: %w", err)
		}
		if t.Members[i].IsHead {
			heads++
		}
	}
	if heads > 1 {
		return fmt.Errorf("template %q: more than one head", t.Name)
	}
	return nil
}

// FamilyTemplateMember is one person in a family template. When the template
// is instantiated, each member becomes an event participant (matched to an
// existing one by user ID where possible) and joins the new family.
type FamilyTemplateMember struct {
	ID         string
	TemplateID string

	// UserID and Username are optional identity hints used to match existing
	// event participants during instantiation.
	UserID   string
	Username string

	DisplayName string

	// IsHead marks the member that becomes the family head on instantiation.
	IsHead bool
}
