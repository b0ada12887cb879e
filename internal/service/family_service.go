package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

// FamilyService manages families inside events and the reusable templates
// they can be stamped from. A family settles as one unit through its head.
type FamilyService struct {
	store storage.Store
}

// NewFamilyService creates a new FamilyService with the given storage backend.
func NewFamilyService(store storage.Store) *FamilyService {
	return &FamilyService{store: store}
}

// activeParticipantSet returns the ids of the event's active participants.
func activeParticipantSet(ctx context.Context, store storage.Store, eventID string) (map[string]bool, error) {
	participants, err := store.ListParticipants(ctx, eventID, true)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(participants))
	for _, p := range participants {
		ids[p.ID] = true
	}
	return ids, nil
}

// dedupeIDs drops repeated ids while keeping first-seen order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// CreateFamilyInput carries the user-supplied fields of a new family.
type CreateFamilyInput struct {
	Name string

	// HeadID is optional; a family without a head cannot be targeted by
	// splits until one is assigned.
	HeadID string

	MemberIDs []string
}

// Create validates and persists a new family. Head and members must be
// active participants of the event.
func (s *FamilyService) Create(ctx context.Context, actorID, eventID string, input CreateFamilyInput) (*models.Family, error) {
	if _, err := editableEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}

	family := &models.Family{
		EventID: eventID,
		Name:    strings.TrimSpace(input.Name),
		HeadID:  input.HeadID,
	}
	if err := family.Validate(); err != nil {
		return nil, err
	}

	active, err := activeParticipantSet(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if family.HeadID != "" && !active[family.HeadID] {
		return nil, fmt.Errorf("head %s: %w", family.HeadID, ErrNotEventParticipant)
	}
	memberIDs := dedupeIDs(input.MemberIDs)
	for _, id := range memberIDs {
		if !active[id] {
			return nil, fmt.Errorf("member %s: %w", id, ErrNotEventParticipant)
		}
	}

	if err := s.store.CreateFamily(ctx, family, memberIDs); err != nil {
		slog.Error("CreateFamily failed", "event_id", eventID, "error", err)
		return nil, err
	}
	slog.Info("Created family", "family_id", family.ID, "event_id", eventID, "member_count", len(memberIDs))
	return family, nil
}

// Get retrieves a family by ID.
func (s *FamilyService) Get(ctx context.Context, familyID string) (*models.Family, error) {
	return s.store.GetFamily(ctx, familyID)
}

// List returns all families of an event.
func (s *FamilyService) List(ctx context.Context, eventID string) ([]*models.Family, error) {
	if _, err := liveEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}
	return s.store.ListFamilies(ctx, eventID)
}

// Members returns the participants belonging to a family, ordered by
// display name. Removed participants stay listed so history keeps names.
func (s *FamilyService) Members(ctx context.Context, familyID string) ([]*models.Participant, error) {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return nil, err
	}
	inFamily := make(map[string]bool, len(members))
	for _, m := range members {
		inFamily[m.ParticipantID] = true
	}

	participants, err := s.store.ListParticipants(ctx, family.EventID, false)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Participant, 0, len(members))
	for _, p := range participants {
		if inFamily[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// UpdateFamilyInput carries the editable fields of a family.
type UpdateFamilyInput struct {
	Name string

	// HeadID replaces the current head; empty clears it.
	HeadID string
}

// Update renames a family and moves or clears its head.
func (s *FamilyService) Update(ctx context.Context, actorID, familyID string, input UpdateFamilyInput) (*models.Family, error) {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if _, err := editableEvent(ctx, s.store, family.EventID); err != nil {
		return nil, err
	}

	family.Name = strings.TrimSpace(input.Name)
	family.HeadID = input.HeadID
	if err := family.Validate(); err != nil {
		return nil, err
	}
	if family.HeadID != "" {
		active, err := activeParticipantSet(ctx, s.store, family.EventID)
		if err != nil {
			return nil, err
		}
		if !active[family.HeadID] {
			return nil, fmt.Errorf("head %s: %w", family.HeadID, ErrNotEventParticipant)
		}
	}

	if err := s.store.UpdateFamily(ctx, family); err != nil {
		slog.Error("UpdateFamily failed", "family_id", familyID, "error", err)
		return nil, err
	}
	return family, nil
}

// Delete removes a family and its memberships. Refused while live expenses
// still split against the family, since deleting it would drop their splits.
func (s *FamilyService) Delete(ctx context.Context, actorID, familyID string) error {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return err
	}
	if _, err := editableEvent(ctx, s.store, family.EventID); err != nil {
		return err
	}

	hasExpenses, err := s.store.FamilyHasExpenses(ctx, familyID)
	if err != nil {
		return err
	}
	if hasExpenses {
		return fmt.Errorf("family %s: %w", familyID, ErrFamilyHasExpenses)
	}

	if err := s.store.DeleteFamily(ctx, familyID); err != nil {
		slog.Error("DeleteFamily failed", "family_id", familyID, "error", err)
		return err
	}
	slog.Info("Deleted family", "family_id", familyID, "event_id", family.EventID, "deleted_by", actorID)
	return nil
}

// AddMember puts a participant into a family. Adding an existing member is
// a no-op so repeated calls stay safe.
func (s *FamilyService) AddMember(ctx context.Context, actorID, familyID, participantID string) error {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return err
	}
	if _, err := editableEvent(ctx, s.store, family.EventID); err != nil {
		return err
	}

	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if participant.EventID != family.EventID || !participant.Active {
		return fmt.Errorf("participant %s: %w", participantID, ErrNotEventParticipant)
	}

	members, err := s.store.ListFamilyMembers(ctx, familyID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.ParticipantID == participantID {
			return nil
		}
	}

	member := &models.FamilyMember{FamilyID: familyID, ParticipantID: participantID}
	if err := s.store.AddFamilyMember(ctx, member); err != nil {
		slog.Error("AddFamilyMember failed", "family_id", familyID, "participant_id", participantID, "error", err)
		return err
	}
	slog.Info("Added family member", "family_id", familyID, "participant_id", participantID)
	return nil
}

// RemoveMember takes a participant out of a family. The participant keeps
// their own balances from then on.
func (s *FamilyService) RemoveMember(ctx context.Context, actorID, familyID, participantID string) error {
	family, err := s.store.GetFamily(ctx, familyID)
	if err != nil {
		return err
	}
	if _, err := editableEvent(ctx, s.store, family.EventID); err != nil {
		return err
	}
	if err := s.store.RemoveFamilyMember(ctx, familyID, participantID); err != nil {
		return err
	}
	slog.Info("Removed family member", "family_id", familyID, "participant_id", participantID)
	return nil
}

// TemplateMemberInput carries one person of a template.
type TemplateMemberInput struct {
	UserID      string
	Username    string
	DisplayName string
	IsHead      bool
}

// FamilyTemplateInput carries the user-supplied fields of a template.
type FamilyTemplateInput struct {
	Name        string
	Description string
	Members     []TemplateMemberInput
}

func templateFromInput(actorID string, input FamilyTemplateInput) *models.FamilyTemplate {
	template := &models.FamilyTemplate{
		CreatorID:   actorID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Members:     make([]models.FamilyTemplateMember, len(input.Members)),
	}
	for i, m := range input.Members {
		template.Members[i] = models.FamilyTemplateMember{
			UserID:      m.UserID,
			Username:    m.Username,
			DisplayName: strings.TrimSpace(m.DisplayName),
			IsHead:      m.IsHead,
		}
	}
	return template
}

// CreateTemplate validates and persists a reusable family template owned by
// the actor.
func (s *FamilyService) CreateTemplate(ctx context.Context, actorID string, input FamilyTemplateInput) (*models.FamilyTemplate, error) {
	template := templateFromInput(actorID, input)
	if err := template.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateFamilyTemplate(ctx, template); err != nil {
		slog.Error("CreateFamilyTemplate failed", "creator_id", actorID, "error", err)
		return nil, err
	}
	slog.Info("Created family template", "template_id", template.ID, "creator_id", actorID)
	return template, nil
}

// GetTemplate retrieves a template including members.
func (s *FamilyService) GetTemplate(ctx context.Context, templateID string) (*models.FamilyTemplate, error) {
	return s.store.GetFamilyTemplate(ctx, templateID)
}

// ListTemplates returns the actor's own templates.
func (s *FamilyService) ListTemplates(ctx context.Context, actorID string) ([]*models.FamilyTemplate, error) {
	return s.store.ListFamilyTemplates(ctx, actorID)
}

// UpdateTemplate rewrites a template and its member list. Owner only.
func (s *FamilyService) UpdateTemplate(ctx context.Context, actorID, templateID string, input FamilyTemplateInput) (*models.FamilyTemplate, error) {
	existing, err := s.store.GetFamilyTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if existing.CreatorID != actorID {
		return nil, fmt.Errorf("only the owner can update template %s: %w", templateID, ErrPermissionDenied)
	}

	template := templateFromInput(existing.CreatorID, input)
	template.ID = existing.ID
	template.CreatedAt = existing.CreatedAt
	if err := template.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateFamilyTemplate(ctx, template); err != nil {
		slog.Error("UpdateFamilyTemplate failed", "template_id", templateID, "error", err)
		return nil, err
	}
	return template, nil
}

// DeleteTemplate removes a template. Owner only. Families already stamped
// from it are not touched.
func (s *FamilyService) DeleteTemplate(ctx context.Context, actorID, templateID string) error {
	existing, err := s.store.GetFamilyTemplate(ctx, templateID)
	if err != nil {
		return err
	}
	if existing.CreatorID != actorID {
		return fmt.Errorf("only the owner can delete template %s: %w", templateID, ErrPermissionDenied)
	}

	if err := s.store.DeleteFamilyTemplate(ctx, templateID); err != nil {
		slog.Error("DeleteFamilyTemplate failed", "template_id", templateID, "error", err)
		return err
	}
	slog.Info("Deleted family template", "template_id", templateID, "creator_id", actorID)
	return nil
}

// Instantiate stamps a template into an event: each template member becomes
// an event participant (reusing the existing one for linked identities),
// they are joined into a fresh family, and the member flagged as head
// becomes its head.
func (s *FamilyService) Instantiate(ctx context.Context, actorID, eventID, templateID string) (*models.Family, error) {
	template, err := s.store.GetFamilyTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := editableEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}

	var headID string
	memberIDs := make([]string, 0, len(template.Members))
	for i := range template.Members {
		member := &template.Members[i]
		participant, err := s.resolveTemplateMember(ctx, actorID, eventID, member)
		if err != nil {
			return nil, fmt.Errorf("template member %q: %w", member.DisplayName, err)
		}
		memberIDs = append(memberIDs, participant.ID)
		if member.IsHead {
			headID = participant.ID
		}
	}

	family := &models.Family{
		EventID:    eventID,
		TemplateID: template.ID,
		Name:       template.Name,
		HeadID:     headID,
	}
	if err := family.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateFamily(ctx, family, dedupeIDs(memberIDs)); err != nil {
		slog.Error("Instantiate template failed", "template_id", templateID, "event_id", eventID, "error", err)
		return nil, err
	}
	slog.Info("Instantiated family template",
		"template_id", templateID,
		"family_id", family.ID,
		"event_id", eventID,
		"member_count", len(memberIDs),
	)
	return family, nil
}

// resolveTemplateMember finds or creates the event participant standing in
// for one template member. Linked identities reuse their existing
// participant, reactivating it when needed; external members are always
// added fresh.
func (s *FamilyService) resolveTemplateMember(ctx context.Context, actorID, eventID string, member *models.FamilyTemplateMember) (*models.Participant, error) {
	if member.UserID != "" {
		existing, err := s.store.GetParticipantByUser(ctx, eventID, member.UserID)
		switch {
		case err == nil:
			if !existing.Active {
				existing.Active = true
				existing.DeletedAt = 0
				existing.DeletedBy = ""
				if err := s.store.UpdateParticipant(ctx, existing); err != nil {
					return nil, err
				}
			}
			return existing, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}

	participant := &models.Participant{
		EventID:     eventID,
		UserID:      member.UserID,
		Username:    member.Username,
		DisplayName: member.DisplayName,
		Type:        models.ParticipantExternal,
		Active:      true,
		AddedBy:     actorID,
	}
	if member.UserID != "" {
		participant.Type = models.ParticipantUser
	}
	if err := participant.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateParticipant(ctx, participant); err != nil {
		return nil, err
	}
	return participant, nil
}
