package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

// ParticipantService manages who takes part in an event. Participants are
// soft-deleted so past expenses keep resolving their names.
type ParticipantService struct {
	store storage.Store
}

// NewParticipantService creates a new ParticipantService with the given
// storage backend.
func NewParticipantService(store storage.Store) *ParticipantService {
	return &ParticipantService{store: store}
}

// AddParticipantInput carries the user-supplied fields of a new participant.
type AddParticipantInput struct {
	// UserID links the participant to an external identity. Empty for
	// external participants who exist only as a name.
	UserID   string
	Username string

	DisplayName string
}

// Add puts a person into an event. When a user-linked participant already
// exists for the same identity, the existing row is returned — reactivated
// if it had been removed — instead of creating a duplicate.
func (s *ParticipantService) Add(ctx context.Context, actorID, eventID string, input AddParticipantInput) (*models.Participant, error) {
	if _, err := editableEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(input.DisplayName)

	if input.UserID != "" {
		existing, err := s.store.GetParticipantByUser(ctx, eventID, input.UserID)
		switch {
		case err == nil:
			if existing.Active {
				return existing, nil
			}
			existing.Active = true
			existing.DeletedAt = 0
			existing.DeletedBy = ""
			if displayName != "" {
				existing.DisplayName = displayName
			}
			if input.Username != "" {
				existing.Username = input.Username
			}
			if err := existing.Validate(); err != nil {
				return nil, err
			}
			if err := s.store.UpdateParticipant(ctx, existing); err != nil {
				slog.Error("Reactivate participant failed", "participant_id", existing.ID, "error", err)
				return nil, err
			}
			slog.Info("Reactivated participant", "participant_id", existing.ID, "event_id", eventID)
			return existing, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}

	participant := &models.Participant{
		EventID:     eventID,
		UserID:      input.UserID,
		Username:    input.Username,
		DisplayName: displayName,
		Type:        models.ParticipantExternal,
		Active:      true,
		AddedBy:     actorID,
	}
	if input.UserID != "" {
		participant.Type = models.ParticipantUser
	}
	if err := participant.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateParticipant(ctx, participant); err != nil {
		slog.Error("CreateParticipant failed", "event_id", eventID, "error", err)
		return nil, err
	}
	slog.Info("Added participant", "participant_id", participant.ID, "event_id", eventID, "added_by", actorID)
	return participant, nil
}

// Get retrieves a participant by ID, removed ones included so historical
// expenses keep resolving.
func (s *ParticipantService) Get(ctx context.Context, participantID string) (*models.Participant, error) {
	return s.store.GetParticipant(ctx, participantID)
}

// List returns an event's participants ordered by display name. activeOnly
// filters out removed ones.
func (s *ParticipantService) List(ctx context.Context, eventID string, activeOnly bool) ([]*models.Participant, error) {
	if _, err := liveEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}
	return s.store.ListParticipants(ctx, eventID, activeOnly)
}

// Rename changes a participant's display name.
func (s *ParticipantService) Rename(ctx context.Context, actorID, participantID, displayName string) (*models.Participant, error) {
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if _, err := editableEvent(ctx, s.store, participant.EventID); err != nil {
		return nil, err
	}

	participant.DisplayName = strings.TrimSpace(displayName)
	if err := participant.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateParticipant(ctx, participant); err != nil {
		slog.Error("Rename participant failed", "participant_id", participantID, "error", err)
		return nil, err
	}
	return participant, nil
}

// SoftDelete removes a participant from the event. Refused while the
// participant is referenced by live expenses or heads a family, since both
// would leave balances pointing at nobody.
func (s *ParticipantService) SoftDelete(ctx context.Context, actorID, participantID string) error {
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return err
	}
	if !participant.Active {
		return fmt.Errorf("participant %s: %w", participantID, storage.ErrNotFound)
	}
	if _, err := editableEvent(ctx, s.store, participant.EventID); err != nil {
		return err
	}

	hasExpenses, err := s.store.ParticipantHasExpenses(ctx, participantID)
	if err != nil {
		return err
	}
	if hasExpenses {
		return fmt.Errorf("participant %s: %w", participantID, ErrParticipantHasExpenses)
	}

	family, err := s.store.FindFamilyHeadedBy(ctx, participantID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if family != nil {
		return fmt.Errorf("participant %s heads family %s: %w", participantID, family.ID, ErrParticipantHeadsFamily)
	}

	participant.Active = false
	participant.DeletedAt = time.Now().Unix()
	participant.DeletedBy = actorID
	if err := s.store.UpdateParticipant(ctx, participant); err != nil {
		slog.Error("SoftDelete participant failed", "participant_id", participantID, "error", err)
		return err
	}
	slog.Info("Removed participant", "participant_id", participantID, "event_id", participant.EventID, "deleted_by", actorID)
	return nil
}
