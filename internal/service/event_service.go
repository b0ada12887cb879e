package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

// EventService manages event lifecycle: creation, updates, closing and
// soft deletion. Only the creator may change an event.
type EventService struct {
	store storage.Store
}

// NewEventService creates a new EventService with the given storage backend.
func NewEventService(store storage.Store) *EventService {
	return &EventService{store: store}
}

// liveEvent loads an event, treating soft-deleted rows as missing.
func liveEvent(ctx context.Context, store storage.Store, eventID string) (*models.Event, error) {
	event, err := store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Deleted() {
		return nil, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	return event, nil
}

// editableEvent loads a live event and ensures it still accepts changes.
func editableEvent(ctx context.Context, store storage.Store, eventID string) (*models.Event, error) {
	event, err := liveEvent(ctx, store, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Editable() {
		return nil, fmt.Errorf("event %s is %s: %w", eventID, event.Status, ErrEventNotEditable)
	}
	return event, nil
}

// CreateEventInput carries the user-supplied fields of a new event.
type CreateEventInput struct {
	Name        string
	Description string

	// Currency is an ISO 4217 code; models.DefaultCurrency when empty.
	Currency string

	// ChatID optionally records the upstream conversation the event
	// belongs to.
	ChatID string
}

// Create validates and persists a new active event owned by the actor.
func (s *EventService) Create(ctx context.Context, actorID string, input CreateEventInput) (*models.Event, error) {
	event := &models.Event{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		CreatorID:   actorID,
		ChatID:      strings.TrimSpace(input.ChatID),
		Status:      models.EventActive,
		Currency:    strings.ToUpper(input.Currency),
	}
	if event.Currency == "" {
		event.Currency = models.DefaultCurrency
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		slog.Error("CreateEvent failed", "error", err)
		return nil, err
	}
	slog.Info("Created event", "event_id", event.ID, "creator_id", actorID)
	return event, nil
}

// Get retrieves a live event by ID.
func (s *EventService) Get(ctx context.Context, eventID string) (*models.Event, error) {
	return liveEvent(ctx, s.store, eventID)
}

// ListForUser returns events the user created or actively participates in,
// newest first. Closed and archived events are hidden unless includeClosed
// is set.
func (s *EventService) ListForUser(ctx context.Context, userID string, includeClosed bool) ([]*models.Event, error) {
	created, err := s.store.ListEventsByCreator(ctx, userID)
	if err != nil {
		slog.Error("ListEventsByCreator failed", "user_id", userID, "error", err)
		return nil, err
	}
	joined, err := s.store.ListEventsWithUser(ctx, userID)
	if err != nil {
		slog.Error("ListEventsWithUser failed", "user_id", userID, "error", err)
		return nil, err
	}

	seen := make(map[string]bool, len(created))
	events := make([]*models.Event, 0, len(created)+len(joined))
	for _, event := range append(created, joined...) {
		if seen[event.ID] {
			continue
		}
		seen[event.ID] = true
		if !includeClosed && event.Status != models.EventActive {
			continue
		}
		events = append(events, event)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt != events[j].CreatedAt {
			return events[i].CreatedAt > events[j].CreatedAt
		}
		return events[i].ID < events[j].ID
	})
	return events, nil
}

// UpdateEventInput carries the editable fields of an event.
type UpdateEventInput struct {
	Name        string
	Description string
}

// Update renames a still-active event. Creator only.
func (s *EventService) Update(ctx context.Context, actorID, eventID string, input UpdateEventInput) (*models.Event, error) {
	event, err := editableEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != actorID {
		return nil, fmt.Errorf("only the creator can update event %s: %w", eventID, ErrPermissionDenied)
	}

	event.Name = strings.TrimSpace(input.Name)
	event.Description = strings.TrimSpace(input.Description)
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateEvent(ctx, event); err != nil {
		slog.Error("UpdateEvent failed", "event_id", eventID, "error", err)
		return nil, err
	}
	return event, nil
}

// Close moves an active event to closed and stamps ClosedAt. Creator only.
// Closed events keep serving reads but refuse writes.
func (s *EventService) Close(ctx context.Context, actorID, eventID string) (*models.Event, error) {
	event, err := liveEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != actorID {
		return nil, fmt.Errorf("only the creator can close event %s: %w", eventID, ErrPermissionDenied)
	}
	if event.Status != models.EventActive {
		return nil, fmt.Errorf("event %s is already %s: %w", eventID, event.Status, ErrEventNotEditable)
	}

	event.Status = models.EventClosed
	event.ClosedAt = time.Now().Unix()
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		slog.Error("Close event failed", "event_id", eventID, "error", err)
		return nil, err
	}
	slog.Info("Closed event", "event_id", eventID, "creator_id", actorID)
	return event, nil
}

// Archive moves a closed event to archived. Creator only.
func (s *EventService) Archive(ctx context.Context, actorID, eventID string) (*models.Event, error) {
	event, err := liveEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	if event.CreatorID != actorID {
		return nil, fmt.Errorf("only the creator can archive event %s: %w", eventID, ErrPermissionDenied)
	}
	if event.Status != models.EventClosed {
		return nil, fmt.Errorf("event %s must be closed before archiving, is %s: %w", eventID, event.Status, ErrEventNotEditable)
	}

	event.Status = models.EventArchived
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		slog.Error("Archive event failed", "event_id", eventID, "error", err)
		return nil, err
	}
	slog.Info("Archived event", "event_id", eventID, "creator_id", actorID)
	return event, nil
}

// SoftDelete hides the event from all listings without removing rows.
// Creator only.
func (s *EventService) SoftDelete(ctx context.Context, actorID, eventID string) error {
	event, err := liveEvent(ctx, s.store, eventID)
	if err != nil {
		return err
	}
	if event.CreatorID != actorID {
		return fmt.Errorf("only the creator can delete event %s: %w", eventID, ErrPermissionDenied)
	}

	event.DeletedAt = time.Now().Unix()
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		slog.Error("SoftDelete event failed", "event_id", eventID, "error", err)
		return err
	}
	slog.Info("Deleted event", "event_id", eventID, "creator_id", actorID)
	return nil
}
