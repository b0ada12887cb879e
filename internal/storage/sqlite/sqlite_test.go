package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "evenup-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestEvent(t *testing.T, store *SQLiteStore, creatorID string) *models.Event {
	t.Helper()

	event := &models.Event{
		Name:      "Ski Trip",
		CreatorID: creatorID,
	}
	if err := store.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("Failed to create event: %v", err)
	}
	return event
}

func createTestParticipant(t *testing.T, store *SQLiteStore, eventID, name string) *models.Participant {
	t.Helper()

	p := &models.Participant{
		EventID:     eventID,
		DisplayName: name,
		Type:        models.ParticipantExternal,
		Active:      true,
		AddedBy:     "user-1",
	}
	if err := store.CreateParticipant(context.Background(), p); err != nil {
		t.Fatalf("Failed to create participant %s: %v", name, err)
	}
	return p
}

func TestEventStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateEvent assigns defaults", func(t *testing.T) {
		event := &models.Event{
			Name:      "Birthday Dinner",
			CreatorID: "user-1",
		}
		if err := store.CreateEvent(ctx, event); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		if event.ID == "" {
			t.Error("Expected event ID to be generated")
		}
		if event.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if event.Status != models.EventActive {
			t.Errorf("Expected status %q, got %q", models.EventActive, event.Status)
		}
		if event.Currency != models.DefaultCurrency {
			t.Errorf("Expected currency %q, got %q", models.DefaultCurrency, event.Currency)
		}
	})

	t.Run("GetEvent round-trips fields", func(t *testing.T) {
		original := &models.Event{
			Name:        "Road Trip",
			Description: "Gas, food, motels",
			CreatorID:   "user-2",
			ChatID:      "chat-42",
			Currency:    "EUR",
		}
		if err := store.CreateEvent(ctx, original); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		retrieved, err := store.GetEvent(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if retrieved.Name != original.Name {
			t.Errorf("Name mismatch: got %s, want %s", retrieved.Name, original.Name)
		}
		if retrieved.Description != original.Description {
			t.Errorf("Description mismatch: got %s, want %s", retrieved.Description, original.Description)
		}
		if retrieved.ChatID != "chat-42" {
			t.Errorf("ChatID mismatch: got %s, want chat-42", retrieved.ChatID)
		}
		if retrieved.Currency != "EUR" {
			t.Errorf("Currency mismatch: got %s, want EUR", retrieved.Currency)
		}
		if retrieved.CreatedAt != original.CreatedAt {
			t.Errorf("CreatedAt mismatch: got %d, want %d", retrieved.CreatedAt, original.CreatedAt)
		}
	})

	t.Run("GetEvent reports missing rows", func(t *testing.T) {
		_, err := store.GetEvent(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateEvent persists status change", func(t *testing.T) {
		event := createTestEvent(t, store, "user-3")

		event.Status = models.EventClosed
		event.ClosedAt = event.CreatedAt + 100
		if err := store.UpdateEvent(ctx, event); err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}

		retrieved, err := store.GetEvent(ctx, event.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if retrieved.Status != models.EventClosed {
			t.Errorf("Expected status %q, got %q", models.EventClosed, retrieved.Status)
		}
		if retrieved.ClosedAt != event.ClosedAt {
			t.Errorf("ClosedAt mismatch: got %d, want %d", retrieved.ClosedAt, event.ClosedAt)
		}
	})

	t.Run("UpdateEvent reports missing rows", func(t *testing.T) {
		err := store.UpdateEvent(ctx, &models.Event{ID: "nonexistent-id", Name: "Ghost"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListEventsByCreator skips deleted events", func(t *testing.T) {
		first := createTestEvent(t, store, "user-4")
		second := createTestEvent(t, store, "user-4")
		second.CreatedAt = first.CreatedAt + 10
		if err := store.UpdateEvent(ctx, second); err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}

		deleted := createTestEvent(t, store, "user-4")
		deleted.DeletedAt = first.CreatedAt + 20
		if err := store.UpdateEvent(ctx, deleted); err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}

		events, err := store.ListEventsByCreator(ctx, "user-4")
		if err != nil {
			t.Fatalf("ListEventsByCreator failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("Expected 2 events, got %d", len(events))
		}
		if events[0].ID != second.ID {
			t.Errorf("Expected newest event first, got %s", events[0].ID)
		}
	})

	t.Run("ListEventsWithUser matches active membership", func(t *testing.T) {
		event := createTestEvent(t, store, "user-5")
		other := createTestEvent(t, store, "user-5")

		member := &models.Participant{
			EventID:     event.ID,
			UserID:      "user-6",
			Username:    "kate",
			DisplayName: "Kate",
			Type:        models.ParticipantUser,
			Active:      true,
			AddedBy:     "user-5",
		}
		if err := store.CreateParticipant(ctx, member); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}

		inactive := &models.Participant{
			EventID:     other.ID,
			UserID:      "user-6",
			Username:    "kate",
			DisplayName: "Kate",
			Type:        models.ParticipantUser,
			Active:      false,
			AddedBy:     "user-5",
		}
		if err := store.CreateParticipant(ctx, inactive); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}

		events, err := store.ListEventsWithUser(ctx, "user-6")
		if err != nil {
			t.Fatalf("ListEventsWithUser failed: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(events))
		}
		if events[0].ID != event.ID {
			t.Errorf("Expected event %s, got %s", event.ID, events[0].ID)
		}
	})
}

func TestParticipantStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	event := createTestEvent(t, store, "user-1")

	t.Run("CreateParticipant assigns defaults", func(t *testing.T) {
		p := createTestParticipant(t, store, event.ID, "Alice")
		if p.ID == "" {
			t.Error("Expected participant ID to be generated")
		}
		if p.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetParticipant round-trips nullable fields", func(t *testing.T) {
		original := &models.Participant{
			EventID:     event.ID,
			UserID:      "user-7",
			Username:    "bob",
			DisplayName: "Bob",
			Type:        models.ParticipantUser,
			Active:      true,
			AddedBy:     "user-1",
		}
		if err := store.CreateParticipant(ctx, original); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}

		retrieved, err := store.GetParticipant(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetParticipant failed: %v", err)
		}
		if retrieved.UserID != "user-7" {
			t.Errorf("UserID mismatch: got %q, want user-7", retrieved.UserID)
		}
		if retrieved.Username != "bob" {
			t.Errorf("Username mismatch: got %q, want bob", retrieved.Username)
		}
		if retrieved.Type != models.ParticipantUser {
			t.Errorf("Type mismatch: got %q, want %q", retrieved.Type, models.ParticipantUser)
		}

		external := createTestParticipant(t, store, event.ID, "Granny")
		back, err := store.GetParticipant(ctx, external.ID)
		if err != nil {
			t.Fatalf("GetParticipant failed: %v", err)
		}
		if back.UserID != "" {
			t.Errorf("Expected empty UserID for external participant, got %q", back.UserID)
		}
	})

	t.Run("GetParticipantByUser finds linked participants", func(t *testing.T) {
		found, err := store.GetParticipantByUser(ctx, event.ID, "user-7")
		if err != nil {
			t.Fatalf("GetParticipantByUser failed: %v", err)
		}
		if found.DisplayName != "Bob" {
			t.Errorf("DisplayName mismatch: got %q, want Bob", found.DisplayName)
		}

		found.Active = false
		if err := store.UpdateParticipant(ctx, found); err != nil {
			t.Fatalf("UpdateParticipant failed: %v", err)
		}
		inactive, err := store.GetParticipantByUser(ctx, event.ID, "user-7")
		if err != nil {
			t.Fatalf("GetParticipantByUser failed for inactive participant: %v", err)
		}
		if inactive.Active {
			t.Error("Expected inactive participant to be returned as inactive")
		}
		inactive.Active = true
		if err := store.UpdateParticipant(ctx, inactive); err != nil {
			t.Fatalf("UpdateParticipant failed: %v", err)
		}

		_, err = store.GetParticipantByUser(ctx, event.ID, "user-without-seat")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListParticipants honors activeOnly", func(t *testing.T) {
		scoped := createTestEvent(t, store, "user-8")
		active := createTestParticipant(t, store, scoped.ID, "Carol")
		removed := createTestParticipant(t, store, scoped.ID, "Dan")

		removed.Active = false
		removed.DeletedAt = removed.CreatedAt + 5
		removed.DeletedBy = "user-8"
		if err := store.UpdateParticipant(ctx, removed); err != nil {
			t.Fatalf("UpdateParticipant failed: %v", err)
		}

		all, err := store.ListParticipants(ctx, scoped.ID, false)
		if err != nil {
			t.Fatalf("ListParticipants failed: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("Expected 2 participants, got %d", len(all))
		}

		activeOnly, err := store.ListParticipants(ctx, scoped.ID, true)
		if err != nil {
			t.Fatalf("ListParticipants failed: %v", err)
		}
		if len(activeOnly) != 1 {
			t.Fatalf("Expected 1 active participant, got %d", len(activeOnly))
		}
		if activeOnly[0].ID != active.ID {
			t.Errorf("Expected participant %s, got %s", active.ID, activeOnly[0].ID)
		}
		if activeOnly[0].DeletedBy != "" {
			t.Errorf("Expected empty DeletedBy, got %q", activeOnly[0].DeletedBy)
		}
	})

	t.Run("UpdateParticipant reports missing rows", func(t *testing.T) {
		err := store.UpdateParticipant(ctx, &models.Participant{ID: "nonexistent-id"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
