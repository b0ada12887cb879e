package sqlite

import (
	"context"
	"testing"

	"github.com/evenup-dev/evenup/internal/models"
)

func TestSystemStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	event := createTestEvent(t, store, "user-1")
	closed := createTestEvent(t, store, "user-1")
	closed.Status = models.EventClosed
	if err := store.UpdateEvent(ctx, closed); err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}

	alice := createTestParticipant(t, store, event.ID, "Alice")
	bob := createTestParticipant(t, store, event.ID, "Bob")

	linked := &models.Participant{
		EventID:     event.ID,
		UserID:      "user-2",
		Username:    "cara",
		DisplayName: "Cara",
		Type:        models.ParticipantUser,
		Active:      true,
		AddedBy:     "user-1",
	}
	if err := store.CreateParticipant(ctx, linked); err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	for _, exp := range []*models.Expense{
		{
			EventID: event.ID, Description: "Dinner out", Amount: dec(t, "120.50"),
			PayerID: alice.ID, SplitType: models.SplitEqual, CreatedBy: "user-1",
			Splits: []models.ExpenseSplit{{Target: models.ParticipantTarget(bob.ID)}},
		},
		{
			EventID: event.ID, Description: "More wine", Amount: dec(t, "30"),
			PayerID: alice.ID, SplitType: models.SplitEqual, CreatedBy: "user-1",
			Splits: []models.ExpenseSplit{{Target: models.ParticipantTarget(bob.ID)}},
		},
		{
			EventID: event.ID, Description: "Taxi home", Amount: dec(t, "45.25"),
			PayerID: bob.ID, SplitType: models.SplitEqual, CreatedBy: "user-1",
			Splits: []models.ExpenseSplit{{Target: models.ParticipantTarget(alice.ID)}},
		},
	} {
		if err := store.CreateExpense(ctx, exp); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	ghost := &models.Expense{
		EventID: event.ID, Description: "Mistake", Amount: dec(t, "999"),
		PayerID: bob.ID, SplitType: models.SplitEqual, CreatedBy: "user-1",
		Splits: []models.ExpenseSplit{{Target: models.ParticipantTarget(alice.ID)}},
	}
	if err := store.CreateExpense(ctx, ghost); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if err := store.SoftDeleteExpense(ctx, ghost.ID, "user-1", ghost.CreatedAt+1); err != nil {
		t.Fatalf("SoftDeleteExpense failed: %v", err)
	}

	t.Run("GetSystemStats counts live rows", func(t *testing.T) {
		stats, err := store.GetSystemStats(ctx)
		if err != nil {
			t.Fatalf("GetSystemStats failed: %v", err)
		}
		if stats.TotalEvents != 2 {
			t.Errorf("TotalEvents = %d, want 2", stats.TotalEvents)
		}
		if stats.ActiveEvents != 1 {
			t.Errorf("ActiveEvents = %d, want 1", stats.ActiveEvents)
		}
		if stats.TotalParticipants != 3 {
			t.Errorf("TotalParticipants = %d, want 3", stats.TotalParticipants)
		}
		if stats.UniqueUsers != 1 {
			t.Errorf("UniqueUsers = %d, want 1", stats.UniqueUsers)
		}
		if stats.TotalExpenses != 3 {
			t.Errorf("TotalExpenses = %d, want 3", stats.TotalExpenses)
		}
		if !stats.TotalAmount.Equal(dec(t, "195.75")) {
			t.Errorf("TotalAmount = %s, want 195.75", stats.TotalAmount)
		}
	})

	t.Run("ListTopSpenders ranks by total", func(t *testing.T) {
		spenders, err := store.ListTopSpenders(ctx, 10)
		if err != nil {
			t.Fatalf("ListTopSpenders failed: %v", err)
		}
		if len(spenders) != 2 {
			t.Fatalf("Expected 2 spenders, got %d", len(spenders))
		}
		if spenders[0].ParticipantID != alice.ID {
			t.Errorf("Expected Alice on top, got %s", spenders[0].DisplayName)
		}
		if !spenders[0].Total.Equal(dec(t, "150.50")) {
			t.Errorf("Top total = %s, want 150.50", spenders[0].Total)
		}
		if spenders[0].ExpenseCount != 2 {
			t.Errorf("Top count = %d, want 2", spenders[0].ExpenseCount)
		}
		if !spenders[1].Total.Equal(dec(t, "45.25")) {
			t.Errorf("Second total = %s, want 45.25", spenders[1].Total)
		}

		capped, err := store.ListTopSpenders(ctx, 1)
		if err != nil {
			t.Fatalf("ListTopSpenders failed: %v", err)
		}
		if len(capped) != 1 {
			t.Errorf("Expected limit to cap the list, got %d", len(capped))
		}
	})
}
