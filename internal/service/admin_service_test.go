package service

import (
	"context"
	"testing"

	"github.com/evenup-dev/evenup/internal/models"
)

func TestAdminOverview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	event := env.createEvent(t, "Ski Trip")
	alice := env.addExternal(t, event.ID, "Alice")
	bob := env.addLinked(t, event.ID, "Bob", memberUser)
	env.equalExpense(t, event.ID, alice.ID, "120.50", models.ParticipantTarget(bob.ID))
	env.equalExpense(t, event.ID, bob.ID, "30", models.ParticipantTarget(alice.ID))

	closed := env.createEvent(t, "Closed Event")
	if _, err := env.events.Close(ctx, creatorUser, closed.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	overview, err := env.admin.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}

	stats := overview.Stats
	if stats.TotalEvents != 2 || stats.ActiveEvents != 1 {
		t.Errorf("expected 2 events with 1 active, got %d/%d", stats.TotalEvents, stats.ActiveEvents)
	}
	if stats.TotalParticipants != 2 {
		t.Errorf("expected 2 participants, got %d", stats.TotalParticipants)
	}
	if stats.UniqueUsers != 1 {
		t.Errorf("expected 1 linked user, got %d", stats.UniqueUsers)
	}
	if stats.TotalExpenses != 2 {
		t.Errorf("expected 2 expenses, got %d", stats.TotalExpenses)
	}
	if !stats.TotalAmount.Equal(dec(t, "150.50")) {
		t.Errorf("expected total 150.50, got %s", stats.TotalAmount)
	}

	if len(overview.TopSpenders) != 2 {
		t.Fatalf("expected 2 spenders, got %d", len(overview.TopSpenders))
	}
	top := overview.TopSpenders[0]
	if top.ParticipantID != alice.ID || !top.Total.Equal(dec(t, "120.50")) {
		t.Errorf("expected Alice on top with 120.50, got %s with %s", top.DisplayName, top.Total)
	}
	if top.DisplayName != "Alice" {
		t.Errorf("expected display name Alice, got %q", top.DisplayName)
	}
}
