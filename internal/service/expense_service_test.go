package service

import (
	"context"
	"errors"
	"testing"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

func TestCreateExpense_EqualSplit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := env.createEvent(t, "Ski Trip")
	alice := env.addExternal(t, event.ID, "Alice")
	bob := env.addExternal(t, event.ID, "Bob")

	expense, err := env.expenses.Create(ctx, creatorUser, event.ID, ExpenseInput{
		Description: "Cabin rent",
		Category:    "lodging",
		Amount:      dec(t, "90"),
		PayerID:     alice.ID,
		SplitType:   models.SplitEqual,
		Splits: []SplitInput{
			{Target: models.ParticipantTarget(alice.ID)},
			{Target: models.ParticipantTarget(bob.ID)},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if expense.ID == "" {
		t.Error("expected generated ID")
	}
	if expense.CreatedBy != creatorUser {
		t.Errorf("expected recorder %q, got %q", creatorUser, expense.CreatedBy)
	}

	listed, err := env.expenses.List(ctx, event.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(listed))
	}
	if len(listed[0].Splits) != 2 {
		t.Errorf("expected 2 splits, got %d", len(listed[0].Splits))
	}
	if listed[0].Category != "lodging" {
		t.Errorf("expected category lodging, got %q", listed[0].Category)
	}
}

func TestCreateExpense_QuantizesAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := env.createEvent(t, "Ski Trip")
	alice := env.addExternal(t, event.ID, "Alice")

	for _, tc := range []struct {
		raw  string
		want string
	}{
		{"10.005", "10"},
		{"10.015", "10.02"},
		{"33.333", "33.33"},
	} {
		expense, err := env.expenses.Create(ctx, creatorUser, event.ID, ExpenseInput{
			Description: "Groceries run",
			Amount:      dec(t, tc.raw),
			PayerID:     alice.ID,
			SplitType:   models.SplitEqual,
			Splits:      []SplitInput{{Target: models.ParticipantTarget(alice.ID)}},
		})
		if err != nil {
			t.Fatalf("Create(%s) failed: %v", tc.raw, err)
		}
		if !expense.Amount.Equal(dec(t, tc.want)) {
			t.Errorf("amount %s: expected %s after quantization, got %s", tc.raw, tc.want, expense.Amount)
		}
	}
}

func TestCreateExpense_ReferenceChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := env.createEvent(t, "Ski Trip")
	alice := env.addExternal(t, event.ID, "Alice")

	other := env.createEvent(t, "Other Event")
	outsider := env.addExternal(t, other.ID, "Erin")

	base := ExpenseInput{
		Description: "Taxi to the slopes",
		Amount:      dec(t, "20"),
		SplitType:   models.SplitEqual,
	}

	input := base
	input.PayerID = outsider.ID
	input.Splits = []SplitInput{{Target: models.ParticipantTarget(alice.ID)}}
	if _, err := env.expenses.Create(ctx, creatorUser, event.ID, input); !errors.Is(err, ErrNotEventParticipant) {
		t.Errorf("expected ErrNotEventParticipant for foreign payer, got %v", err)
	}

	input = base
	input.PayerID = alice.ID
	input.Splits = []SplitInput{{Target: models.ParticipantTarget(outsider.ID)}}
	if _, err := env.expenses.Create(ctx, creatorUser, event.ID, input); !errors.Is(err, ErrNotEventParticipant) {
		t.Errorf("expected ErrNotEventParticipant for foreign target, got %v", err)
	}

	input = base
	input.PayerID = alice.ID
	input.Splits = []SplitInput{{Target: models.FamilyTarget("no-such-family")}}
	if _, err := env.expenses.Create(ctx, creatorUser, event.ID, input); !errors.Is(err, ErrNotEventFamily) {
		t.Errorf("expected ErrNotEventFamily, got %v", err)
	}

	headless, err := env.families.Create(ctx, creatorUser, event.ID, CreateFamilyInput{Name: "Headless"})
	if err != nil {
		t.Fatalf("Create family failed: %v", err)
	}
	input = base
	input.PayerID = alice.ID
	input.Splits = []SplitInput{{Target: models.FamilyTarget(headless.ID)}}
	if _, err := env.expenses.Create(ctx, creatorUser, event.ID, input); !errors.Is(err, ErrFamilyWithoutHead) {
		t.Errorf("expected ErrFamilyWithoutHead, got %v", err)
	}
}

func TestCreateExpense_DistributionMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := env.createEvent(t, "Ski Trip")
	alice := env.addExternal(t, event.ID, "Alice")
	bob := env.addExternal(t, event.ID, "Bob")

	_, err := env.expenses.Create(ctx, creatorUser, event.ID, ExpenseInput{
		Description: "Dinner out",
		Amount:      dec(t, "100"),
		PayerID:     alice.ID,
		SplitType:   models.SplitSpecific,
		Splits: []SplitInput{
			{Target: models.ParticipantTarget(alice.ID), ShareAmount: decPtr(t, "40")},
			{Target: models.ParticipantTarget(bob.ID), ShareAmount: decPtr(t, "40")},
		},
	})
	if !errors.Is(err, models.ErrSplitSumMismatch) {
		t.Errorf("expected ErrSplitSumMismatch, got %v", err)
	}
}

func TestUpdateExpense_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := env.createEvent(t, "Ski Trip")
	payer := env.addLinked(t, event.ID, "Bob", memberUser)

	expense := env.equalExpense(t, event.ID, payer.ID, "30", models.ParticipantTarget(payer.ID))

	input := ExpenseInput{
		Description: "Corrected taxi fare",
		Category:    "transport",
		Amount:      dec(t, "35"),
		PayerID:     payer.ID,
		SplitType:   models.SplitEqual,
		Splits:      []SplitInput{{Target: models.ParticipantTarget(payer.ID)}},
	}

	if _, err := env.expenses.Update(ctx, strangerUser, expense.ID, input); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for stranger, got %v", err)
	}

	byPayer, err := env.expenses.Update(ctx, memberUser, expense.ID, input)
	if err != nil {
		t.Fatalf("Update by the payer's user failed: %v", err)
	}
	if byPayer.Description != "Corrected taxi fare" || byPayer.Category != "transport" {
		t.Errorf("expected updated fields, got %q / %q", byPayer.Description, byPayer.Category)
	}
	if !byPayer.Amount.Equal(dec(t, "35")) {
		t.Errorf("expected amount 35, got %s", byPayer.Amount)
	}
	if byPayer.UpdatedAt == 0 {
		t.Error("expected UpdatedAt to be stamped")
	}

	input.Description = "Creator override"
	if _, err := env.expenses.Update(ctx, creatorUser, expense.ID, input); err != nil {
		t.Fatalf("Update by the event creator failed: %v", err)
	}

	if err := env.expenses.SoftDelete(ctx, strangerUser, expense.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied deleting as stranger, got %v", err)
	}
}

func TestDeleteExpense_HidesFromListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := env.createEvent(t, "Ski Trip")
	alice := env.addExternal(t, event.ID, "Alice")

	expense := env.equalExpense(t, event.ID, alice.ID, "25", models.ParticipantTarget(alice.ID))

	if err := env.expenses.SoftDelete(ctx, creatorUser, expense.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if _, err := env.expenses.Get(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	listed, err := env.expenses.List(ctx, event.ID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected empty listing, got %d expenses", len(listed))
	}

	if err := env.expenses.SoftDelete(ctx, creatorUser, expense.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestExpenseSummary_Buckets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	event := env.createEvent(t, "Ski Trip")
	alice := env.addExternal(t, event.ID, "Alice")
	bob := env.addExternal(t, event.ID, "Bob")

	record := func(payerID, amount, category string) {
		t.Helper()
		_, err := env.expenses.Create(ctx, creatorUser, event.ID, ExpenseInput{
			Description: "Summary fixture",
			Category:    category,
			Amount:      dec(t, amount),
			PayerID:     payerID,
			SplitType:   models.SplitEqual,
			Splits:      []SplitInput{{Target: models.ParticipantTarget(bob.ID)}},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	record(alice.ID, "100", "food")
	record(alice.ID, "50", "food")
	record(bob.ID, "30", "")

	ghost := env.equalExpense(t, event.ID, bob.ID, "999", models.ParticipantTarget(alice.ID))
	if err := env.expenses.SoftDelete(ctx, creatorUser, ghost.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	summary, err := env.expenses.Summary(ctx, event.ID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.ExpenseCount != 3 {
		t.Errorf("expected 3 live expenses, got %d", summary.ExpenseCount)
	}
	if !summary.TotalAmount.Equal(dec(t, "180")) {
		t.Errorf("expected total 180, got %s", summary.TotalAmount)
	}
	if summary.Currency != models.DefaultCurrency {
		t.Errorf("expected event currency, got %q", summary.Currency)
	}

	if len(summary.ByCategory) != 2 {
		t.Fatalf("expected 2 category buckets, got %d", len(summary.ByCategory))
	}
	if summary.ByCategory[0].Category != "food" || !summary.ByCategory[0].Total.Equal(dec(t, "150")) {
		t.Errorf("expected food bucket of 150 first, got %+v", summary.ByCategory[0])
	}
	if summary.ByCategory[1].Category != uncategorized || summary.ByCategory[1].Count != 1 {
		t.Errorf("expected one uncategorized expense, got %+v", summary.ByCategory[1])
	}

	if len(summary.ByPayer) != 2 {
		t.Fatalf("expected 2 payer buckets, got %d", len(summary.ByPayer))
	}
	if summary.ByPayer[0].ParticipantID != alice.ID || !summary.ByPayer[0].Total.Equal(dec(t, "150")) {
		t.Errorf("expected Alice on top with 150, got %+v", summary.ByPayer[0])
	}
	if summary.ByPayer[0].DisplayName != "Alice" {
		t.Errorf("expected payer names to resolve, got %q", summary.ByPayer[0].DisplayName)
	}
}
