package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage/sqlite"
)

// Fixed identities used across service tests.
const (
	creatorUser  = "user-creator"
	memberUser   = "user-member"
	strangerUser = "user-stranger"
)

// testEnv bundles every service wired to one temp SQLite database.
type testEnv struct {
	store        *sqlite.SQLiteStore
	events       *EventService
	participants *ParticipantService
	families     *FamilyService
	expenses     *ExpenseService
	settlements  *SettlementService
	admin        *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "evenup-service-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.RemoveAll(tempDir)
	})

	return &testEnv{
		store:        store,
		events:       NewEventService(store),
		participants: NewParticipantService(store),
		families:     NewFamilyService(store),
		expenses:     NewExpenseService(store),
		settlements:  NewSettlementService(store, nil),
		admin:        NewAdminService(store),
	}
}

func (env *testEnv) createEvent(t *testing.T, name string) *models.Event {
	t.Helper()
	event, err := env.events.Create(context.Background(), creatorUser, CreateEventInput{Name: name})
	if err != nil {
		t.Fatalf("Create event failed: %v", err)
	}
	return event
}

func (env *testEnv) addExternal(t *testing.T, eventID, name string) *models.Participant {
	t.Helper()
	p, err := env.participants.Add(context.Background(), creatorUser, eventID, AddParticipantInput{DisplayName: name})
	if err != nil {
		t.Fatalf("Add participant failed: %v", err)
	}
	return p
}

func (env *testEnv) addLinked(t *testing.T, eventID, name, userID string) *models.Participant {
	t.Helper()
	p, err := env.participants.Add(context.Background(), creatorUser, eventID, AddParticipantInput{
		UserID:      userID,
		DisplayName: name,
	})
	if err != nil {
		t.Fatalf("Add linked participant failed: %v", err)
	}
	return p
}

// equalExpense records an expense split equally across the given targets.
func (env *testEnv) equalExpense(t *testing.T, eventID, payerID, amount string, targets ...models.SplitTarget) *models.Expense {
	t.Helper()
	splits := make([]SplitInput, len(targets))
	for i, target := range targets {
		splits[i] = SplitInput{Target: target}
	}
	expense, err := env.expenses.Create(context.Background(), creatorUser, eventID, ExpenseInput{
		Description: "Test expense",
		Amount:      dec(t, amount),
		PayerID:     payerID,
		SplitType:   models.SplitEqual,
		Splits:      splits,
	})
	if err != nil {
		t.Fatalf("Create expense failed: %v", err)
	}
	return expense
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}
