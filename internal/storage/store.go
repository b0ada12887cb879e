// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/calculator"
	"github.com/evenup-dev/evenup/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
// Implementations wrap it so callers can test with errors.Is.
var ErrNotFound = errors.New("not found")

// SystemStats aggregates system-wide totals for the admin surface.
type SystemStats struct {
	TotalEvents       int64
	ActiveEvents      int64
	TotalParticipants int64
	UniqueUsers       int64
	TotalExpenses     int64
	TotalAmount       decimal.Decimal
	TotalFamilies     int64
	TotalTemplates    int64
	TotalSettlements  int64
}

// TopSpender is one payer's aggregate across all live expenses.
type TopSpender struct {
	ParticipantID string
	DisplayName   string
	UserID        string
	ExpenseCount  int64
	Total         decimal.Decimal
}

// Store defines the interface for event, expense and settlement storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// Events.

	// CreateEvent persists a new event. ID and CreatedAt are assigned by the
	// store when unset.
	CreateEvent(ctx context.Context, event *models.Event) error

	// GetEvent retrieves an event by ID, soft-deleted ones included.
	GetEvent(ctx context.Context, eventID string) (*models.Event, error)

	// UpdateEvent writes back every mutable event field.
	UpdateEvent(ctx context.Context, event *models.Event) error

	// ListEventsByCreator returns the creator's live events, newest first.
	ListEventsByCreator(ctx context.Context, creatorID string) ([]*models.Event, error)

	// ListEventsWithUser returns live events where the user is an active
	// participant, newest first.
	ListEventsWithUser(ctx context.Context, userID string) ([]*models.Event, error)

	// Participants.

	CreateParticipant(ctx context.Context, participant *models.Participant) error
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)

	// GetParticipantByUser retrieves the participant linked to a user within
	// an event, including inactive ones.
	GetParticipantByUser(ctx context.Context, eventID, userID string) (*models.Participant, error)
	UpdateParticipant(ctx context.Context, participant *models.Participant) error

	// ListParticipants returns an event's participants; activeOnly filters
	// out removed ones.
	ListParticipants(ctx context.Context, eventID string, activeOnly bool) ([]*models.Participant, error)

	// ParticipantHasExpenses reports whether the participant appears as
	// payer or split target of any live expense.
	ParticipantHasExpenses(ctx context.Context, participantID string) (bool, error)

	// Families.

	// CreateFamily persists a family together with its initial members.
	CreateFamily(ctx context.Context, family *models.Family, memberIDs []string) error
	GetFamily(ctx context.Context, familyID string) (*models.Family, error)
	UpdateFamily(ctx context.Context, family *models.Family) error
	DeleteFamily(ctx context.Context, familyID string) error
	ListFamilies(ctx context.Context, eventID string) ([]*models.Family, error)
	ListFamilyMembers(ctx context.Context, familyID string) ([]*models.FamilyMember, error)
	AddFamilyMember(ctx context.Context, member *models.FamilyMember) error
	RemoveFamilyMember(ctx context.Context, familyID, participantID string) error

	// FamilyHasExpenses reports whether any live expense still splits
	// against the family.
	FamilyHasExpenses(ctx context.Context, familyID string) (bool, error)

	// FindFamilyHeadedBy returns the family the participant heads, or
	// ErrNotFound when they head none.
	FindFamilyHeadedBy(ctx context.Context, participantID string) (*models.Family, error)

	// Family templates.

	// CreateFamilyTemplate persists a template with its members.
	CreateFamilyTemplate(ctx context.Context, template *models.FamilyTemplate) error

	// GetFamilyTemplate retrieves a template including members.
	GetFamilyTemplate(ctx context.Context, templateID string) (*models.FamilyTemplate, error)

	// UpdateFamilyTemplate rewrites the template and replaces its members.
	UpdateFamilyTemplate(ctx context.Context, template *models.FamilyTemplate) error

	DeleteFamilyTemplate(ctx context.Context, templateID string) error
	ListFamilyTemplates(ctx context.Context, creatorID string) ([]*models.FamilyTemplate, error)

	// Expenses.

	// CreateExpense persists an expense together with its splits.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense including splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense rewrites the expense and replaces its splits.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// SoftDeleteExpense marks the expense deleted without removing rows.
	SoftDeleteExpense(ctx context.Context, expenseID, deletedBy string, deletedAt int64) error

	// ListExpenses returns an event's live expenses with splits, newest first.
	ListExpenses(ctx context.Context, eventID string) ([]*models.Expense, error)

	// Settlements.

	// ReplaceSettlements removes the event's unsettled settlements and
	// inserts the freshly computed batch in one transaction. Settled rows
	// stay untouched as history.
	ReplaceSettlements(ctx context.Context, eventID string, settlements []*models.Settlement) error

	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	ListSettlements(ctx context.Context, eventID string) ([]*models.Settlement, error)

	// MarkSettlementSettled flips the settled flag and records the time.
	MarkSettlementSettled(ctx context.Context, settlementID string, settledAt int64) error

	// LoadSnapshot assembles the engine's input for one event inside a
	// single read transaction: active participants, families with members,
	// and live expenses with splits.
	LoadSnapshot(ctx context.Context, eventID string) (*calculator.Snapshot, error)

	// Admin.

	// GetSystemStats returns system-wide counters and the live expense total.
	GetSystemStats(ctx context.Context) (*SystemStats, error)

	// ListTopSpenders returns payers ranked by live expense total.
	ListTopSpenders(ctx context.Context, limit int) ([]*TopSpender, error)

	// Close releases any resources held by the store.
	Close() error
}
