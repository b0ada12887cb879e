package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

// ExpenseService manages expenses and their split distributions. Amounts are
// quantized to cents on the way in so stored data always settles cleanly.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage
// backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

// SplitInput carries one split entry of an expense.
type SplitInput struct {
	Target models.SplitTarget

	// ShareAmount and SharePercentage are interpreted per the expense's
	// split type; see models.Expense.Validate.
	ShareAmount     *decimal.Decimal
	SharePercentage *decimal.Decimal
}

// ExpenseInput carries the user-supplied fields of an expense. Updates
// replace the whole expense, splits included.
type ExpenseInput struct {
	Description string
	Category    string
	Amount      decimal.Decimal
	PayerID     string
	SplitType   models.SplitType
	Splits      []SplitInput
}

func (in *ExpenseInput) apply(expense *models.Expense) {
	expense.Description = strings.TrimSpace(in.Description)
	expense.Category = strings.TrimSpace(in.Category)
	expense.Amount = in.Amount.RoundBank(2)
	expense.PayerID = in.PayerID
	expense.SplitType = in.SplitType
	expense.Splits = make([]models.ExpenseSplit, len(in.Splits))
	for i, sp := range in.Splits {
		expense.Splits[i] = models.ExpenseSplit{
			Target:          sp.Target,
			ShareAmount:     sp.ShareAmount,
			SharePercentage: sp.SharePercentage,
		}
	}
}

// Create validates and persists a new expense in the event.
func (s *ExpenseService) Create(ctx context.Context, actorID, eventID string, input ExpenseInput) (*models.Expense, error) {
	if _, err := editableEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		EventID:   eventID,
		CreatedBy: actorID,
	}
	input.apply(expense)
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, eventID, expense); err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("CreateExpense failed", "event_id", eventID, "error", err)
		return nil, err
	}
	slog.Info("Created expense",
		"expense_id", expense.ID,
		"event_id", eventID,
		"amount", expense.Amount,
		"split_type", expense.SplitType,
	)
	return expense, nil
}

// Get retrieves a live expense including splits.
func (s *ExpenseService) Get(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Deleted() {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return expense, nil
}

// List returns an event's live expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, eventID string) ([]*models.Expense, error) {
	if _, err := liveEvent(ctx, s.store, eventID); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, eventID)
}

// Update replaces an expense's fields and splits. Allowed for the payer's
// linked user and the event creator.
func (s *ExpenseService) Update(ctx context.Context, actorID, expenseID string, input ExpenseInput) (*models.Expense, error) {
	expense, err := s.Get(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if _, err := editableEvent(ctx, s.store, expense.EventID); err != nil {
		return nil, err
	}
	if err := s.checkEditPermission(ctx, actorID, expense); err != nil {
		return nil, err
	}

	input.apply(expense)
	expense.UpdatedAt = time.Now().Unix()
	if err := expense.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, expense.EventID, expense); err != nil {
		return nil, err
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}
	slog.Info("Updated expense", "expense_id", expenseID, "event_id", expense.EventID, "updated_by", actorID)
	return expense, nil
}

// SoftDelete hides an expense from listings and balance computation without
// removing rows. Same permission rule as Update.
func (s *ExpenseService) SoftDelete(ctx context.Context, actorID, expenseID string) error {
	expense, err := s.Get(ctx, expenseID)
	if err != nil {
		return err
	}
	if _, err := editableEvent(ctx, s.store, expense.EventID); err != nil {
		return err
	}
	if err := s.checkEditPermission(ctx, actorID, expense); err != nil {
		return err
	}

	if err := s.store.SoftDeleteExpense(ctx, expenseID, actorID, time.Now().Unix()); err != nil {
		slog.Error("SoftDeleteExpense failed", "expense_id", expenseID, "error", err)
		return err
	}
	slog.Info("Deleted expense", "expense_id", expenseID, "event_id", expense.EventID, "deleted_by", actorID)
	return nil
}

// checkEditPermission permits the payer's linked user and the event creator.
func (s *ExpenseService) checkEditPermission(ctx context.Context, actorID string, expense *models.Expense) error {
	payer, err := s.store.GetParticipant(ctx, expense.PayerID)
	if err == nil && payer.UserID == actorID {
		return nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	event, err := s.store.GetEvent(ctx, expense.EventID)
	if err != nil {
		return err
	}
	if event.CreatorID == actorID {
		return nil
	}
	return fmt.Errorf("user %s cannot modify expense %s: %w", actorID, expense.ID, ErrPermissionDenied)
}

// checkReferences ensures payer and split targets point at members of this
// event. Family targets additionally need a head, because a headless family
// cannot carry the debt anywhere.
func (s *ExpenseService) checkReferences(ctx context.Context, eventID string, expense *models.Expense) error {
	active, err := activeParticipantSet(ctx, s.store, eventID)
	if err != nil {
		return err
	}
	if !active[expense.PayerID] {
		return fmt.Errorf("payer %s: %w", expense.PayerID, ErrNotEventParticipant)
	}

	families, err := s.store.ListFamilies(ctx, eventID)
	if err != nil {
		return err
	}
	familyByID := make(map[string]*models.Family, len(families))
	for _, f := range families {
		familyByID[f.ID] = f
	}

	for i := range expense.Splits {
		target := expense.Splits[i].Target
		switch target.Kind {
		case models.TargetParticipant:
			if !active[target.ID] {
				return fmt.Errorf("split target %s: %w", target.ID, ErrNotEventParticipant)
			}
		case models.TargetFamily:
			family, ok := familyByID[target.ID]
			if !ok {
				return fmt.Errorf("split target %s: %w", target.ID, ErrNotEventFamily)
			}
			if family.HeadID == "" {
				return fmt.Errorf("family %s: %w", target.ID, ErrFamilyWithoutHead)
			}
		default:
			return fmt.Errorf("split %d: %w", i, models.ErrInvalidSplitTarget)
		}
	}
	return nil
}

// uncategorized is the summary bucket for expenses without a category.
const uncategorized = "uncategorized"

// CategoryTotal is one per-category line of an expense summary.
type CategoryTotal struct {
	Category string
	Count    int
	Total    decimal.Decimal
}

// PayerTotal is one per-payer line of an expense summary.
type PayerTotal struct {
	ParticipantID string
	DisplayName   string
	Count         int
	Total         decimal.Decimal
}

// ExpenseSummary aggregates an event's live expenses.
type ExpenseSummary struct {
	EventID      string
	Currency     string
	ExpenseCount int
	TotalAmount  decimal.Decimal
	ByCategory   []CategoryTotal
	ByPayer      []PayerTotal
}

// Summary aggregates the event's live expenses by category and payer,
// largest totals first.
func (s *ExpenseService) Summary(ctx context.Context, eventID string) (*ExpenseSummary, error) {
	event, err := liveEvent(ctx, s.store, eventID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, eventID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, eventID, false)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(participants))
	for _, p := range participants {
		nameByID[p.ID] = p.DisplayName
	}

	summary := &ExpenseSummary{
		EventID:      eventID,
		Currency:     event.Currency,
		ExpenseCount: len(expenses),
	}
	byCategory := make(map[string]*CategoryTotal)
	byPayer := make(map[string]*PayerTotal)
	for _, expense := range expenses {
		summary.TotalAmount = summary.TotalAmount.Add(expense.Amount)

		category := expense.Category
		if category == "" {
			category = uncategorized
		}
		ct := byCategory[category]
		if ct == nil {
			ct = &CategoryTotal{Category: category}
			byCategory[category] = ct
		}
		ct.Count++
		ct.Total = ct.Total.Add(expense.Amount)

		pt := byPayer[expense.PayerID]
		if pt == nil {
			pt = &PayerTotal{
				ParticipantID: expense.PayerID,
				DisplayName:   nameByID[expense.PayerID],
			}
			byPayer[expense.PayerID] = pt
		}
		pt.Count++
		pt.Total = pt.Total.Add(expense.Amount)
	}

	summary.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		summary.ByCategory = append(summary.ByCategory, *ct)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.Category < b.Category
	})

	summary.ByPayer = make([]PayerTotal, 0, len(byPayer))
	for _, pt := range byPayer {
		summary.ByPayer = append(summary.ByPayer, *pt)
	}
	sort.Slice(summary.ByPayer, func(i, j int) bool {
		a, b := summary.ByPayer[i], summary.ByPayer[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.ParticipantID < b.ParticipantID
	})

	return summary, nil
}
