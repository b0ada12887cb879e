package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

const expenseColumns = "id, event_id, description, category, amount, payer_id, split_type, created_by, created_at, updated_at, deleted_at, deleted_by"

// CreateExpense persists an expense together with its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.EventID, expense.Description, expense.Category,
		expense.Amount.String(), expense.PayerID, expense.SplitType, expense.CreatedBy,
		expense.CreatedAt, expense.UpdatedAt, expense.DeletedAt, nullable(expense.DeletedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, expense_id, participant_id, family_id, share_amount, share_percentage, created_at FROM expense_splits WHERE expense_id = ? ORDER BY created_at, id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		split, _, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		expense.Splits = append(expense.Splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return expense, nil
}

// UpdateExpense rewrites the expense and replaces its splits.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.UpdatedAt == 0 {
		expense.UpdatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET description = ?, category = ?, amount = ?, payer_id = ?, split_type = ?, updated_at = ?, deleted_at = ?, deleted_by = ?
		 WHERE id = ?`,
		expense.Description, expense.Category, expense.Amount.String(), expense.PayerID,
		expense.SplitType, expense.UpdatedAt, expense.DeletedAt, nullable(expense.DeletedBy), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expense_splits WHERE expense_id = ?", expense.ID,
	); err != nil {
		return fmt.Errorf("failed to clear splits: %w", err)
	}
	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SoftDeleteExpense marks the expense deleted without removing rows.
func (s *SQLiteStore) SoftDeleteExpense(ctx context.Context, expenseID, deletedBy string, deletedAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at = 0",
		deletedAt, deletedBy, expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to soft delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// ListExpenses returns an event's live expenses with splits, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, eventID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE event_id = ? AND deleted_at = 0 ORDER BY created_at DESC, id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return nil, nil
	}

	splitRows, err := s.db.QueryContext(ctx,
		`SELECT sp.id, sp.expense_id, sp.participant_id, sp.family_id, sp.share_amount, sp.share_percentage, sp.created_at
		 FROM expense_splits sp
		 JOIN expenses e ON e.id = sp.expense_id
		 WHERE e.event_id = ? AND e.deleted_at = 0
		 ORDER BY sp.created_at, sp.id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		split, expenseID, err := scanSplit(splitRows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if expense, ok := byID[expenseID]; ok {
			expense.Splits = append(expense.Splits, split)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return expenses, nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i := range expense.Splits {
		split := &expense.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		if split.CreatedAt == 0 {
			split.CreatedAt = expense.CreatedAt
		}
		split.ExpenseID = expense.ID

		var participantID, familyID any
		switch split.Target.Kind {
		case models.TargetParticipant:
			participantID = split.Target.ID
		case models.TargetFamily:
			familyID = split.Target.ID
		default:
			return fmt.Errorf("split %s: %w", split.ID, models.ErrInvalidSplitTarget)
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (id, expense_id, participant_id, family_id, share_amount, share_percentage, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			split.ID, split.ExpenseID, participantID, familyID,
			decimalString(split.ShareAmount), decimalString(split.SharePercentage), split.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var amount string
	var deletedBy sql.NullString

	err := row.Scan(&expense.ID, &expense.EventID, &expense.Description, &expense.Category,
		&amount, &expense.PayerID, &expense.SplitType, &expense.CreatedBy, &expense.CreatedAt,
		&expense.UpdatedAt, &expense.DeletedAt, &deletedBy)
	if err != nil {
		return nil, err
	}

	expense.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	expense.DeletedBy = deletedBy.String
	return expense, nil
}

// scanSplit reads one split row and returns it with its parent expense ID.
func scanSplit(row rowScanner) (models.ExpenseSplit, string, error) {
	var split models.ExpenseSplit
	var expenseID string
	var participantID, familyID, shareAmount, sharePercentage sql.NullString

	err := row.Scan(&split.ID, &expenseID, &participantID, &familyID,
		&shareAmount, &sharePercentage, &split.CreatedAt)
	if err != nil {
		return split, "", err
	}
	split.ExpenseID = expenseID

	switch {
	case participantID.Valid:
		split.Target = models.ParticipantTarget(participantID.String)
	case familyID.Valid:
		split.Target = models.FamilyTarget(familyID.String)
	}

	if split.ShareAmount, err = parseDecimal(shareAmount); err != nil {
		return split, "", fmt.Errorf("bad share amount: %w", err)
	}
	if split.SharePercentage, err = parseDecimal(sharePercentage); err != nil {
		return split, "", fmt.Errorf("bad share percentage: %w", err)
	}
	return split, expenseID, nil
}

func decimalString(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDecimal(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
