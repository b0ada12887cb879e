package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/calculator"
	"github.com/evenup-dev/evenup/internal/models"
)

// LoadSnapshot assembles the engine's input for one event inside a single
// transaction, so participants, families and expenses reflect one consistent
// point in time. Only active participants and live expenses are included.
//
// Each result set is fully drained before the next query runs because the
// transaction holds a single connection.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, eventID string) (*calculator.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	snap := &calculator.Snapshot{EventID: eventID}
	if err := loadParticipants(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := loadFamilies(ctx, tx, snap); err != nil {
		return nil, err
	}
	if err := loadExpenses(ctx, tx, snap); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return snap, nil
}

func loadParticipants(ctx context.Context, tx *sql.Tx, snap *calculator.Snapshot) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, display_name FROM participants WHERE event_id = ? AND active = 1 AND deleted_at = 0 ORDER BY created_at, id",
		snap.EventID,
	)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p calculator.Participant
		if err := rows.Scan(&p.ID, &p.DisplayName); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		snap.Participants = append(snap.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return rows.Close()
}

func loadFamilies(ctx context.Context, tx *sql.Tx, snap *calculator.Snapshot) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, head_id FROM families WHERE event_id = ? ORDER BY created_at, id",
		snap.EventID,
	)
	if err != nil {
		return fmt.Errorf("failed to load families: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var f calculator.Family
		var headID sql.NullString
		if err := rows.Scan(&f.ID, &headID); err != nil {
			return fmt.Errorf("failed to scan family: %w", err)
		}
		f.HeadID = headID.String
		index[f.ID] = len(snap.Families)
		snap.Families = append(snap.Families, f)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate families: %w", err)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if len(snap.Families) == 0 {
		return nil
	}

	memberRows, err := tx.QueryContext(ctx,
		`SELECT fm.family_id, fm.participant_id
		 FROM family_members fm
		 JOIN families f ON f.id = fm.family_id
		 WHERE f.event_id = ?
		 ORDER BY fm.created_at, fm.id`,
		snap.EventID,
	)
	if err != nil {
		return fmt.Errorf("failed to load family members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var familyID, participantID string
		if err := memberRows.Scan(&familyID, &participantID); err != nil {
			return fmt.Errorf("failed to scan family member: %w", err)
		}
		if i, ok := index[familyID]; ok {
			snap.Families[i].MemberIDs = append(snap.Families[i].MemberIDs, participantID)
		}
	}
	if err := memberRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate family members: %w", err)
	}
	return memberRows.Close()
}

func loadExpenses(ctx context.Context, tx *sql.Tx, snap *calculator.Snapshot) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT id, payer_id, amount, split_type FROM expenses WHERE event_id = ? AND deleted_at = 0 ORDER BY created_at, id",
		snap.EventID,
	)
	if err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var e calculator.Expense
		var amount string
		if err := rows.Scan(&e.ID, &e.PayerID, &amount, &e.SplitType); err != nil {
			return fmt.Errorf("failed to scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return fmt.Errorf("bad amount %q: %w", amount, err)
		}
		index[e.ID] = len(snap.Expenses)
		snap.Expenses = append(snap.Expenses, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if len(snap.Expenses) == 0 {
		return nil
	}

	splitRows, err := tx.QueryContext(ctx,
		`SELECT sp.expense_id, sp.participant_id, sp.family_id, sp.share_amount, sp.share_percentage
		 FROM expense_splits sp
		 JOIN expenses e ON e.id = sp.expense_id
		 WHERE e.event_id = ? AND e.deleted_at = 0
		 ORDER BY sp.created_at, sp.id`,
		snap.EventID,
	)
	if err != nil {
		return fmt.Errorf("failed to load splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var expenseID string
		var participantID, familyID, shareAmount, sharePercentage sql.NullString
		if err := splitRows.Scan(&expenseID, &participantID, &familyID, &shareAmount, &sharePercentage); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}

		var split calculator.Split
		switch {
		case participantID.Valid:
			split.Target = models.ParticipantTarget(participantID.String)
		case familyID.Valid:
			split.Target = models.FamilyTarget(familyID.String)
		}
		if split.ShareAmount, err = parseDecimal(shareAmount); err != nil {
			return fmt.Errorf("bad share amount: %w", err)
		}
		if split.SharePercentage, err = parseDecimal(sharePercentage); err != nil {
			return fmt.Errorf("bad share percentage: %w", err)
		}

		if i, ok := index[expenseID]; ok {
			snap.Expenses[i].Splits = append(snap.Expenses[i].Splits, split)
		}
	}
	if err := splitRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splitRows.Close()
}
