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

const settlementColumns = "id, event_id, debtor_id, creditor_id, amount, settled, settled_at, created_at"

// ReplaceSettlements swaps out the event's unsettled plan for a new one.
// Rows already marked settled are kept as history.
func (s *SQLiteStore) ReplaceSettlements(ctx context.Context, eventID string, settlements []*models.Settlement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM settlements WHERE event_id = ? AND settled = 0", eventID,
	); err != nil {
		return fmt.Errorf("failed to clear unsettled rows: %w", err)
	}

	now := time.Now().Unix()
	for _, settlement := range settlements {
		if settlement.ID == "" {
			settlement.ID = uuid.New().String()
		}
		if settlement.CreatedAt == 0 {
			settlement.CreatedAt = now
		}
		settlement.EventID = eventID

		_, err := tx.ExecContext(ctx,
			"INSERT INTO settlements ("+settlementColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			settlement.ID, settlement.EventID, settlement.DebtorID, settlement.CreditorID,
			settlement.Amount.String(), settlement.Settled, settlement.SettledAt, settlement.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?", settlementID,
	)
	settlement, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ListSettlements returns all settlements for an event, unsettled first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, eventID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE event_id = ? ORDER BY settled, created_at, id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// MarkSettlementSettled flips a pending settlement to settled. Settling an
// already settled row reports ErrNotFound.
func (s *SQLiteStore) MarkSettlementSettled(ctx context.Context, settlementID string, settledAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET settled = 1, settled_at = ? WHERE id = ? AND settled = 0",
		settledAt, settlementID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark settlement settled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return nil
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var amount string

	err := row.Scan(&settlement.ID, &settlement.EventID, &settlement.DebtorID,
		&settlement.CreditorID, &amount, &settlement.Settled, &settlement.SettledAt,
		&settlement.CreatedAt)
	if err != nil {
		return nil, err
	}

	settlement.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	return settlement, nil
}
