package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

// GetSystemStats returns system-wide counters and the live expense total.
// Amounts are stored as TEXT, so the total is summed in Go to keep exact
// decimal arithmetic.
func (s *SQLiteStore) GetSystemStats(ctx context.Context) (*storage.SystemStats, error) {
	stats := &storage.SystemStats{TotalAmount: decimal.Zero}

	counts := []struct {
		query string
		args  []any
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM events", nil, &stats.TotalEvents},
		{"SELECT COUNT(*) FROM events WHERE status = ? AND deleted_at = 0", []any{models.EventActive}, &stats.ActiveEvents},
		{"SELECT COUNT(*) FROM participants", nil, &stats.TotalParticipants},
		{"SELECT COUNT(DISTINCT user_id) FROM participants WHERE user_id IS NOT NULL", nil, &stats.UniqueUsers},
		{"SELECT COUNT(*) FROM expenses WHERE deleted_at = 0", nil, &stats.TotalExpenses},
		{"SELECT COUNT(*) FROM families", nil, &stats.TotalFamilies},
		{"SELECT COUNT(*) FROM family_templates", nil, &stats.TotalTemplates},
		{"SELECT COUNT(*) FROM settlements", nil, &stats.TotalSettlements},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count rows: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT amount FROM expenses WHERE deleted_at = 0")
	if err != nil {
		return nil, fmt.Errorf("failed to load expense amounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("bad amount %q: %w", raw, err)
		}
		stats.TotalAmount = stats.TotalAmount.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate amounts: %w", err)
	}
	return stats, nil
}

// ListTopSpenders returns payers ranked by live expense total, largest
// first; ties break on participant ID for a stable order.
func (s *SQLiteStore) ListTopSpenders(ctx context.Context, limit int) ([]*storage.TopSpender, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.display_name, p.user_id, e.amount
		 FROM expenses e
		 JOIN participants p ON p.id = e.payer_id
		 WHERE e.deleted_at = 0`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load payer amounts: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*storage.TopSpender)
	for rows.Next() {
		var id, name, raw string
		var userID sql.NullString
		if err := rows.Scan(&id, &name, &userID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan payer amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("bad amount %q: %w", raw, err)
		}

		spender, ok := byID[id]
		if !ok {
			spender = &storage.TopSpender{
				ParticipantID: id,
				DisplayName:   name,
				UserID:        userID.String,
				Total:         decimal.Zero,
			}
			byID[id] = spender
		}
		spender.ExpenseCount++
		spender.Total = spender.Total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payer amounts: %w", err)
	}

	spenders := make([]*storage.TopSpender, 0, len(byID))
	for _, spender := range byID {
		spenders = append(spenders, spender)
	}
	sort.Slice(spenders, func(i, j int) bool {
		if c := spenders[i].Total.Cmp(spenders[j].Total); c != 0 {
			return c > 0
		}
		return spenders[i].ParticipantID < spenders[j].ParticipantID
	})
	if limit > 0 && len(spenders) > limit {
		spenders = spenders[:limit]
	}
	return spenders, nil
}
