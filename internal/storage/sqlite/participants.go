package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/storage"
)

const participantColumns = "id, event_id, user_id, username, display_name, participant_type, active, added_by, created_at, deleted_at, deleted_by"

// CreateParticipant persists a new participant to the database.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO participants ("+participantColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.EventID, nullable(p.UserID), nullable(p.Username), p.DisplayName,
		p.Type, p.Active, p.AddedBy, p.CreatedAt, p.DeletedAt, nullable(p.DeletedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetParticipant retrieves a participant by ID.
func (s *SQLiteStore) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE id = ?", participantID,
	)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant %s: %w", participantID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// GetParticipantByUser retrieves the participant linked to a user within an
// event. Inactive participants are returned too so callers can reactivate
// them instead of creating duplicates.
func (s *SQLiteStore) GetParticipantByUser(ctx context.Context, eventID, userID string) (*models.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+participantColumns+" FROM participants WHERE event_id = ? AND user_id = ?",
		eventID, userID,
	)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("participant for user %s in event %s: %w", userID, eventID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant by user: %w", err)
	}
	return p, nil
}

// UpdateParticipant writes back every mutable participant field.
func (s *SQLiteStore) UpdateParticipant(ctx context.Context, p *models.Participant) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE participants
		 SET user_id = ?, username = ?, display_name = ?, participant_type = ?, active = ?, deleted_at = ?, deleted_by = ?
		 WHERE id = ?`,
		nullable(p.UserID), nullable(p.Username), p.DisplayName, p.Type,
		p.Active, p.DeletedAt, nullable(p.DeletedBy), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("participant %s: %w", p.ID, storage.ErrNotFound)
	}
	return nil
}

// ListParticipants returns an event's participants ordered by display name.
func (s *SQLiteStore) ListParticipants(ctx context.Context, eventID string, activeOnly bool) ([]*models.Participant, error) {
	query := "SELECT " + participantColumns + " FROM participants WHERE event_id = ?"
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY display_name, id"

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// ParticipantHasExpenses reports whether the participant appears as payer or
// split target of any live expense.
func (s *SQLiteStore) ParticipantHasExpenses(ctx context.Context, participantID string) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM expenses WHERE payer_id = ? AND deleted_at = 0)
		     OR EXISTS(SELECT 1 FROM expense_splits sp
		               JOIN expenses e ON e.id = sp.expense_id
		               WHERE sp.participant_id = ? AND e.deleted_at = 0)`,
		participantID, participantID,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check participant expenses: %w", err)
	}
	return used, nil
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	p := &models.Participant{}
	var userID, username, deletedBy sql.NullString

	err := row.Scan(&p.ID, &p.EventID, &userID, &username, &p.DisplayName,
		&p.Type, &p.Active, &p.AddedBy, &p.CreatedAt, &p.DeletedAt, &deletedBy)
	if err != nil {
		return nil, err
	}

	p.UserID = userID.String
	p.Username = username.String
	p.DeletedBy = deletedBy.String
	return p, nil
}
