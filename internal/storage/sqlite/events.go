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

const eventColumns = "id, name, description, creator_id, chat_id, status, currency, created_at, closed_at, deleted_at"

// CreateEvent persists a new event to the database.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}
	if event.Status == "" {
		event.Status = models.EventActive
	}
	if event.Currency == "" {
		event.Currency = models.DefaultCurrency
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		event.ID, event.Name, event.Description, event.CreatorID, event.ChatID,
		event.Status, event.Currency, event.CreatedAt, event.ClosedAt, event.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by ID, soft-deleted ones included.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", eventID,
	)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// UpdateEvent writes back every mutable event field.
func (s *SQLiteStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET name = ?, description = ?, chat_id = ?, status = ?, currency = ?, closed_at = ?, deleted_at = ?
		 WHERE id = ?`,
		event.Name, event.Description, event.ChatID, event.Status, event.Currency,
		event.ClosedAt, event.DeletedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", event.ID, storage.ErrNotFound)
	}
	return nil
}

// ListEventsByCreator returns the creator's live events, newest first.
func (s *SQLiteStore) ListEventsByCreator(ctx context.Context, creatorID string) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE creator_id = ? AND deleted_at = 0 ORDER BY created_at DESC",
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events by creator: %w", err)
	}
	return collectEvents(rows)
}

// ListEventsWithUser returns live events where the user is an active participant.
func (s *SQLiteStore) ListEventsWithUser(ctx context.Context, userID string) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT e.id, e.name, e.description, e.creator_id, e.chat_id, e.status, e.currency, e.created_at, e.closed_at, e.deleted_at
		 FROM events e
		 JOIN participants p ON p.event_id = e.id
		 WHERE p.user_id = ? AND p.active = 1 AND e.deleted_at = 0
		 ORDER BY e.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events with user: %w", err)
	}
	return collectEvents(rows)
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(&event.ID, &event.Name, &event.Description, &event.CreatorID,
		&event.ChatID, &event.Status, &event.Currency, &event.CreatedAt, &event.ClosedAt, &event.DeletedAt)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func collectEvents(rows *sql.Rows) ([]*models.Event, error) {
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
