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

const familyColumns = "id, event_id, template_id, name, head_id, created_at"

// CreateFamily persists a family together with its initial members.
func (s *SQLiteStore) CreateFamily(ctx context.Context, family *models.Family, memberIDs []string) error {
	if family.ID == "" {
		family.ID = uuid.New().String()
	}
	if family.CreatedAt == 0 {
		family.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO families ("+familyColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		family.ID, family.EventID, nullable(family.TemplateID), family.Name,
		nullable(family.HeadID), family.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert family: %w", err)
	}

	for _, participantID := range memberIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO family_members (id, family_id, participant_id, created_at) VALUES (?, ?, ?, ?)",
			uuid.New().String(), family.ID, participantID, family.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert family member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetFamily retrieves a family by ID.
func (s *SQLiteStore) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+familyColumns+" FROM families WHERE id = ?", familyID,
	)
	family, err := scanFamily(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("family %s: %w", familyID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// UpdateFamily writes back the family's name and head.
func (s *SQLiteStore) UpdateFamily(ctx context.Context, family *models.Family) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE families SET name = ?, head_id = ? WHERE id = ?",
		family.Name, nullable(family.HeadID), family.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("family %s: %w", family.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteFamily removes a family; members go with it via cascade.
func (s *SQLiteStore) DeleteFamily(ctx context.Context, familyID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM families WHERE id = ?", familyID)
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("family %s: %w", familyID, storage.ErrNotFound)
	}
	return nil
}

// ListFamilies returns an event's families ordered by creation time.
func (s *SQLiteStore) ListFamilies(ctx context.Context, eventID string) ([]*models.Family, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+familyColumns+" FROM families WHERE event_id = ? ORDER BY created_at, id",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	defer rows.Close()

	var families []*models.Family
	for rows.Next() {
		family, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, family)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate families: %w", err)
	}
	return families, nil
}

// ListFamilyMembers returns a family's members ordered by join time.
func (s *SQLiteStore) ListFamilyMembers(ctx context.Context, familyID string) ([]*models.FamilyMember, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, family_id, participant_id, created_at FROM family_members WHERE family_id = ? ORDER BY created_at, id",
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	defer rows.Close()

	var members []*models.FamilyMember
	for rows.Next() {
		m := &models.FamilyMember{}
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.ParticipantID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate family members: %w", err)
	}
	return members, nil
}

// AddFamilyMember adds one participant to a family.
func (s *SQLiteStore) AddFamilyMember(ctx context.Context, member *models.FamilyMember) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO family_members (id, family_id, participant_id, created_at) VALUES (?, ?, ?, ?)",
		member.ID, member.FamilyID, member.ParticipantID, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert family member: %w", err)
	}
	return nil
}

// RemoveFamilyMember removes one participant from a family.
func (s *SQLiteStore) RemoveFamilyMember(ctx context.Context, familyID, participantID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM family_members WHERE family_id = ? AND participant_id = ?",
		familyID, participantID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove family member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s of family %s: %w", participantID, familyID, storage.ErrNotFound)
	}
	return nil
}

// FamilyHasExpenses reports whether any live expense still splits against
// the family. Deleting the family would cascade into those splits.
func (s *SQLiteStore) FamilyHasExpenses(ctx context.Context, familyID string) (bool, error) {
	var used bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM expense_splits sp
		               JOIN expenses e ON e.id = sp.expense_id
		               WHERE sp.family_id = ? AND e.deleted_at = 0)`,
		familyID,
	).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check family expenses: %w", err)
	}
	return used, nil
}

// FindFamilyHeadedBy returns the family the participant heads.
func (s *SQLiteStore) FindFamilyHeadedBy(ctx context.Context, participantID string) (*models.Family, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+familyColumns+" FROM families WHERE head_id = ? LIMIT 1", participantID,
	)
	family, err := scanFamily(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("family headed by %s: %w", participantID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find family by head: %w", err)
	}
	return family, nil
}

func scanFamily(row rowScanner) (*models.Family, error) {
	family := &models.Family{}
	var templateID, headID sql.NullString

	err := row.Scan(&family.ID, &family.EventID, &templateID, &family.Name, &headID, &family.CreatedAt)
	if err != nil {
		return nil, err
	}

	family.TemplateID = templateID.String
	family.HeadID = headID.String
	return family, nil
}
