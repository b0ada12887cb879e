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

// CreateFamilyTemplate persists a template with its members.
func (s *SQLiteStore) CreateFamilyTemplate(ctx context.Context, template *models.FamilyTemplate) error {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	if template.CreatedAt == 0 {
		template.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO family_templates (id, creator_id, name, description, created_at) VALUES (?, ?, ?, ?, ?)",
		template.ID, template.CreatorID, template.Name, template.Description, template.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert family template: %w", err)
	}

	if err := insertTemplateMembers(ctx, tx, template); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetFamilyTemplate retrieves a template including members.
func (s *SQLiteStore) GetFamilyTemplate(ctx context.Context, templateID string) (*models.FamilyTemplate, error) {
	template := &models.FamilyTemplate{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, creator_id, name, description, created_at FROM family_templates WHERE id = ?",
		templateID,
	).Scan(&template.ID, &template.CreatorID, &template.Name, &template.Description, &template.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("family template %s: %w", templateID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family template: %w", err)
	}

	template.Members, err = s.listTemplateMembers(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return template, nil
}

// UpdateFamilyTemplate rewrites the template and replaces its members.
func (s *SQLiteStore) UpdateFamilyTemplate(ctx context.Context, template *models.FamilyTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE family_templates SET name = ?, description = ? WHERE id = ?",
		template.Name, template.Description, template.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update family template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("family template %s: %w", template.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM family_template_members WHERE template_id = ?", template.ID,
	); err != nil {
		return fmt.Errorf("failed to clear template members: %w", err)
	}
	if err := insertTemplateMembers(ctx, tx, template); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteFamilyTemplate removes a template; members go with it via cascade.
func (s *SQLiteStore) DeleteFamilyTemplate(ctx context.Context, templateID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM family_templates WHERE id = ?", templateID)
	if err != nil {
		return fmt.Errorf("failed to delete family template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("family template %s: %w", templateID, storage.ErrNotFound)
	}
	return nil
}

// ListFamilyTemplates returns the creator's templates with members, newest first.
func (s *SQLiteStore) ListFamilyTemplates(ctx context.Context, creatorID string) ([]*models.FamilyTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, creator_id, name, description, created_at FROM family_templates WHERE creator_id = ? ORDER BY created_at DESC",
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list family templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.FamilyTemplate
	for rows.Next() {
		template := &models.FamilyTemplate{}
		if err := rows.Scan(&template.ID, &template.CreatorID, &template.Name,
			&template.Description, &template.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family template: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate family templates: %w", err)
	}

	for _, template := range templates {
		template.Members, err = s.listTemplateMembers(ctx, template.ID)
		if err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (s *SQLiteStore) listTemplateMembers(ctx context.Context, templateID string) ([]models.FamilyTemplateMember, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, template_id, user_id, username, display_name, is_head FROM family_template_members WHERE template_id = ? ORDER BY id",
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list template members: %w", err)
	}
	defer rows.Close()

	var members []models.FamilyTemplateMember
	for rows.Next() {
		var m models.FamilyTemplateMember
		var userID, username sql.NullString

		if err := rows.Scan(&m.ID, &m.TemplateID, &userID, &username, &m.DisplayName, &m.IsHead); err != nil {
			return nil, fmt.Errorf("failed to scan template member: %w", err)
		}
		m.UserID = userID.String
		m.Username = username.String
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template members: %w", err)
	}
	return members, nil
}

func insertTemplateMembers(ctx context.Context, tx *sql.Tx, template *models.FamilyTemplate) error {
	for i := range template.Members {
		m := &template.Members[i]
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.TemplateID = template.ID

		_, err := tx.ExecContext(ctx,
			"INSERT INTO family_template_members (id, template_id, user_id, username, display_name, is_head) VALUES (?, ?, ?, ?, ?, ?)",
			m.ID, m.TemplateID, nullable(m.UserID), nullable(m.Username), m.DisplayName, m.IsHead,
		)
		if err != nil {
			return fmt.Errorf("failed to insert template member: %w", err)
		}
	}
	return nil
}
