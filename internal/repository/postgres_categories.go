package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dkaragoz/finbook/internal/models"
)

// Category repository methods
func (r *PostgresRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, kind, color, priority, is_system, is_override, source_category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if category.ID == "" {
		category.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		category.ID, category.UserID, category.Name, category.Kind,
		category.Color, category.Priority, category.IsSystem,
		category.IsOverride, category.SourceCategoryID,
		category.CreatedAt, category.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

// GetCategory resolves a category id visible to the user: one of their own
// rows or a system row. Someone else's category reports ErrNotFound.
func (r *PostgresRepository) GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	query := `
		SELECT * FROM categories
		WHERE id = $1 AND (user_id = $2 OR user_id IS NULL)
	`

	var category models.Category
	err := r.db.GetContext(ctx, &category, query, categoryID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &category, nil
}

func (r *PostgresRepository) GetOverrideForSource(ctx context.Context, userID, sourceCategoryID string) (*models.Category, error) {
	query := `
		SELECT * FROM categories
		WHERE user_id = $1 AND is_override = TRUE AND source_category_id = $2
	`

	var category models.Category
	err := r.db.GetContext(ctx, &category, query, userID, sourceCategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &category, nil
}

// ListCategories returns every category visible to the user: system rows plus
// the user's own rows, overrides included. The service layer collapses
// overrides onto the system rows they shadow.
func (r *PostgresRepository) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	query := `
		SELECT * FROM categories
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY priority ASC, name ASC
	`

	categories := []models.Category{}
	err := r.db.SelectContext(ctx, &categories, query, userID)
	if err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *PostgresRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $1, color = $2, priority = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`

	category.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		category.Name, category.Color, category.Priority, category.UpdatedAt,
		category.ID, category.UserID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
