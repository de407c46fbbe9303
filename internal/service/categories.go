package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkaragoz/finbook/internal/models"
	"github.com/dkaragoz/finbook/internal/repository"
)

// Category operations
func (s *DefaultService) CreateCategory(ctx context.Context, userID string, req models.CreateCategoryRequest) (*models.Category, error) {
	kind := models.CategoryKind(req.Kind)
	if kind != models.KindIncome && kind != models.KindExpense {
		return nil, invalidInput("INVALID_CATEGORY_KIND", "category kind must be income or expense")
	}

	category := &models.Category{
		UserID:   &userID,
		Name:     req.Name,
		Kind:     kind,
		Color:    req.Color,
		Priority: req.Priority,
	}

	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("a category with this name and kind already exists")
		}
		return nil, fmt.Errorf("error creating category: %w", err)
	}

	return category, nil
}

func (s *DefaultService) GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	category, err := s.repo.GetCategory(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("category not found")
		}
		return nil, fmt.Errorf("error getting category: %w", err)
	}
	return category, nil
}

// ListCategories returns the user's view of the category set: their own
// categories plus the system ones, with each overridden system category
// replaced by the user's private override row.
func (s *DefaultService) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	raw, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}

	overrides := make(map[string]models.Category)
	for _, c := range raw {
		if c.IsOverride && c.SourceCategoryID != nil {
			overrides[*c.SourceCategoryID] = c
		}
	}

	out := make([]models.Category, 0, len(raw))
	for _, c := range raw {
		if c.IsOverride {
			continue // shown in place of its source below
		}
		if ov, ok := overrides[c.ID]; ok {
			out = append(out, ov)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// UpdateCategory edits a category. Editing a system category never mutates
// the shared row: the edit lands on the user's override row for that system
// category, created on first edit.
func (s *DefaultService) UpdateCategory(ctx context.Context, userID, categoryID string, req models.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	if category.IsSystem {
		return s.upsertOverride(ctx, userID, category, req)
	}

	applyCategoryUpdate(category, req)
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, conflict("a category with this name and kind already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("category not found")
		}
		return nil, fmt.Errorf("error updating category: %w", err)
	}
	return category, nil
}

func (s *DefaultService) upsertOverride(ctx context.Context, userID string, source *models.Category, req models.UpdateCategoryRequest) (*models.Category, error) {
	override, err := s.repo.GetOverrideForSource(ctx, userID, source.ID)
	switch {
	case err == nil:
		applyCategoryUpdate(override, req)
		if uerr := s.repo.UpdateCategory(ctx, override); uerr != nil {
			return nil, fmt.Errorf("error updating category override: %w", uerr)
		}
		return override, nil
	case errors.Is(err, repository.ErrNotFound):
		// First edit: shadow the system row with a private copy.
		override = &models.Category{
			UserID:           &userID,
			Name:             source.Name,
			Kind:             source.Kind,
			Color:            source.Color,
			Priority:         source.Priority,
			IsOverride:       true,
			SourceCategoryID: &source.ID,
		}
		applyCategoryUpdate(override, req)
		if cerr := s.repo.CreateCategory(ctx, override); cerr != nil {
			if errors.Is(cerr, repository.ErrConflict) {
				return nil, conflict("this system category is already overridden")
			}
			return nil, fmt.Errorf("error creating category override: %w", cerr)
		}
		return override, nil
	default:
		return nil, fmt.Errorf("error looking up category override: %w", err)
	}
}

func applyCategoryUpdate(category *models.Category, req models.UpdateCategoryRequest) {
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Color != nil {
		category.Color = *req.Color
	}
	if req.Priority != nil {
		category.Priority = *req.Priority
	}
}

// validateCategoryKind is the guard run on every transaction create and on
// every update that changes category or type: the category must resolve for
// this user and its kind must equal the transaction's direction.
func (s *DefaultService) validateCategoryKind(ctx context.Context, userID, categoryID string, txType models.TransactionType) (*models.Category, error) {
	category, err := s.repo.GetCategory(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidInput("INVALID_CATEGORY", "category not found")
		}
		return nil, fmt.Errorf("error getting category: %w", err)
	}

	if string(category.Kind) != string(txType) {
		return nil, invalidInput("CATEGORY_KIND_MISMATCH",
			fmt.Sprintf("category kind %s does not match transaction type %s", category.Kind, txType))
	}
	return category, nil
}
