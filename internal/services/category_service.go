// internal/services/category_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/repository"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type CategoryService struct {
	store repository.Store
}

type CreateCategoryRequest struct {
	Name        string        `json:"name" validate:"required,min=2,max=100"`
	Description string        `json:"description,omitempty" validate:"max=1000"`
	ParentID    *uuid.UUID    `json:"parent_id,omitempty"`
	Image       *models.Image `json:"image,omitempty"`
	SortOrder   int           `json:"sort_order"`
}

func NewCategoryService(store repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Categories().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

// GetCategory looks up an active category by slug.
func (s *CategoryService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.store.Categories().FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, lookupErr(err, "category")
	}
	if !category.IsActive {
		return nil, notFound("category")
	}
	return category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.ParentID != nil {
		if _, err := s.store.Categories().FindByID(ctx, *req.ParentID); err != nil {
			return nil, lookupErr(err, "parent category")
		}
	}

	slug := models.Slugify(req.Name)
	if slug == "" {
		return nil, invalidState("category name must contain letters or digits")
	}

	category := &models.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		ParentID:    req.ParentID,
		Image:       req.Image,
		IsActive:    true,
		SortOrder:   req.SortOrder,
	}

	if err := s.store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "category %s already exists", slug)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}
