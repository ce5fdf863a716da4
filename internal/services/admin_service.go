package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/repos"
)

// AdminService maintains the shared taxonomy. Callers are expected to have
// checked the ADMIN role.
type AdminService struct {
	Categories *repos.CategoryRepo
	Tags       *repos.TagRepo
	Catalog    *CatalogService
}

type CategoryInput struct {
	Name       string
	Slug       string
	Color      string
	ParentSlug string
}

// CreateCategory adds a category. A parent must itself be top-level so the
// tree never grows past two levels.
func (s *AdminService) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	c := domain.Category{Name: strings.TrimSpace(in.Name), Slug: in.Slug, Color: in.Color}
	if c.Name == "" {
		return domain.Category{}, apperr.BadRequest("name is required")
	}
	if _, err := s.Categories.BySlug(ctx, in.Slug); err == nil {
		return domain.Category{}, apperr.BadRequest("slug already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, err
	}
	if in.ParentSlug != "" {
		parent, err := s.Categories.BySlug(ctx, in.ParentSlug)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, apperr.NotFound("parent category not found")
		}
		if err != nil {
			return domain.Category{}, err
		}
		if parent.ParentID != "" {
			return domain.Category{}, apperr.BadRequest("subcategories cannot have children")
		}
		c.ParentID = parent.ID
	}
	created, err := s.Categories.Create(ctx, c)
	if err != nil {
		return domain.Category{}, err
	}
	if s.Catalog != nil {
		s.Catalog.InvalidateCategories(ctx)
	}
	return created, nil
}

func (s *AdminService) CreateTag(ctx context.Context, name string) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Tag{}, apperr.BadRequest("name is required")
	}
	return s.Tags.Ensure(ctx, name)
}
