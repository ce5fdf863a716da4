package services

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/repos"
)

type TenantService struct {
	Tenants *repos.TenantRepo
}

func (s *TenantService) GetBySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	t, err := s.Tenants.BySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tenant{}, apperr.NotFound("tenant not found")
	}
	return t, err
}

func (s *TenantService) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.Tenants.List(ctx)
}
