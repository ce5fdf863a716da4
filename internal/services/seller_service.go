package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/repos"
)

// SellerService lets a tenant owner manage its own catalog.
type SellerService struct {
	Products   *repos.ProductRepo
	Tenants    *repos.TenantRepo
	Categories *repos.CategoryRepo
	Tags       *repos.TagRepo
}

type ProductInput struct {
	Name         string
	Description  string
	Price        decimal.Decimal
	CategorySlug string
	Tags         []string
	RefundPolicy domain.RefundPolicy
	ImageURL     string
	IsPrivate    bool
}

func (s *SellerService) tenantOf(ctx context.Context, user *domain.User) (domain.Tenant, error) {
	if user == nil {
		return domain.Tenant{}, apperr.Unauthorized("sign in required")
	}
	if user.TenantID == "" {
		return domain.Tenant{}, apperr.BadRequest("account has no store")
	}
	t, err := s.Tenants.ByID(ctx, user.TenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tenant{}, apperr.NotFound("tenant not found")
	}
	return t, err
}

// CreateProduct lists a product in the requester's store. Stores that have not
// finished payment onboarding cannot list.
func (s *SellerService) CreateProduct(ctx context.Context, user *domain.User, in ProductInput) (domain.Product, error) {
	tenant, err := s.tenantOf(ctx, user)
	if err != nil {
		return domain.Product{}, err
	}
	if !tenant.CanSell() {
		return domain.Product{}, apperr.BadRequest("finish payment onboarding before listing products")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, apperr.BadRequest("name is required")
	}
	if in.Price.IsNegative() {
		return domain.Product{}, apperr.BadRequest("price must not be negative")
	}
	if _, err := ToMinorUnits(in.Price); err != nil {
		return domain.Product{}, apperr.BadRequest("price must have at most two decimals")
	}
	if in.RefundPolicy == "" {
		in.RefundPolicy = domain.Refund30Day
	}
	if !in.RefundPolicy.Valid() {
		return domain.Product{}, apperr.BadRequest("unknown refund policy")
	}

	np := repos.NewProduct{
		TenantID:     tenant.ID,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price,
		ImageURL:     in.ImageURL,
		RefundPolicy: in.RefundPolicy,
		IsPrivate:    in.IsPrivate,
	}
	if in.CategorySlug != "" {
		c, err := s.Categories.BySlug(ctx, in.CategorySlug)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, apperr.NotFound("category not found")
		}
		if err != nil {
			return domain.Product{}, err
		}
		np.CategoryID = c.ID
	}
	for _, name := range in.Tags {
		tg, err := s.Tags.Ensure(ctx, strings.TrimSpace(name))
		if err != nil {
			return domain.Product{}, err
		}
		np.TagIDs = append(np.TagIDs, tg.ID)
	}
	return s.Products.Create(ctx, np)
}

func (s *SellerService) ArchiveProduct(ctx context.Context, user *domain.User, productID string) error {
	tenant, err := s.tenantOf(ctx, user)
	if err != nil {
		return err
	}
	ok, err := s.Products.Archive(ctx, productID, tenant.ID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("product not found")
	}
	return nil
}
