package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type TenantRepo struct{ db *sqlx.DB }

func NewTenantRepo(db *sqlx.DB) *TenantRepo { return &TenantRepo{db: db} }

const tenantCols = `id, name, slug, image_url, stripe_account_id, stripe_details_submitted, COALESCE(created_at,'') AS created_at`

// BySlug returns sql.ErrNoRows when the tenant does not exist.
func (r *TenantRepo) BySlug(ctx context.Context, slug string) (domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.GetContext(ctx, &t, `SELECT `+tenantCols+` FROM tenants WHERE slug = ?`, slug)
	return t, err
}

func (r *TenantRepo) ByID(ctx context.Context, id string) (domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.GetContext(ctx, &t, `SELECT `+tenantCols+` FROM tenants WHERE id = ?`, id)
	return t, err
}

func (r *TenantRepo) ByStripeAccount(ctx context.Context, accountID string) (domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.GetContext(ctx, &t, `SELECT `+tenantCols+` FROM tenants WHERE stripe_account_id = ?`, accountID)
	return t, err
}

func (r *TenantRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	out := []domain.Tenant{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+tenantCols+` FROM tenants ORDER BY slug`)
	return out, err
}

func (r *TenantRepo) Create(ctx context.Context, t domain.Tenant) (domain.Tenant, error) {
	id, err := insertTenant(ctx, r.db, t)
	if err != nil {
		return domain.Tenant{}, err
	}
	return r.ByID(ctx, id)
}

func insertTenant(ctx context.Context, db sqlx.ExecerContext, t domain.Tenant) (string, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := db.ExecContext(ctx, `
	  INSERT INTO tenants(id, name, slug, image_url, stripe_account_id, stripe_details_submitted)
	  VALUES(?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Slug, t.ImageURL, t.StripeAccountID, t.StripeDetailsSubmitted)
	return t.ID, err
}

// SetDetailsSubmitted records the onboarding state reported by the payment provider.
// It reports false when no tenant owns the account.
func (r *TenantRepo) SetDetailsSubmitted(ctx context.Context, accountID string, submitted bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE tenants SET stripe_details_submitted = ? WHERE stripe_account_id = ?
	`, submitted, accountID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
