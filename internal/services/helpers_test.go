package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"marketplace/internal/domain"
	"marketplace/internal/payments/paymentstest"
	"marketplace/internal/repos"
	"marketplace/internal/services"
)

type world struct {
	db   *sqlx.DB
	fake *paymentstest.Fake

	products *repos.ProductRepo
	tenants  *repos.TenantRepo
	users    *repos.UserRepo
	orders   *repos.OrderRepo

	catalog  *services.CatalogService
	checkout *services.CheckoutService

	acme   domain.Tenant // onboarded
	fresh  domain.Tenant // not onboarded
	buyer  *domain.User
	seller *domain.User
}

func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	w := &world{
		db:       db,
		fake:     paymentstest.New(),
		products: repos.NewProductRepo(db),
		tenants:  repos.NewTenantRepo(db),
		users:    repos.NewUserRepo(db),
		orders:   repos.NewOrderRepo(db),
	}
	w.catalog = services.NewCatalogService(repos.NewCategoryRepo(db), w.products, repos.NewTagRepo(db), repos.NewReviewRepo(db))
	w.checkout = services.NewCheckoutService(w.products, w.tenants, w.fake, decimal.NewFromInt(10),
		"https://shop.test", func(slug string) string { return "https://shop.test/tenants/" + slug })

	w.acme, err = w.tenants.Create(ctx, domain.Tenant{Name: "Acme", Slug: "acme", StripeAccountID: "acct_acme", StripeDetailsSubmitted: true})
	require.NoError(t, err)
	w.fresh, err = w.tenants.Create(ctx, domain.Tenant{Name: "Fresh", Slug: "fresh", StripeAccountID: "acct_fresh"})
	require.NoError(t, err)
	w.buyer, err = w.users.Create(ctx, domain.User{Email: "buyer@shop.test", Username: "buyer", Hash: "x"})
	require.NoError(t, err)
	w.seller, err = w.users.Create(ctx, domain.User{Email: "owner@shop.test", Username: "acme", Hash: "x", TenantID: w.acme.ID})
	require.NoError(t, err)
	return w
}

func (w *world) category(t *testing.T, slug, parentID string) domain.Category {
	t.Helper()
	c, err := repos.NewCategoryRepo(w.db).Create(context.Background(), domain.Category{Name: slug, Slug: slug, ParentID: parentID})
	require.NoError(t, err)
	return c
}

func (w *world) product(t *testing.T, np repos.NewProduct, tags ...string) domain.Product {
	t.Helper()
	ctx := context.Background()
	if np.TenantID == "" {
		np.TenantID = w.acme.ID
	}
	if np.Name == "" {
		np.Name = "product"
	}
	for _, name := range tags {
		tg, err := repos.NewTagRepo(w.db).Ensure(ctx, name)
		require.NoError(t, err)
		np.TagIDs = append(np.TagIDs, tg.ID)
	}
	p, err := w.products.Create(ctx, np)
	require.NoError(t, err)
	return p
}

func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ids(docs []domain.Product) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
