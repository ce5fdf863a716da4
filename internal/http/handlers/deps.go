package handlers

import (
	"github.com/jmoiron/sqlx"

	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/payments"
	"marketplace/internal/repos"
	"marketplace/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler     *AuthHandler
	CatalogHandler  *CatalogHandler
	CheckoutHandler *CheckoutHandler
	LibraryHandler  *LibraryHandler
	SellerHandler   *SellerHandler
	AdminHandler    *AdminHandler
	WebhookHandler  *WebhookHandler
}

// NewDeps wires repositories, services and handlers. c may be nil, in which
// case the category tree is read from the database on every request.
func NewDeps(db *sqlx.DB, cfg config.Config, provider payments.Provider, c cache.Cache) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	tagRepo := repos.NewTagRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	tenantRepo := repos.NewTenantRepo(db)
	userRepo := repos.NewUserRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo, tagRepo, reviewRepo)
	if c != nil {
		catalogSvc.Cache = c
		catalogSvc.CacheTTL = cfg.CategoryCacheTTL
	}
	checkoutSvc := services.NewCheckoutService(prodRepo, tenantRepo, provider, cfg.PlatformFeePercentage, cfg.AppURL, cfg.TenantURL)
	checkoutSvc.RecheckPrices = cfg.RecheckPrices
	authSvc := &services.AuthService{Users: userRepo, Tenants: tenantRepo, Payments: provider}
	tenantSvc := &services.TenantService{Tenants: tenantRepo}

	return &Deps{
		Auth:            authSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc, CookieSecure: cfg.CookieSecure},
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc, Tenants: tenantSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc},
		LibraryHandler: &LibraryHandler{
			Library: &services.LibraryService{Products: prodRepo, Orders: orderRepo},
			Reviews: &services.ReviewService{Reviews: reviewRepo, Products: prodRepo},
		},
		SellerHandler: &SellerHandler{Seller: &services.SellerService{
			Products:   prodRepo,
			Tenants:    tenantRepo,
			Categories: catRepo,
			Tags:       tagRepo,
		}},
		AdminHandler: &AdminHandler{
			Admin:   &services.AdminService{Categories: catRepo, Tags: tagRepo, Catalog: catalogSvc},
			Tenants: tenantSvc,
		},
		WebhookHandler: &WebhookHandler{Webhooks: &services.WebhookService{
			Payments: provider,
			Orders:   orderRepo,
			Users:    userRepo,
			Products: prodRepo,
			Tenants:  tenantRepo,
		}},
	}
}
