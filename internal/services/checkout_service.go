package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/payments"
	"marketplace/internal/repos"
	"marketplace/internal/telemetry"
)

type PurchaseInput struct {
	ProductIDs []string
	TenantSlug string
}

// RedirectURL is where the client is sent next: a hosted checkout page or an
// onboarding form.
type RedirectURL struct {
	URL string `json:"url"`
}

// CartView is the hydrated content of a client-side cart.
type CartView struct {
	Docs       []domain.Product `json:"docs"`
	TotalDocs  int              `json:"totalDocs"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
}

type CheckoutService struct {
	Products *repos.ProductRepo
	Tenants  *repos.TenantRepo
	Payments payments.Provider

	FeePercentage decimal.Decimal
	AppURL        string
	TenantURL     func(slug string) string
	// RecheckPrices re-reads prices right before the session is created and
	// refuses the checkout when any changed.
	RecheckPrices bool
}

func NewCheckoutService(products *repos.ProductRepo, tenants *repos.TenantRepo, provider payments.Provider, fee decimal.Decimal, appURL string, tenantURL func(string) string) *CheckoutService {
	return &CheckoutService{
		Products:      products,
		Tenants:       tenants,
		Payments:      provider,
		FeePercentage: fee,
		AppURL:        appURL,
		TenantURL:     tenantURL,
		RecheckPrices: true,
	}
}

// Purchase validates that every requested product belongs to the tenant and
// opens a checkout session on the tenant's connected account, withholding the
// platform fee. Nothing is written locally.
func (s *CheckoutService) Purchase(ctx context.Context, in PurchaseInput, requester *domain.User) (RedirectURL, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "checkout.Purchase")
	defer span.End()

	if requester == nil {
		return RedirectURL{}, apperr.Unauthorized("sign in required")
	}
	if len(in.ProductIDs) == 0 || in.TenantSlug == "" {
		return RedirectURL{}, apperr.BadRequest("productIds and tenantSlug are required")
	}
	span.SetAttributes(attribute.String("tenant.slug", in.TenantSlug), attribute.Int("products", len(in.ProductIDs)))

	products, err := s.Products.ByIDsForTenant(ctx, in.ProductIDs, in.TenantSlug)
	if err != nil {
		span.RecordError(err)
		return RedirectURL{}, err
	}
	// All or nothing: a foreign or missing id fails the whole checkout.
	if len(products) != len(in.ProductIDs) {
		return RedirectURL{}, apperr.NotFound("products not found")
	}

	tenant, err := s.Tenants.BySlug(ctx, in.TenantSlug)
	if errors.Is(err, sql.ErrNoRows) {
		return RedirectURL{}, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return RedirectURL{}, err
	}
	if !tenant.CanSell() {
		return RedirectURL{}, apperr.BadRequest("tenant not allowed to sell products")
	}

	items := make([]payments.LineItem, 0, len(products))
	var total int64
	for _, p := range products {
		cents, err := ToMinorUnits(p.Price)
		if err != nil {
			return RedirectURL{}, apperr.BadRequest("product price cannot be charged").Wrap(err)
		}
		total += cents
		items = append(items, payments.LineItem{
			Name:       p.Name,
			UnitAmount: cents,
			Quantity:   1,
			Metadata: map[string]string{
				"stripeAccountId": tenant.StripeAccountID,
				"id":              p.ID,
				"name":            p.Name,
				"price":           p.Price.String(),
			},
		})
	}
	fee := PlatformFee(total, s.FeePercentage)
	span.SetAttributes(attribute.Int64("amount.total", total), attribute.Int64("amount.fee", fee))

	if s.RecheckPrices {
		if err := s.recheck(ctx, products); err != nil {
			return RedirectURL{}, err
		}
	}

	base := s.TenantURL(tenant.Slug)
	sess, err := s.Payments.CreateCheckoutSession(ctx, payments.CheckoutSessionParams{
		AccountID:            tenant.StripeAccountID,
		CustomerEmail:        requester.Email,
		Currency:             "usd",
		LineItems:            items,
		ApplicationFeeAmount: fee,
		SuccessURL:           base + "/checkout?success=true",
		CancelURL:            base + "/checkout?cancel=true",
		Metadata:             map[string]string{"userId": requester.ID},
	})
	if err != nil {
		span.RecordError(err)
		return RedirectURL{}, fmt.Errorf("create checkout session: %w", err)
	}
	if sess.URL == "" {
		return RedirectURL{}, apperr.Internal("failed to create checkout session")
	}
	return RedirectURL{URL: sess.URL}, nil
}

func (s *CheckoutService) recheck(ctx context.Context, products []domain.Product) error {
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	current, err := s.Products.Prices(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range products {
		now, ok := current[p.ID]
		if !ok {
			return apperr.NotFound("products not found")
		}
		if !now.Equal(p.Price) {
			return apperr.BadRequest(fmt.Sprintf("price of %q changed, refresh your cart", p.Name))
		}
	}
	return nil
}

// Verify returns an onboarding link for the requester's tenant so it can finish
// connecting its payout account.
func (s *CheckoutService) Verify(ctx context.Context, requester *domain.User) (RedirectURL, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "checkout.Verify")
	defer span.End()

	if requester == nil {
		return RedirectURL{}, apperr.Unauthorized("sign in required")
	}
	if requester.TenantID == "" {
		return RedirectURL{}, apperr.NotFound("tenant not found")
	}
	tenant, err := s.Tenants.ByID(ctx, requester.TenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return RedirectURL{}, apperr.NotFound("tenant not found")
	}
	if err != nil {
		return RedirectURL{}, err
	}

	admin := s.AppURL + "/admin"
	url, err := s.Payments.CreateAccountLink(ctx, payments.AccountLinkParams{
		AccountID:  tenant.StripeAccountID,
		RefreshURL: admin,
		ReturnURL:  admin,
	})
	if err != nil {
		span.RecordError(err)
		return RedirectURL{}, fmt.Errorf("create account link: %w", err)
	}
	if url == "" {
		return RedirectURL{}, apperr.BadRequest("failed to create verification link")
	}
	return RedirectURL{URL: url}, nil
}

// GetProducts hydrates a cart: every id must exist, across any tenant.
func (s *CheckoutService) GetProducts(ctx context.Context, ids []string) (CartView, error) {
	products, err := s.Products.ByIDs(ctx, ids)
	if err != nil {
		return CartView{}, err
	}
	if len(products) != len(ids) {
		return CartView{}, apperr.NotFound("products not found")
	}
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return CartView{Docs: products, TotalDocs: len(products), TotalPrice: total}, nil
}
