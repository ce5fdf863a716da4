package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/payments"
	"marketplace/internal/repos"
	"marketplace/internal/telemetry"
)

// WebhookService settles completed checkouts into orders and tracks seller
// onboarding state reported by the payment provider.
type WebhookService struct {
	Payments payments.Provider
	Orders   *repos.OrderRepo
	Users    *repos.UserRepo
	Products *repos.ProductRepo
	Tenants  *repos.TenantRepo
}

// WebhookResult summarises what a delivery changed.
type WebhookResult struct {
	Event         payments.Event
	OrdersCreated int
	Handled       bool
}

func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	ev, err := s.Payments.ParseWebhook(payload, signature)
	if err != nil {
		return WebhookResult{}, apperr.BadRequest("invalid webhook").Wrap(err)
	}
	ctx, span := telemetry.Tracer().Start(ctx, "webhook.Handle")
	defer span.End()
	span.SetAttributes(attribute.String("event.type", ev.Type))

	res := WebhookResult{Event: ev}
	switch ev.Type {
	case payments.EventCheckoutSessionCompleted:
		n, err := s.settle(ctx, ev)
		if err != nil {
			span.RecordError(err)
			return res, err
		}
		res.OrdersCreated, res.Handled = n, true
	case payments.EventAccountUpdated:
		if _, err := s.Tenants.SetDetailsSubmitted(ctx, ev.AccountID, ev.DetailsSubmitted); err != nil {
			return res, err
		}
		res.Handled = true
	}
	return res, nil
}

// settle writes one order per purchased product. Redelivered events create
// nothing new.
func (s *WebhookService) settle(ctx context.Context, ev payments.Event) (int, error) {
	userID := ev.Metadata["userId"]
	if userID == "" {
		return 0, apperr.BadRequest("checkout session without userId")
	}
	user, err := s.Users.ByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("user not found")
	}
	if err != nil {
		return 0, err
	}

	ids, err := s.Payments.CheckoutSessionProductIDs(ctx, ev.CheckoutSessionID, ev.AccountID)
	if err != nil {
		return 0, fmt.Errorf("read checkout line items: %w", err)
	}
	products, err := s.Products.ByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range products {
		inserted, err := s.Orders.Create(ctx, domain.Order{
			UserID:                  user.ID,
			ProductID:               p.ID,
			Name:                    p.Name,
			StripeCheckoutSessionID: ev.CheckoutSessionID,
			StripeAccountID:         ev.AccountID,
		})
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}
	return created, nil
}
