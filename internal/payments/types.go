// Package payments holds the payment-provider capability used by checkout,
// onboarding and settlement webhooks.
package payments

import (
	"context"
	"errors"
)

// ErrInvalidSignature is returned by ParseWebhook when the payload was not
// signed with the configured secret.
var ErrInvalidSignature = errors.New("payments: invalid webhook signature")

type Provider interface {
	CreateAccount(ctx context.Context) (string, error)
	CreateAccountLink(ctx context.Context, p AccountLinkParams) (string, error)
	CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
	CheckoutSessionProductIDs(ctx context.Context, sessionID, accountID string) ([]string, error)
}

type AccountLinkParams struct {
	AccountID  string
	RefreshURL string
	ReturnURL  string
}

// LineItem is one product in a checkout. UnitAmount is in minor units (cents).
type LineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
	Metadata   map[string]string
}

type CheckoutSessionParams struct {
	AccountID            string // connected account the session is created on
	CustomerEmail        string
	Currency             string
	LineItems            []LineItem
	ApplicationFeeAmount int64
	SuccessURL           string
	CancelURL            string
	Metadata             map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventAccountUpdated           = "account.updated"
)

// Event is the provider-neutral part of a webhook notification.
type Event struct {
	ID        string
	Type      string
	AccountID string

	// checkout.session.completed
	CheckoutSessionID string
	Metadata          map[string]string

	// account.updated
	DetailsSubmitted bool
}
