// Package paymentstest provides an in-memory payments.Provider for tests.
package paymentstest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"marketplace/internal/payments"
)

// Fake records every call and returns canned results. Set the *Err fields to
// make the matching call fail.
type Fake struct {
	mu sync.Mutex

	Accounts     []string
	AccountLinks []payments.AccountLinkParams
	Sessions     []payments.CheckoutSessionParams

	// SessionProducts answers CheckoutSessionProductIDs by session id.
	SessionProducts map[string][]string

	SessionURL     string
	AccountLinkURL string

	AccountErr  error
	LinkErr     error
	CheckoutErr error
	// BeforeCheckout runs ahead of CreateCheckoutSession.
	BeforeCheckout func()
}

func New() *Fake {
	return &Fake{
		SessionProducts: map[string][]string{},
		SessionURL:      "https://checkout.test/session",
		AccountLinkURL:  "https://connect.test/onboarding",
	}
}

func (f *Fake) CreateAccount(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AccountErr != nil {
		return "", f.AccountErr
	}
	id := fmt.Sprintf("acct_fake_%d", len(f.Accounts)+1)
	f.Accounts = append(f.Accounts, id)
	return id, nil
}

func (f *Fake) CreateAccountLink(_ context.Context, p payments.AccountLinkParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LinkErr != nil {
		return "", f.LinkErr
	}
	f.AccountLinks = append(f.AccountLinks, p)
	return f.AccountLinkURL, nil
}

func (f *Fake) CreateCheckoutSession(_ context.Context, p payments.CheckoutSessionParams) (payments.CheckoutSession, error) {
	if f.BeforeCheckout != nil {
		f.BeforeCheckout()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CheckoutErr != nil {
		return payments.CheckoutSession{}, f.CheckoutErr
	}
	f.Sessions = append(f.Sessions, p)
	id := fmt.Sprintf("cs_fake_%d", len(f.Sessions))
	return payments.CheckoutSession{ID: id, URL: f.SessionURL}, nil
}

// ParseWebhook accepts the signature "valid" and a JSON encoded payments.Event.
func (f *Fake) ParseWebhook(payload []byte, signature string) (payments.Event, error) {
	if signature != "valid" {
		return payments.Event{}, payments.ErrInvalidSignature
	}
	var ev payments.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return payments.Event{}, err
	}
	return ev, nil
}

func (f *Fake) CheckoutSessionProductIDs(_ context.Context, sessionID, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids, ok := f.SessionProducts[sessionID]
	if !ok {
		return nil, fmt.Errorf("unknown checkout session %s", sessionID)
	}
	return ids, nil
}

func (f *Fake) SessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sessions)
}
