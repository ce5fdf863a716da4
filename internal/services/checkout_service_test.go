package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/repos"
	"marketplace/internal/services"
)

func TestPurchase_CreatesSessionOnConnectedAccount(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	a := w.product(t, repos.NewProduct{Name: "Course", Price: usd("60")})
	b := w.product(t, repos.NewProduct{Name: "Ebook", Price: usd("40")})

	out, err := w.checkout.Purchase(ctx, services.PurchaseInput{ProductIDs: []string{a.ID, b.ID}, TenantSlug: "acme"}, w.buyer)
	require.NoError(t, err)
	assert.Equal(t, w.fake.SessionURL, out.URL)

	require.Len(t, w.fake.Sessions, 1)
	sess := w.fake.Sessions[0]
	assert.Equal(t, "acct_acme", sess.AccountID)
	assert.Equal(t, "buyer@shop.test", sess.CustomerEmail)
	assert.Equal(t, int64(1000), sess.ApplicationFeeAmount) // 10% of $100.00
	assert.Equal(t, "https://shop.test/tenants/acme/checkout?success=true", sess.SuccessURL)
	assert.Equal(t, "https://shop.test/tenants/acme/checkout?cancel=true", sess.CancelURL)
	assert.Equal(t, w.buyer.ID, sess.Metadata["userId"])

	require.Len(t, sess.LineItems, 2)
	var total int64
	for _, li := range sess.LineItems {
		assert.Equal(t, int64(1), li.Quantity)
		assert.Equal(t, "acct_acme", li.Metadata["stripeAccountId"])
		assert.Equal(t, li.Name, li.Metadata["name"])
		assert.NotEmpty(t, li.Metadata["id"])
		total += li.UnitAmount
	}
	assert.Equal(t, int64(10000), total)
}

func TestPurchase_ForeignProductFailsWholeCheckout(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	mine := w.product(t, repos.NewProduct{Price: usd("5")})
	foreign := w.product(t, repos.NewProduct{Price: usd("5"), TenantID: w.fresh.ID})

	_, err := w.checkout.Purchase(ctx, services.PurchaseInput{ProductIDs: []string{mine.ID, foreign.ID}, TenantSlug: "acme"}, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = w.checkout.Purchase(ctx, services.PurchaseInput{ProductIDs: []string{mine.ID, "missing"}, TenantSlug: "acme"}, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = w.checkout.Purchase(ctx, services.PurchaseInput{ProductIDs: []string{mine.ID, mine.ID}, TenantSlug: "acme"}, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "duplicate ids do not match the unique product count")

	assert.Zero(t, w.fake.SessionCount())
}

func TestPurchase_TenantNotOnboarded(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, repos.NewProduct{Price: usd("5"), TenantID: w.fresh.ID})

	_, err := w.checkout.Purchase(context.Background(), services.PurchaseInput{ProductIDs: []string{p.ID}, TenantSlug: "fresh"}, w.buyer)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Zero(t, w.fake.SessionCount())
}

func TestPurchase_InputChecks(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p := w.product(t, repos.NewProduct{Price: usd("5")})

	_, err := w.checkout.Purchase(ctx, services.PurchaseInput{ProductIDs: []string{p.ID}, TenantSlug: "acme"}, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = w.checkout.Purchase(ctx, services.PurchaseInput{TenantSlug: "acme"}, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)

	_, err = w.checkout.Purchase(ctx, services.PurchaseInput{ProductIDs: []string{p.ID}}, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestPurchase_ProviderFailures(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p := w.product(t, repos.NewProduct{Price: usd("5")})
	in := services.PurchaseInput{ProductIDs: []string{p.ID}, TenantSlug: "acme"}

	w.fake.CheckoutErr = errors.New("card network down")
	_, err := w.checkout.Purchase(ctx, in, w.buyer)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(err))

	w.fake.CheckoutErr = nil
	w.fake.SessionURL = ""
	_, err = w.checkout.Purchase(ctx, in, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestPurchase_FeeRounding(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, repos.NewProduct{Price: usd("10.05")})

	_, err := w.checkout.Purchase(context.Background(), services.PurchaseInput{ProductIDs: []string{p.ID}, TenantSlug: "acme"}, w.buyer)
	require.NoError(t, err)
	require.Len(t, w.fake.Sessions, 1)
	assert.Equal(t, int64(1005), w.fake.Sessions[0].LineItems[0].UnitAmount)
	assert.Equal(t, int64(101), w.fake.Sessions[0].ApplicationFeeAmount)
}

func TestPurchase_SubCentPriceRejected(t *testing.T) {
	w := newWorld(t)
	p := w.product(t, repos.NewProduct{Price: usd("10.005")})

	_, err := w.checkout.Purchase(context.Background(), services.PurchaseInput{ProductIDs: []string{p.ID}, TenantSlug: "acme"}, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Empty(t, w.fake.Sessions)
}

func TestVerify(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	out, err := w.checkout.Verify(ctx, w.seller)
	require.NoError(t, err)
	assert.Equal(t, w.fake.AccountLinkURL, out.URL)
	require.Len(t, w.fake.AccountLinks, 1)
	assert.Equal(t, "acct_acme", w.fake.AccountLinks[0].AccountID)
	assert.Equal(t, "https://shop.test/admin", w.fake.AccountLinks[0].ReturnURL)
	assert.Equal(t, "https://shop.test/admin", w.fake.AccountLinks[0].RefreshURL)

	_, err = w.checkout.Verify(ctx, w.buyer)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = w.checkout.Verify(ctx, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = w.checkout.Verify(ctx, &domain.User{ID: "x", TenantID: "gone"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	w.fake.AccountLinkURL = ""
	_, err = w.checkout.Verify(ctx, w.seller)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestGetProducts(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	a := w.product(t, repos.NewProduct{Price: usd("12.50")})
	b := w.product(t, repos.NewProduct{Price: usd("7.25"), TenantID: w.fresh.ID})

	view, err := w.checkout.GetProducts(ctx, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalDocs)
	assert.Equal(t, "19.75", view.TotalPrice.String())

	_, err = w.checkout.GetProducts(ctx, []string{a.ID, "missing"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
