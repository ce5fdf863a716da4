package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, product_id, name, stripe_checkout_session_id, stripe_account_id, COALESCE(created_at,'') AS created_at`

// Create inserts an order unless the (session, product) pair was already recorded.
// It reports whether a row was written.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) (bool, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	res, err := r.db.ExecContext(ctx, `
	  INSERT INTO orders(id, user_id, product_id, name, stripe_checkout_session_id, stripe_account_id)
	  VALUES(?, ?, ?, ?, ?, ?)
	  ON CONFLICT(stripe_checkout_session_id, product_id) DO NOTHING
	`, o.ID, o.UserID, o.ProductID, o.Name, o.StripeCheckoutSessionID, o.StripeAccountID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+orderCols+`
	  FROM orders
	  WHERE user_id = ?
	  ORDER BY created_at DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) BySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+orderCols+`
	  FROM orders
	  WHERE stripe_checkout_session_id = ?
	  ORDER BY product_id
	`, sessionID)
	return out, err
}

// HasPurchased reports whether userID owns an order for productID.
func (r *OrderRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders WHERE user_id = ? AND product_id = ?`, userID, productID)
	return n > 0, err
}
