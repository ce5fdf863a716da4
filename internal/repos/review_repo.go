package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewCols = `id, user_id, product_id, rating, description, COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ReviewRepo) ByID(ctx context.Context, id string) (domain.Review, error) {
	var rv domain.Review
	err := r.db.GetContext(ctx, &rv, `SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id)
	return rv, err
}

// ByUserAndProduct returns sql.ErrNoRows when the user has not reviewed the product.
func (r *ReviewRepo) ByUserAndProduct(ctx context.Context, userID, productID string) (domain.Review, error) {
	var rv domain.Review
	err := r.db.GetContext(ctx, &rv, `SELECT `+reviewCols+` FROM reviews WHERE user_id = ? AND product_id = ?`, userID, productID)
	return rv, err
}

func (r *ReviewRepo) Create(ctx context.Context, rv domain.Review) (domain.Review, error) {
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO reviews(id, user_id, product_id, rating, description)
	  VALUES(?, ?, ?, ?, ?)
	`, rv.ID, rv.UserID, rv.ProductID, rv.Rating, rv.Description)
	if err != nil {
		return domain.Review{}, err
	}
	return r.ByID(ctx, rv.ID)
}

func (r *ReviewRepo) Update(ctx context.Context, id string, rating int, description string) (domain.Review, error) {
	_, err := r.db.ExecContext(ctx, `
	  UPDATE reviews SET rating = ?, description = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?
	`, rating, description, id)
	if err != nil {
		return domain.Review{}, err
	}
	return r.ByID(ctx, id)
}

// Stats returns the average rating and count of reviews for a product.
func (r *ReviewRepo) Stats(ctx context.Context, productID string) (float64, int, error) {
	var s struct {
		Avg   float64 `db:"avg"`
		Count int     `db:"cnt"`
	}
	err := r.db.GetContext(ctx, &s, `
	  SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt
	  FROM reviews WHERE product_id = ?
	`, productID)
	return s.Avg, s.Count, err
}
