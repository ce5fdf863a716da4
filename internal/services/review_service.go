package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/repos"
)

type ReviewService struct {
	Reviews  *repos.ReviewRepo
	Products *repos.ProductRepo
}

type ReviewInput struct {
	ProductID   string
	Rating      int
	Description string
}

// GetMine returns the requester's review of a product, or nil when there is none.
func (s *ReviewService) GetMine(ctx context.Context, user *domain.User, productID string) (*domain.Review, error) {
	if user == nil {
		return nil, apperr.Unauthorized("sign in required")
	}
	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	rv, err := s.Reviews.ByUserAndProduct(ctx, user.ID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (s *ReviewService) Create(ctx context.Context, user *domain.User, in ReviewInput) (domain.Review, error) {
	if user == nil {
		return domain.Review{}, apperr.Unauthorized("sign in required")
	}
	if err := checkReview(in.Rating, in.Description); err != nil {
		return domain.Review{}, err
	}
	if _, err := s.product(ctx, in.ProductID); err != nil {
		return domain.Review{}, err
	}
	_, err := s.Reviews.ByUserAndProduct(ctx, user.ID, in.ProductID)
	if err == nil {
		return domain.Review{}, apperr.BadRequest("you have already reviewed this product")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, err
	}
	return s.Reviews.Create(ctx, domain.Review{
		UserID:      user.ID,
		ProductID:   in.ProductID,
		Rating:      in.Rating,
		Description: strings.TrimSpace(in.Description),
	})
}

func (s *ReviewService) Update(ctx context.Context, user *domain.User, reviewID string, rating int, description string) (domain.Review, error) {
	if user == nil {
		return domain.Review{}, apperr.Unauthorized("sign in required")
	}
	if err := checkReview(rating, description); err != nil {
		return domain.Review{}, err
	}
	rv, err := s.Reviews.ByID(ctx, reviewID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, apperr.NotFound("review not found")
	}
	if err != nil {
		return domain.Review{}, err
	}
	if rv.UserID != user.ID {
		return domain.Review{}, apperr.Unauthorized("not allowed to update this review")
	}
	return s.Reviews.Update(ctx, reviewID, rating, strings.TrimSpace(description))
}

func (s *ReviewService) product(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Products.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	return p, err
}

func checkReview(rating int, description string) error {
	if rating < 1 || rating > 5 {
		return apperr.BadRequest("rating must be between 1 and 5")
	}
	if strings.TrimSpace(description) == "" {
		return apperr.BadRequest("description is required")
	}
	return nil
}
