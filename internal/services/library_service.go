package services

import (
	"context"
	"database/sql"
	"errors"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/repos"
)

// LibraryService lists what a user has bought.
type LibraryService struct {
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
}

func (s *LibraryService) List(ctx context.Context, user *domain.User, cursor, limit int) (ProductPage, error) {
	if user == nil {
		return ProductPage{}, apperr.Unauthorized("sign in required")
	}
	page, size, offset := window(cursor, limit)
	docs, total, err := s.Products.Find(ctx, repos.ProductFilter{PurchasedBy: user.ID, Limit: size, Offset: offset})
	if err != nil {
		return ProductPage{}, err
	}
	return newPage(docs, total, page, size), nil
}

func (s *LibraryService) Get(ctx context.Context, user *domain.User, productID string) (domain.Product, error) {
	if user == nil {
		return domain.Product{}, apperr.Unauthorized("sign in required")
	}
	owned, err := s.Orders.HasPurchased(ctx, user.ID, productID)
	if err != nil {
		return domain.Product{}, err
	}
	if !owned {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	p, err := s.Products.Get(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	return p, err
}
