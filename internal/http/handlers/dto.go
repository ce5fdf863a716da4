package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"marketplace/internal/apperr"
	"marketplace/internal/validate"
)

type purchaseRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,rid"`
	TenantSlug string   `json:"tenantSlug" validate:"required,slug"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=63"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

type createReviewRequest struct {
	ProductID   string `json:"productId" validate:"required,rid"`
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Description string `json:"description" validate:"required,max=2000"`
}

type updateReviewRequest struct {
	Rating      int    `json:"rating" validate:"required,min=1,max=5"`
	Description string `json:"description" validate:"required,max=2000"`
}

type createProductRequest struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=5000"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category" validate:"omitempty,slug"`
	Tags         []string        `json:"tags" validate:"max=20,dive,required,max=64"`
	RefundPolicy string          `json:"refundPolicy" validate:"omitempty,oneof=30-day 14-day 7-day 3-day 1-day no-refund"`
	Image        string          `json:"image" validate:"omitempty,url"`
	IsPrivate    bool            `json:"isPrivate"`
}

type createCategoryRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Slug   string `json:"slug" validate:"required,slug"`
	Color  string `json:"color" validate:"omitempty,color"`
	Parent string `json:"parent" validate:"omitempty,slug"`
}

type createTagRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// bind decodes the JSON body into dst and runs its validation tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.BadRequest("malformed request body").Wrap(err)
	}
	return validate.Struct(dst)
}
