package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/domain"
	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

type SellerHandler struct {
	Seller *services.SellerService
}

// POST /api/seller/products
func (h *SellerHandler) CreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.Seller.CreateProduct(c.UserContext(), currentUser(c), services.ProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		CategorySlug: req.Category,
		Tags:         req.Tags,
		RefundPolicy: domain.RefundPolicy(req.RefundPolicy),
		ImageURL:     req.Image,
		IsPrivate:    req.IsPrivate,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "seller.product.create", map[string]any{"product": p.ID, "tenant": p.Tenant.Slug})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// POST /api/seller/products/:id/archive
func (h *SellerHandler) ArchiveProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Seller.ArchiveProduct(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	applog.Audit(c, "seller.product.archive", map[string]any{"product": id})
	return c.SendStatus(fiber.StatusNoContent)
}
