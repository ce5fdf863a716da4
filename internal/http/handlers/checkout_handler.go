package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/apperr"
	applog "marketplace/internal/log"
	"marketplace/internal/services"
	"marketplace/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

// POST /api/checkout/purchase
func (h *CheckoutHandler) Purchase(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := h.Checkout.Purchase(c.UserContext(), services.PurchaseInput{
		ProductIDs: req.ProductIDs,
		TenantSlug: req.TenantSlug,
	}, currentUser(c))
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			applog.Error(c, "checkout.purchase.fail", err, map[string]any{"tenant": req.TenantSlug})
		}
		return err
	}
	applog.Audit(c, "checkout.purchase", map[string]any{"tenant": req.TenantSlug, "products": len(req.ProductIDs)})
	return c.JSON(out)
}

// GET /api/checkout/products?ids=a,b
func (h *CheckoutHandler) Products(c *fiber.Ctx) error {
	ids := validate.List(c.Query("ids"))
	for _, id := range ids {
		if _, ok := validate.ID(id); !ok {
			return apperr.BadRequest("invalid product id")
		}
	}
	view, err := h.Checkout.GetProducts(c.UserContext(), ids)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// POST /api/checkout/verify
func (h *CheckoutHandler) Verify(c *fiber.Ctx) error {
	out, err := h.Checkout.Verify(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	applog.Audit(c, "checkout.verify", nil)
	return c.JSON(out)
}
