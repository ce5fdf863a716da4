package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

const signatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	Webhooks *services.WebhookService
}

// POST /api/webhooks/stripe
func (h *WebhookHandler) Stripe(c *fiber.Ctx) error {
	res, err := h.Webhooks.Handle(c.UserContext(), c.Body(), c.Get(signatureHeader))
	if err != nil {
		applog.Security(c, "webhook.reject", map[string]any{"type": res.Event.Type})
		return err
	}
	applog.Audit(c, "webhook.receive", map[string]any{
		"type":    res.Event.Type,
		"event":   res.Event.ID,
		"handled": res.Handled,
		"orders":  res.OrdersCreated,
	})
	return c.JSON(fiber.Map{"received": true})
}
