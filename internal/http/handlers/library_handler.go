package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/apperr"
	applog "marketplace/internal/log"
	"marketplace/internal/services"
	"marketplace/internal/validate"
)

type LibraryHandler struct {
	Library *services.LibraryService
	Reviews *services.ReviewService
}

// GET /api/library
func (h *LibraryHandler) List(c *fiber.Ctx) error {
	page, err := h.Library.List(c.UserContext(), currentUser(c),
		validate.Int(c.Query("cursor"), 1),
		validate.Int(c.Query("limit"), services.DefaultLimit))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GET /api/library/:productId
func (h *LibraryHandler) Get(c *fiber.Ctx) error {
	p, err := h.Library.Get(c.UserContext(), currentUser(c), c.Params("productId"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// GET /api/reviews?productId=
func (h *LibraryHandler) MyReview(c *fiber.Ctx) error {
	pid, ok := validate.ID(c.Query("productId"))
	if !ok {
		return apperr.BadRequest("invalid productId")
	}
	rv, err := h.Reviews.GetMine(c.UserContext(), currentUser(c), pid)
	if err != nil {
		return err
	}
	if rv == nil {
		return apperr.NotFound("review not found")
	}
	return c.JSON(rv)
}

// POST /api/reviews
func (h *LibraryHandler) CreateReview(c *fiber.Ctx) error {
	var req createReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	rv, err := h.Reviews.Create(c.UserContext(), currentUser(c), services.ReviewInput{
		ProductID:   req.ProductID,
		Rating:      req.Rating,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "review.create", map[string]any{"product": req.ProductID, "rating": req.Rating})
	return c.Status(fiber.StatusCreated).JSON(rv)
}

// PATCH /api/reviews/:id
func (h *LibraryHandler) UpdateReview(c *fiber.Ctx) error {
	var req updateReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id := c.Params("id")
	rv, err := h.Reviews.Update(c.UserContext(), currentUser(c), id, req.Rating, req.Description)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeUnauthorized {
			applog.Security(c, "review.update.denied", map[string]any{"review": id})
		}
		return err
	}
	applog.Audit(c, "review.update", map[string]any{"review": id, "rating": req.Rating})
	return c.JSON(rv)
}
