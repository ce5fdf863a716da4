package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/domain"
	"marketplace/internal/services"
	"marketplace/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Tenants *services.TenantService
}

type docsResponse[T any] struct {
	Docs []T `json:"docs"`
}

// GET /api/products
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	page, err := h.Catalog.ListProducts(c.UserContext(), services.ProductQuery{
		Category:   c.Query("category"),
		MinPrice:   c.Query("minPrice"),
		MaxPrice:   c.Query("maxPrice"),
		Tags:       validate.List(c.Query("tags")),
		Sort:       services.ParseSort(c.Query("sort")),
		Cursor:     validate.Int(c.Query("cursor"), 1),
		Limit:      validate.Int(c.Query("limit"), services.DefaultLimit),
		TenantSlug: c.Query("tenantSlug"),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GET /api/products/:id
func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

// GET /api/categories
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	tree, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(docsResponse[domain.CategoryTree]{Docs: tree})
}

// GET /api/tags
func (h *CatalogHandler) Tags(c *fiber.Ctx) error {
	page, err := h.Catalog.ListTags(c.UserContext(),
		validate.Int(c.Query("cursor"), 1),
		validate.Int(c.Query("limit"), services.DefaultLimit))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GET /api/tenants/:slug
func (h *CatalogHandler) Tenant(c *fiber.Ctx) error {
	t, err := h.Tenants.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(t)
}
