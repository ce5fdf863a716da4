package handlers

import (
	"github.com/gofiber/fiber/v2"

	"marketplace/internal/domain"
	applog "marketplace/internal/log"
	"marketplace/internal/services"
)

type AdminHandler struct {
	Admin   *services.AdminService
	Tenants *services.TenantService
}

// POST /api/admin/categories
func (h *AdminHandler) CreateCategory(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.Admin.CreateCategory(c.UserContext(), services.CategoryInput{
		Name:       req.Name,
		Slug:       req.Slug,
		Color:      req.Color,
		ParentSlug: req.Parent,
	})
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.category.create", map[string]any{"slug": cat.Slug, "parent": req.Parent})
	return c.Status(fiber.StatusCreated).JSON(cat)
}

// POST /api/admin/tags
func (h *AdminHandler) CreateTag(c *fiber.Ctx) error {
	var req createTagRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tag, err := h.Admin.CreateTag(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.tag.create", map[string]any{"tag": tag.Name})
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// GET /api/admin/tenants
func (h *AdminHandler) ListTenants(c *fiber.Ctx) error {
	list, err := h.Tenants.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(docsResponse[domain.Tenant]{Docs: list})
}
