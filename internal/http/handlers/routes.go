package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"marketplace/internal/apperr"
	"marketplace/internal/config"
	applog "marketplace/internal/log"
)

const (
	bodyLimit     = 1 << 20 // 1 MiB
	csrfHeader    = "X-Csrf-Token"
	csrfCookie    = "csrf_"
	webhookPrefix = "/api/webhooks/"
)

func tooMany(action, msg string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		applog.Security(c, action, nil)
		return c.Status(fiber.StatusTooManyRequests).JSON(errorBody{Error: errorDetail{
			Code:    apperr.CodeBadRequest,
			Message: msg,
		}})
	}
}

// NewApp builds the HTTP surface: middleware stack, JSON routes and the
// central error handler.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "marketplace",
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler,
	})

	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, " + csrfHeader,
		AllowCredentials: cfg.CORSOrigins != "*",
	}))
	app.Use(LoadUser(d.Auth))
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return strings.HasPrefix(c.Path(), webhookPrefix) || c.Path() == "/healthz"
			},
			LimitReached: tooMany("rate.global.hit", "rate limit exceeded, retry soon"),
		}))
	}
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "header:" + csrfHeader,
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		CookieSecure:   cfg.CookieSecure,
		Expiration:     time.Hour,
		Next: func(c *fiber.Ctx) bool {
			// Provider callbacks are authenticated by signature instead.
			return strings.HasPrefix(c.Path(), webhookPrefix)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"header": c.Get(csrfHeader) != ""})
			return c.Status(fiber.StatusForbidden).JSON(errorBody{Error: errorDetail{
				Code:    apperr.CodeUnauthorized,
				Message: "Security check failed. Please refresh and try again.",
			}})
		},
	}))

	loginLimiter := limiter.New(limiter.Config{
		Max:        max(cfg.LoginRateLimit, 1),
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: tooMany("rate.login.hit", "Too many attempts. Please try again later."),
	})
	purchaseLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|purchase"
		},
		LimitReached: tooMany("rate.purchase.hit", "rate limit exceeded, retry soon"),
	})

	api := app.Group("/api")

	api.Get("/products", d.CatalogHandler.Products)
	api.Get("/products/:id", d.CatalogHandler.Product)
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/tags", d.CatalogHandler.Tags)
	api.Get("/tenants/:slug", d.CatalogHandler.Tenant)

	api.Post("/checkout/purchase", purchaseLimiter, RequireUser(), d.CheckoutHandler.Purchase)
	api.Get("/checkout/products", d.CheckoutHandler.Products)
	api.Post("/checkout/verify", RequireUser(), d.CheckoutHandler.Verify)

	api.Get("/library", RequireUser(), d.LibraryHandler.List)
	api.Get("/library/:productId", RequireUser(), d.LibraryHandler.Get)
	api.Get("/reviews", RequireUser(), d.LibraryHandler.MyReview)
	api.Post("/reviews", RequireUser(), d.LibraryHandler.CreateReview)
	api.Patch("/reviews/:id", RequireUser(), d.LibraryHandler.UpdateReview)

	api.Get("/auth/session", d.AuthHandler.Session)
	api.Post("/auth/register", loginLimiter, d.AuthHandler.Register)
	api.Post("/auth/login", loginLimiter, d.AuthHandler.Login)
	api.Post("/auth/logout", d.AuthHandler.Logout)

	seller := api.Group("/seller", RequireUser())
	seller.Post("/products", d.SellerHandler.CreateProduct)
	seller.Post("/products/:id/archive", d.SellerHandler.ArchiveProduct)

	admin := api.Group("/admin", RequireAdmin())
	admin.Post("/categories", d.AdminHandler.CreateCategory)
	admin.Post("/tags", d.AdminHandler.CreateTag)
	admin.Get("/tenants", d.AdminHandler.ListTenants)

	api.Post("/webhooks/stripe", d.WebhookHandler.Stripe)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return apperr.NotFound("route not found")
	})
	return app
}
