package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"marketplace/internal/domain"
)

func TestProductsListing(t *testing.T) {
	ta := newTestApp(t, nil)

	resp, body := ta.do(t, call{method: "GET", path: "/api/products?category=writing-publishing&sort=curated"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
	}
	page := decode[pageBody](t, body)
	// parent slug covers its subcategories
	if page.TotalDocs != 3 {
		t.Fatalf("expected 3 writing products, got %d", page.TotalDocs)
	}
	for _, p := range page.Docs {
		if p.Tenant.Slug != "acme" {
			t.Fatalf("unexpected tenant %s", p.Tenant.Slug)
		}
	}

	_, body = ta.do(t, call{method: "GET", path: "/api/products?minPrice=15&maxPrice=45&tags=design-assets,guide"})
	page = decode[pageBody](t, body)
	names := map[string]bool{}
	for _, p := range page.Docs {
		names[p.Name] = true
	}
	if len(names) != 4 || !names["Dashboard UI Kit"] || !names["Pixel Art Sprite Pack"] ||
		!names["12-Week Strength Plan"] || !names["Self-Publishing Playbook"] {
		t.Fatalf("unexpected filter result: %v", names)
	}

	_, body = ta.do(t, call{method: "GET", path: "/api/products?limit=2"})
	page = decode[pageBody](t, body)
	if len(page.Docs) != 2 || !page.HasNextPage || page.NextPage == nil || *page.NextPage != 2 {
		t.Fatalf("unexpected pagination: %+v", page)
	}

	_, body = ta.do(t, call{method: "GET", path: "/api/products?tenantSlug=pixelforge"})
	if got := decode[pageBody](t, body).TotalDocs; got != 3 {
		t.Fatalf("expected 3 pixelforge products, got %d", got)
	}
}

func TestProductDetailAndMissing(t *testing.T) {
	ta := newTestApp(t, nil)
	id := ta.productID(t, "The Lighthouse Keeper")

	resp, body := ta.do(t, call{method: "GET", path: "/api/products/" + id})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	p := decode[domain.Product](t, body)
	if p.Price.String() != "12.5" || p.Category == nil || p.Category.Slug != "fiction" {
		t.Fatalf("unexpected product %+v", p)
	}

	resp, body = ta.do(t, call{method: "GET", path: "/api/products/nope"})
	expectError(t, resp, body, http.StatusNotFound, "NOT_FOUND")
}

func TestCategoriesTagsTenants(t *testing.T) {
	ta := newTestApp(t, nil)

	resp, body := ta.do(t, call{method: "GET", path: "/api/categories"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cats := decode[struct {
		Docs []domain.CategoryTree `json:"docs"`
	}](t, body)
	if len(cats.Docs) != 12 {
		t.Fatalf("expected 12 top-level categories, got %d", len(cats.Docs))
	}

	_, body = ta.do(t, call{method: "GET", path: "/api/tags?limit=3"})
	tags := decode[struct {
		Docs        []domain.Tag `json:"docs"`
		HasNextPage bool         `json:"hasNextPage"`
	}](t, body)
	if len(tags.Docs) != 3 || !tags.HasNextPage {
		t.Fatalf("unexpected tags page %+v", tags)
	}

	resp, body = ta.do(t, call{method: "GET", path: "/api/tenants/acme"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if tn := decode[domain.Tenant](t, body); tn.Name != "Acme Press" || !tn.StripeDetailsSubmitted {
		t.Fatalf("unexpected tenant %+v", tn)
	}
	if strings.Contains(string(body), "acct_demo") {
		t.Fatalf("stripe account id leaked: %s", string(body))
	}

	resp, body = ta.do(t, call{method: "GET", path: "/api/tenants/ghost"})
	expectError(t, resp, body, http.StatusNotFound, "NOT_FOUND")
}

func TestCheckoutProductsView(t *testing.T) {
	ta := newTestApp(t, nil)
	a := ta.productID(t, "The Lighthouse Keeper")
	b := ta.productID(t, "90-Day Journal Prompts")

	resp, body := ta.do(t, call{method: "GET", path: "/api/checkout/products?ids=" + a + "," + b})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
	}
	view := decode[struct {
		TotalDocs  int     `json:"totalDocs"`
		TotalPrice float64 `json:"totalPrice"`
	}](t, body)
	if view.TotalDocs != 2 || view.TotalPrice != 20.49 {
		t.Fatalf("unexpected cart view %+v", view)
	}

	resp, body = ta.do(t, call{method: "GET", path: "/api/checkout/products?ids=" + a + ",missing"})
	expectError(t, resp, body, http.StatusNotFound, "NOT_FOUND")
}
