package repos

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"marketplace/internal/domain"
	applog "marketplace/internal/log"
)

//go:embed seed/demo.yaml
var demoSeed []byte

type SeedCategory struct {
	Name          string         `yaml:"name"`
	Slug          string         `yaml:"slug"`
	Color         string         `yaml:"color"`
	Subcategories []SeedCategory `yaml:"subcategories"`
}

type SeedTenant struct {
	Name                   string `yaml:"name"`
	Slug                   string `yaml:"slug"`
	StripeAccountID        string `yaml:"stripeAccountId"`
	StripeDetailsSubmitted bool   `yaml:"stripeDetailsSubmitted"`
}

type SeedProduct struct {
	Tenant       string   `yaml:"tenant"`
	Category     string   `yaml:"category"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Price        string   `yaml:"price"`
	RefundPolicy string   `yaml:"refundPolicy"`
	Private      bool     `yaml:"private"`
	Tags         []string `yaml:"tags"`
}

type SeedUser struct {
	Email    string `yaml:"email"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
	Tenant   string `yaml:"tenant"`
}

type SeedData struct {
	Categories []SeedCategory `yaml:"categories"`
	Tenants    []SeedTenant   `yaml:"tenants"`
	Products   []SeedProduct  `yaml:"products"`
	Users      []SeedUser     `yaml:"users"`
}

func LoadSeed(r io.Reader) (SeedData, error) {
	var d SeedData
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return SeedData{}, fmt.Errorf("decode seed: %w", err)
	}
	return d, nil
}

// SeedDemo loads the bundled demo catalog. Safe to run on every start: it does
// nothing once categories exist.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	d, err := LoadSeed(bytes.NewReader(demoSeed))
	if err != nil {
		return err
	}
	return Seed(ctx, db, d)
}

func Seed(ctx context.Context, db *sqlx.DB, d SeedData) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	applog.Logger().WithField("categories", len(d.Categories)).Info("seed.demo")

	cats := NewCategoryRepo(db)
	categoryIDs := map[string]string{}
	for _, sc := range d.Categories {
		parent, err := cats.Create(ctx, domain.Category{Name: sc.Name, Slug: sc.Slug, Color: sc.Color})
		if err != nil {
			return fmt.Errorf("seed category %s: %w", sc.Slug, err)
		}
		categoryIDs[parent.Slug] = parent.ID
		for _, sub := range sc.Subcategories {
			child, err := cats.Create(ctx, domain.Category{Name: sub.Name, Slug: sub.Slug, Color: sub.Color, ParentID: parent.ID})
			if err != nil {
				return fmt.Errorf("seed subcategory %s: %w", sub.Slug, err)
			}
			categoryIDs[child.Slug] = child.ID
		}
	}

	tenants := NewTenantRepo(db)
	tenantIDs := map[string]string{}
	for _, st := range d.Tenants {
		t, err := tenants.Create(ctx, domain.Tenant{
			Name:                   st.Name,
			Slug:                   st.Slug,
			StripeAccountID:        st.StripeAccountID,
			StripeDetailsSubmitted: st.StripeDetailsSubmitted,
		})
		if err != nil {
			return fmt.Errorf("seed tenant %s: %w", st.Slug, err)
		}
		tenantIDs[t.Slug] = t.ID
	}

	tags := NewTagRepo(db)
	products := NewProductRepo(db)
	for _, sp := range d.Products {
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return fmt.Errorf("seed product %q price: %w", sp.Name, err)
		}
		tenantID, ok := tenantIDs[sp.Tenant]
		if !ok {
			return fmt.Errorf("seed product %q: unknown tenant %q", sp.Name, sp.Tenant)
		}
		var tagIDs []string
		for _, name := range sp.Tags {
			tg, err := tags.Ensure(ctx, name)
			if err != nil {
				return err
			}
			tagIDs = append(tagIDs, tg.ID)
		}
		if _, err := products.Create(ctx, NewProduct{
			TenantID:     tenantID,
			CategoryID:   categoryIDs[sp.Category],
			Name:         sp.Name,
			Description:  sp.Description,
			Price:        price,
			RefundPolicy: domain.RefundPolicy(sp.RefundPolicy),
			IsPrivate:    sp.Private,
			TagIDs:       tagIDs,
		}); err != nil {
			return fmt.Errorf("seed product %q: %w", sp.Name, err)
		}
	}

	users := NewUserRepo(db)
	for _, su := range d.Users {
		h, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if _, err := users.Create(ctx, domain.User{
			Email:    su.Email,
			Username: su.Username,
			Hash:     string(h),
			Role:     su.Role,
			TenantID: tenantIDs[su.Tenant],
		}); err != nil {
			return fmt.Errorf("seed user %s: %w", su.Email, err)
		}
	}
	return nil
}
