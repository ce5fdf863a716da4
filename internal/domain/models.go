package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, matching the RPC contract.
	decimal.MarshalJSONWithoutQuotes = true
}

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	Color     string `db:"color" json:"color,omitempty"`
	ParentID  string `db:"parent_id" json:"parent,omitempty"` // "" for top-level
	CreatedAt string `db:"created_at" json:"createdAt"`
}

// CategoryTree is a top-level category with its direct children. Children never
// carry their own subcategories: the tree is two levels deep.
type CategoryTree struct {
	Category
	Subcategories []Category `json:"subcategories"`
}

type CategoryRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color,omitempty"`
}

type TenantRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type RefundPolicy string

const (
	Refund30Day RefundPolicy = "30-day"
	Refund14Day RefundPolicy = "14-day"
	Refund7Day  RefundPolicy = "7-day"
	Refund3Day  RefundPolicy = "3-day"
	Refund1Day  RefundPolicy = "1-day"
	NoRefund    RefundPolicy = "no-refund"
)

func (p RefundPolicy) Valid() bool {
	switch p {
	case Refund30Day, Refund14Day, Refund7Day, Refund3Day, Refund1Day, NoRefund:
		return true
	}
	return false
}

type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"` // USD major units
	ImageURL     string          `json:"image,omitempty"`
	RefundPolicy RefundPolicy    `json:"refundPolicy"`
	IsArchived   bool            `json:"isArchived"`
	IsPrivate    bool            `json:"isPrivate"`
	Category     *CategoryRef    `json:"category,omitempty"`
	Tenant       TenantRef       `json:"tenant"`
	Tags         []string        `json:"tags"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`

	// Filled on detail reads only.
	ReviewRating float64 `json:"reviewRating,omitempty"`
	ReviewCount  int     `json:"reviewCount,omitempty"`
}

type Tag struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Tenant struct {
	ID                     string `db:"id" json:"id"`
	Name                   string `db:"name" json:"name"`
	Slug                   string `db:"slug" json:"slug"`
	ImageURL               string `db:"image_url" json:"image,omitempty"`
	StripeAccountID        string `db:"stripe_account_id" json:"-"`
	StripeDetailsSubmitted bool   `db:"stripe_details_submitted" json:"stripeDetailsSubmitted"`
	CreatedAt              string `db:"created_at" json:"createdAt"`
}

// CanSell reports whether the tenant finished payment-provider onboarding.
func (t Tenant) CanSell() bool { return t.StripeDetailsSubmitted }

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID       string `db:"id" json:"id"`
	Email    string `db:"email" json:"email"`
	Username string `db:"username" json:"username"`
	Hash     string `db:"password_hash" json:"-"`
	Role     string `db:"role" json:"role"`
	TenantID string `db:"tenant_id" json:"tenant,omitempty"`
}

type Order struct {
	ID                      string `db:"id" json:"id"`
	UserID                  string `db:"user_id" json:"user"`
	ProductID               string `db:"product_id" json:"product"`
	Name                    string `db:"name" json:"name"`
	StripeCheckoutSessionID string `db:"stripe_checkout_session_id" json:"stripeCheckoutSessionId"`
	StripeAccountID         string `db:"stripe_account_id" json:"-"`
	CreatedAt               string `db:"created_at" json:"createdAt"`
}

type Review struct {
	ID          string `db:"id" json:"id"`
	UserID      string `db:"user_id" json:"user"`
	ProductID   string `db:"product_id" json:"product"`
	Rating      int    `db:"rating" json:"rating"`
	Description string `db:"description" json:"description"`
	CreatedAt   string `db:"created_at" json:"createdAt"`
	UpdatedAt   string `db:"updated_at" json:"updatedAt,omitempty"`
}
