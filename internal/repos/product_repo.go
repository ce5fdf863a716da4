package repos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"marketplace/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// ProductFilter is the structured predicate, order and window of a product query.
// Zero values mean "no constraint".
type ProductFilter struct {
	IDs             []string
	CategorySlugs   []string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Tags            []string // OR across names
	TenantSlug      string
	ExcludeArchived bool
	ExcludePrivate  bool
	PurchasedBy     string // user id with an order for the product

	OldestFirst bool
	Limit       int // 0 = no limit
	Offset      int
}

type productRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Price         decimal.Decimal `db:"price"`
	ImageURL      string          `db:"image_url"`
	RefundPolicy  string          `db:"refund_policy"`
	IsArchived    bool            `db:"is_archived"`
	IsPrivate     bool            `db:"is_private"`
	CategoryID    string          `db:"category_id"`
	CategoryName  string          `db:"category_name"`
	CategorySlug  string          `db:"category_slug"`
	CategoryColor string          `db:"category_color"`
	TenantID      string          `db:"tenant_id"`
	TenantName    string          `db:"tenant_name"`
	TenantSlug    string          `db:"tenant_slug"`
	CreatedAt     string          `db:"created_at"`
	UpdatedAt     string          `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	p := domain.Product{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		ImageURL:     r.ImageURL,
		RefundPolicy: domain.RefundPolicy(r.RefundPolicy),
		IsArchived:   r.IsArchived,
		IsPrivate:    r.IsPrivate,
		Tenant:       domain.TenantRef{ID: r.TenantID, Name: r.TenantName, Slug: r.TenantSlug},
		Tags:         []string{},
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.CategoryID != "" {
		p.Category = &domain.CategoryRef{ID: r.CategoryID, Name: r.CategoryName, Slug: r.CategorySlug, Color: r.CategoryColor}
	}
	return p
}

const productSelect = `
  SELECT
    p.id, p.name, p.description, p.price, p.image_url, p.refund_policy, p.is_archived, p.is_private,
    COALESCE(p.category_id,'') AS category_id,
    COALESCE(c.name,'')  AS category_name,
    COALESCE(c.slug,'')  AS category_slug,
    COALESCE(c.color,'') AS category_color,
    t.id AS tenant_id, t.name AS tenant_name, t.slug AS tenant_slug,
    COALESCE(p.created_at,'') AS created_at, COALESCE(p.updated_at,'') AS updated_at`

const productFrom = `
  FROM products p
  JOIN tenants t ON t.id = p.tenant_id
  LEFT JOIN categories c ON c.id = p.category_id`

func (f ProductFilter) where() (string, []any) {
	clauses := []string{}
	args := []any{}
	if len(f.IDs) > 0 {
		clauses = append(clauses, `p.id IN (?)`)
		args = append(args, f.IDs)
	}
	if len(f.CategorySlugs) > 0 {
		clauses = append(clauses, `c.slug IN (?)`)
		args = append(args, f.CategorySlugs)
	}
	if f.MinPrice != nil {
		clauses = append(clauses, `p.price >= ?`)
		args = append(args, f.MinPrice.InexactFloat64())
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, `p.price <= ?`)
		args = append(args, f.MaxPrice.InexactFloat64())
	}
	if len(f.Tags) > 0 {
		clauses = append(clauses, `EXISTS (
		    SELECT 1 FROM product_tags pt JOIN tags tg ON tg.id = pt.tag_id
		    WHERE pt.product_id = p.id AND tg.name IN (?))`)
		args = append(args, f.Tags)
	}
	if f.TenantSlug != "" {
		clauses = append(clauses, `t.slug = ?`)
		args = append(args, f.TenantSlug)
	}
	if f.ExcludeArchived {
		clauses = append(clauses, `p.is_archived = 0`)
	}
	if f.ExcludePrivate {
		clauses = append(clauses, `p.is_private = 0`)
	}
	if f.PurchasedBy != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM orders o WHERE o.product_id = p.id AND o.user_id = ?)`)
		args = append(args, f.PurchasedBy)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(clauses, ` AND `), args
}

// Find runs the filter and returns the requested window plus the total match count.
func (r *ProductRepo) Find(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	where, args := f.where()

	countQ, countArgs, err := sqlx.In(`SELECT COUNT(*)`+productFrom+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQ, countArgs...); err != nil {
		return nil, 0, err
	}

	order := ` ORDER BY p.created_at DESC, p.id DESC`
	if f.OldestFirst {
		order = ` ORDER BY p.created_at ASC, p.id ASC`
	}
	q := productSelect + productFrom + where + order
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	q, args, err = sqlx.In(q, args...)
	if err != nil {
		return nil, 0, err
	}

	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	if err := r.attachTags(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *ProductRepo) attachTags(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	idx := make(map[string]int, len(products))
	for i, p := range products {
		ids = append(ids, p.ID)
		idx[p.ID] = i
	}
	q, args, err := sqlx.In(`
	  SELECT pt.product_id, tg.name
	  FROM product_tags pt JOIN tags tg ON tg.id = pt.tag_id
	  WHERE pt.product_id IN (?)
	  ORDER BY tg.name
	`, ids)
	if err != nil {
		return err
	}
	var rows []struct {
		ProductID string `db:"product_id"`
		Name      string `db:"name"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return err
	}
	for _, row := range rows {
		i := idx[row.ProductID]
		products[i].Tags = append(products[i].Tags, row.Name)
	}
	return nil
}

// Get returns sql.ErrNoRows when the product does not exist.
func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	docs, _, err := r.Find(ctx, ProductFilter{IDs: []string{id}})
	if err != nil {
		return domain.Product{}, err
	}
	if len(docs) == 0 {
		return domain.Product{}, sql.ErrNoRows
	}
	return docs[0], nil
}

func (r *ProductRepo) ByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	docs, _, err := r.Find(ctx, ProductFilter{IDs: ids})
	return docs, err
}

// ByIDsForTenant returns the products among ids that belong to the tenant with the given slug.
func (r *ProductRepo) ByIDsForTenant(ctx context.Context, ids []string, tenantSlug string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	docs, _, err := r.Find(ctx, ProductFilter{IDs: ids, TenantSlug: tenantSlug})
	return docs, err
}

// Prices maps product id to its current price.
func (r *ProductRepo) Prices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT id, price FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    string          `db:"id"`
		Price decimal.Decimal `db:"price"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Price
	}
	return out, nil
}

// NewProduct is the write model for Create.
type NewProduct struct {
	ID           string
	TenantID     string
	CategoryID   string
	Name         string
	Description  string
	Price        decimal.Decimal
	ImageURL     string
	RefundPolicy domain.RefundPolicy
	IsPrivate    bool
	TagIDs       []string
	CreatedAt    string // optional, defaults to now
}

func (r *ProductRepo) Create(ctx context.Context, np NewProduct) (domain.Product, error) {
	if np.ID == "" {
		np.ID = uuid.NewString()
	}
	if np.RefundPolicy == "" {
		np.RefundPolicy = domain.Refund30Day
	}
	var category any
	if np.CategoryID != "" {
		category = np.CategoryID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Product{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if np.CreatedAt != "" {
		_, err = tx.ExecContext(ctx, `
		  INSERT INTO products(id, tenant_id, category_id, name, description, price, image_url, refund_policy, is_private, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, np.ID, np.TenantID, category, np.Name, np.Description, np.Price.String(), np.ImageURL, string(np.RefundPolicy), np.IsPrivate, np.CreatedAt)
	} else {
		_, err = tx.ExecContext(ctx, `
		  INSERT INTO products(id, tenant_id, category_id, name, description, price, image_url, refund_policy, is_private)
		  VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, np.ID, np.TenantID, category, np.Name, np.Description, np.Price.String(), np.ImageURL, string(np.RefundPolicy), np.IsPrivate)
	}
	if err != nil {
		return domain.Product{}, err
	}
	for _, tagID := range np.TagIDs {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO product_tags(product_id, tag_id) VALUES(?, ?)
		  ON CONFLICT(product_id, tag_id) DO NOTHING
		`, np.ID, tagID); err != nil {
			return domain.Product{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Product{}, err
	}
	return r.Get(ctx, np.ID)
}

// Archive hides a product owned by tenantID. It reports false when no such product exists.
func (r *ProductRepo) Archive(ctx context.Context, id, tenantID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	  UPDATE products SET is_archived = 1, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND tenant_id = ?
	`, id, tenantID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetPrice updates a product price.
func (r *ProductRepo) SetPrice(ctx context.Context, id string, price decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET price = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, price.String(), id)
	return err
}
