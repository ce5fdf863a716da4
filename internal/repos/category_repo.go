package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categoryCols = `id, name, slug, color, COALESCE(parent_id,'') AS parent_id, COALESCE(created_at,'') AS created_at`

// BySlug returns sql.ErrNoRows when no category carries the slug.
func (r *CategoryRepo) BySlug(ctx context.Context, slug string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT `+categoryCols+` FROM categories WHERE slug = ?`, slug)
	return c, err
}

func (r *CategoryRepo) ByID(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT `+categoryCols+` FROM categories WHERE id = ?`, id)
	return c, err
}

// Children lists the direct subcategories of parentID.
func (r *CategoryRepo) Children(ctx context.Context, parentID string) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+categoryCols+`
	  FROM categories
	  WHERE parent_id = ?
	  ORDER BY name
	`, parentID)
	return out, err
}

func (r *CategoryRepo) TopLevel(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+categoryCols+`
	  FROM categories
	  WHERE parent_id IS NULL
	  ORDER BY name
	`)
	return out, err
}

// AllChildren lists every category that has a parent, ordered by name.
func (r *CategoryRepo) AllChildren(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT `+categoryCols+`
	  FROM categories
	  WHERE parent_id IS NOT NULL
	  ORDER BY name
	`)
	return out, err
}

func (r *CategoryRepo) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var parent any
	if c.ParentID != "" {
		parent = c.ParentID
	}
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO categories(id, name, slug, color, parent_id)
	  VALUES(?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Slug, c.Color, parent)
	if err != nil {
		return domain.Category{}, err
	}
	return r.ByID(ctx, c.ID)
}
