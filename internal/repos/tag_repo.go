package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"marketplace/internal/domain"
)

type TagRepo struct{ db *sqlx.DB }

func NewTagRepo(db *sqlx.DB) *TagRepo { return &TagRepo{db: db} }

func (r *TagRepo) List(ctx context.Context, limit, offset int) ([]domain.Tag, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tags`); err != nil {
		return nil, 0, err
	}
	out := []domain.Tag{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, name FROM tags
	  ORDER BY name
	  LIMIT ? OFFSET ?
	`, limit, offset)
	return out, total, err
}

func (r *TagRepo) ByName(ctx context.Context, name string) (domain.Tag, error) {
	var t domain.Tag
	err := r.db.GetContext(ctx, &t, `SELECT id, name FROM tags WHERE name = ?`, name)
	return t, err
}

// Ensure returns the tag with the given name, creating it when missing.
func (r *TagRepo) Ensure(ctx context.Context, name string) (domain.Tag, error) {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO tags(id, name) VALUES(?, ?)
	  ON CONFLICT(name) DO NOTHING
	`, uuid.NewString(), name)
	if err != nil {
		return domain.Tag{}, err
	}
	return r.ByName(ctx, name)
}
