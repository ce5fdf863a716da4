package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"marketplace/internal/apperr"
	"marketplace/internal/cache"
	"marketplace/internal/domain"
	applog "marketplace/internal/log"
	"marketplace/internal/repos"
	"marketplace/internal/telemetry"
	"marketplace/internal/validate"
)

type SortMode string

const (
	SortCurated   SortMode = "curated"
	SortTrending  SortMode = "trending"
	SortHotAndNew SortMode = "hot_and_new"
)

// ParseSort maps unknown or empty input to SortCurated.
func ParseSort(s string) SortMode {
	switch SortMode(s) {
	case SortTrending, SortHotAndNew:
		return SortMode(s)
	}
	return SortCurated
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

const categoryTreeKey = "categories:tree"

type ProductQuery struct {
	Category   string
	MinPrice   string
	MaxPrice   string
	Tags       []string
	Sort       SortMode
	Cursor     int // 1-indexed page
	Limit      int
	TenantSlug string
}

// ProductPage is one page of products with page-number pagination metadata.
type ProductPage struct {
	Docs        []domain.Product `json:"docs"`
	TotalDocs   int              `json:"totalDocs"`
	Limit       int              `json:"limit"`
	TotalPages  int              `json:"totalPages"`
	Page        int              `json:"page"`
	HasNextPage bool             `json:"hasNextPage"`
	NextPage    *int             `json:"nextPage"`
	HasPrevPage bool             `json:"hasPrevPage"`
	PrevPage    *int             `json:"prevPage"`
}

// window normalises a page number and size into limit/offset.
func window(cursor, limit int) (page, size, offset int) {
	page, size = cursor, limit
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultLimit
	}
	if size > MaxLimit {
		size = MaxLimit
	}
	return page, size, (page - 1) * size
}

func newPage(docs []domain.Product, total, page, limit int) ProductPage {
	if docs == nil {
		docs = []domain.Product{}
	}
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	p := ProductPage{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       limit,
		TotalPages:  pages,
		Page:        page,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
	if p.HasNextPage {
		n := page + 1
		p.NextPage = &n
	}
	if p.HasPrevPage {
		n := page - 1
		p.PrevPage = &n
	}
	return p
}

type CatalogService struct {
	Cats    *repos.CategoryRepo
	Prods   *repos.ProductRepo
	Tags    *repos.TagRepo
	Reviews *repos.ReviewRepo

	// Cache is optional; nil disables caching of the category tree.
	Cache    cache.Cache
	CacheTTL time.Duration
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, tags *repos.TagRepo, reviews *repos.ReviewRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Tags: tags, Reviews: reviews, CacheTTL: 5 * time.Minute}
}

// ResolveCategorySlugs returns slug plus the slugs of its direct children.
// found is false when no category carries the slug.
func (s *CatalogService) ResolveCategorySlugs(ctx context.Context, slug string) ([]string, bool, error) {
	c, err := s.Cats.BySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	children, err := s.Cats.Children(ctx, c.ID)
	if err != nil {
		return nil, false, err
	}
	slugs := make([]string, 0, len(children)+1)
	slugs = append(slugs, c.Slug)
	for _, ch := range children {
		slugs = append(slugs, ch.Slug)
	}
	return slugs, true, nil
}

// ListCategories returns the top-level categories sorted by name, each with its
// direct subcategories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.CategoryTree, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "catalog.ListCategories")
	defer span.End()

	if s.Cache != nil {
		var cached []domain.CategoryTree
		found, err := s.Cache.GetJSON(ctx, categoryTreeKey, &cached)
		if err != nil {
			applog.Logger().WithError(err).Warn("catalog.categories.cache.get.fail")
		} else if found {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	top, err := s.Cats.TopLevel(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	children, err := s.Cats.AllChildren(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	byParent := map[string][]domain.Category{}
	for _, ch := range children {
		byParent[ch.ParentID] = append(byParent[ch.ParentID], ch)
	}
	out := make([]domain.CategoryTree, 0, len(top))
	for _, c := range top {
		subs := byParent[c.ID]
		if subs == nil {
			subs = []domain.Category{}
		}
		out = append(out, domain.CategoryTree{Category: c, Subcategories: subs})
	}

	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, categoryTreeKey, out, s.CacheTTL); err != nil {
			applog.Logger().WithError(err).Warn("catalog.categories.cache.set.fail")
		}
	}
	return out, nil
}

// InvalidateCategories drops the cached category tree after a write.
func (s *CatalogService) InvalidateCategories(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, categoryTreeKey); err != nil {
		applog.Logger().WithError(err).Warn("catalog.categories.cache.del.fail")
	}
}

// ListProducts builds one product predicate from q and returns the requested page.
//
// An unknown category slug does not filter at all; it never yields an error.
// curated and trending list newest first, hot_and_new oldest first.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "catalog.ListProducts")
	defer span.End()

	minPrice, err := validate.Price(q.MinPrice)
	if err != nil {
		return ProductPage{}, err
	}
	maxPrice, err := validate.Price(q.MaxPrice)
	if err != nil {
		return ProductPage{}, err
	}

	page, limit, offset := window(q.Cursor, q.Limit)
	sort := ParseSort(string(q.Sort))
	f := repos.ProductFilter{
		MinPrice:        minPrice,
		MaxPrice:        maxPrice,
		Tags:            q.Tags,
		TenantSlug:      q.TenantSlug,
		ExcludeArchived: true,
		ExcludePrivate:  q.TenantSlug == "",
		OldestFirst:     sort == SortHotAndNew,
		Limit:           limit,
		Offset:          offset,
	}

	if q.Category != "" {
		slugs, found, err := s.ResolveCategorySlugs(ctx, q.Category)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "resolve category")
			return ProductPage{}, err
		}
		if found {
			f.CategorySlugs = slugs
		}
		span.SetAttributes(attribute.Bool("category.found", found))
	}
	span.SetAttributes(
		attribute.String("sort", string(sort)),
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	)

	docs, total, err := s.Prods.Find(ctx, f)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find products")
		return ProductPage{}, err
	}
	return newPage(docs, total, page, limit), nil
}

// GetProduct returns a listed product with its review summary.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && p.IsArchived) {
		return domain.Product{}, apperr.NotFound("product not found")
	}
	if err != nil {
		return domain.Product{}, err
	}
	avg, n, err := s.Reviews.Stats(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	p.ReviewRating, p.ReviewCount = avg, n
	return p, nil
}

type TagPage struct {
	Docs        []domain.Tag `json:"docs"`
	TotalDocs   int          `json:"totalDocs"`
	Limit       int          `json:"limit"`
	Page        int          `json:"page"`
	TotalPages  int          `json:"totalPages"`
	HasNextPage bool         `json:"hasNextPage"`
	NextPage    *int         `json:"nextPage"`
}

func (s *CatalogService) ListTags(ctx context.Context, cursor, limit int) (TagPage, error) {
	page, size, offset := window(cursor, limit)
	tags, total, err := s.Tags.List(ctx, size, offset)
	if err != nil {
		return TagPage{}, err
	}
	meta := newPage(nil, total, page, size)
	return TagPage{
		Docs:        tags,
		TotalDocs:   total,
		Limit:       size,
		Page:        page,
		TotalPages:  meta.TotalPages,
		HasNextPage: meta.HasNextPage,
		NextPage:    meta.NextPage,
	}, nil
}
