package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"marketplace/internal/apperr"
	"marketplace/internal/cache"
	"marketplace/internal/domain"
	"marketplace/internal/repos"
	"marketplace/internal/services"
)

func TestListProducts_CategoryIncludesDirectChildren(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	books := w.category(t, "books", "")
	fiction := w.category(t, "fiction", books.ID)
	music := w.category(t, "music", "")

	a := w.product(t, repos.NewProduct{Name: "atlas", Price: usd("10"), CategoryID: books.ID})
	b := w.product(t, repos.NewProduct{Name: "novel", Price: usd("12"), CategoryID: fiction.ID})
	w.product(t, repos.NewProduct{Name: "album", Price: usd("8"), CategoryID: music.ID})

	page, err := w.catalog.ListProducts(ctx, services.ProductQuery{Category: "books"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids(page.Docs))

	page, err = w.catalog.ListProducts(ctx, services.ProductQuery{Category: "fiction"})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(page.Docs))
}

func TestResolveCategorySlugs(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	books := w.category(t, "books", "")
	w.category(t, "fiction", books.ID)
	w.category(t, "poetry", books.ID)

	slugs, found, err := w.catalog.ResolveCategorySlugs(ctx, "books")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"books", "fiction", "poetry"}, slugs)

	slugs, found, err = w.catalog.ResolveCategorySlugs(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, slugs)
}

// An unknown slug drops the category filter instead of returning nothing.
func TestListProducts_UnknownCategoryIsUnfiltered(t *testing.T) {
	w := newWorld(t)
	books := w.category(t, "books", "")
	w.product(t, repos.NewProduct{Price: usd("1"), CategoryID: books.ID})
	w.product(t, repos.NewProduct{Price: usd("2")})

	page, err := w.catalog.ListProducts(context.Background(), services.ProductQuery{Category: "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalDocs)
}

func TestListProducts_PriceBounds(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p5 := w.product(t, repos.NewProduct{Price: usd("5")})
	p20 := w.product(t, repos.NewProduct{Price: usd("20")})
	p35 := w.product(t, repos.NewProduct{Price: usd("35")})

	cases := []struct {
		name     string
		min, max string
		want     []string
	}{
		{"both", "10", "30", []string{p20.ID}},
		{"inclusive", "5", "20", []string{p5.ID, p20.ID}},
		{"min only", "20", "", []string{p20.ID, p35.ID}},
		{"max only", "", "20", []string{p5.ID, p20.ID}},
		{"none", "", "", []string{p5.ID, p20.ID, p35.ID}},
		{"min above max", "30", "10", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := w.catalog.ListProducts(ctx, services.ProductQuery{MinPrice: tc.min, MaxPrice: tc.max})
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, ids(page.Docs))
		})
	}

	_, err := w.catalog.ListProducts(ctx, services.ProductQuery{MinPrice: "cheap"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestListProducts_TagsMatchAny(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	a := w.product(t, repos.NewProduct{Price: usd("1")}, "ebook")
	b := w.product(t, repos.NewProduct{Price: usd("1")}, "course", "bestseller")
	w.product(t, repos.NewProduct{Price: usd("1")}, "template")
	w.product(t, repos.NewProduct{Price: usd("1")})

	page, err := w.catalog.ListProducts(ctx, services.ProductQuery{Tags: []string{"ebook", "course"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids(page.Docs))

	page, err = w.catalog.ListProducts(ctx, services.ProductQuery{Tags: []string{}})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalDocs)
}

func TestListProducts_SortModes(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	oldest := w.product(t, repos.NewProduct{Name: "oldest", Price: usd("1"), CreatedAt: "2024-01-01T00:00:00.000"})
	middle := w.product(t, repos.NewProduct{Name: "middle", Price: usd("1"), CreatedAt: "2024-02-01T00:00:00.000"})
	newest := w.product(t, repos.NewProduct{Name: "newest", Price: usd("1"), CreatedAt: "2024-03-01T00:00:00.000"})

	newestFirst := []string{newest.ID, middle.ID, oldest.ID}
	for _, sort := range []services.SortMode{services.SortCurated, services.SortTrending, "", "bogus"} {
		page, err := w.catalog.ListProducts(ctx, services.ProductQuery{Sort: sort})
		require.NoError(t, err)
		assert.Equal(t, newestFirst, ids(page.Docs), "sort=%q", sort)
	}

	page, err := w.catalog.ListProducts(ctx, services.ProductQuery{Sort: services.SortHotAndNew})
	require.NoError(t, err)
	assert.Equal(t, []string{oldest.ID, middle.ID, newest.ID}, ids(page.Docs))
}

func TestListProducts_Pagination(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		w.product(t, repos.NewProduct{Price: usd("1"), CreatedAt: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC).Format("2006-01-02T15:04:05.000")})
	}

	first, err := w.catalog.ListProducts(ctx, services.ProductQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, first.Docs, 2)
	assert.Equal(t, 5, first.TotalDocs)
	assert.Equal(t, 3, first.TotalPages)
	assert.Equal(t, 1, first.Page)
	assert.True(t, first.HasNextPage)
	require.NotNil(t, first.NextPage)
	assert.Equal(t, 2, *first.NextPage)
	assert.False(t, first.HasPrevPage)
	assert.Nil(t, first.PrevPage)

	last, err := w.catalog.ListProducts(ctx, services.ProductQuery{Limit: 2, Cursor: 3})
	require.NoError(t, err)
	assert.Len(t, last.Docs, 1)
	assert.False(t, last.HasNextPage)
	assert.Nil(t, last.NextPage)
	require.NotNil(t, last.PrevPage)
	assert.Equal(t, 2, *last.PrevPage)

	second, err := w.catalog.ListProducts(ctx, services.ProductQuery{Limit: 2, Cursor: 2})
	require.NoError(t, err)
	seen := append(append(ids(first.Docs), ids(second.Docs)...), ids(last.Docs)...)
	assert.Len(t, seen, 5)
	assert.ElementsMatch(t, seen, uniq(seen))

	beyond, err := w.catalog.ListProducts(ctx, services.ProductQuery{Limit: 2, Cursor: 9})
	require.NoError(t, err)
	assert.Empty(t, beyond.Docs)

	def, err := w.catalog.ListProducts(ctx, services.ProductQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, services.MaxLimit, def.Limit)
	def, err = w.catalog.ListProducts(ctx, services.ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, services.DefaultLimit, def.Limit)
}

func TestListProducts_ArchivedAndPrivate(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	public := w.product(t, repos.NewProduct{Price: usd("1")})
	private := w.product(t, repos.NewProduct{Price: usd("1"), IsPrivate: true})
	archived := w.product(t, repos.NewProduct{Price: usd("1")})
	_, err := w.products.Archive(ctx, archived.ID, w.acme.ID)
	require.NoError(t, err)

	page, err := w.catalog.ListProducts(ctx, services.ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{public.ID}, ids(page.Docs))

	page, err = w.catalog.ListProducts(ctx, services.ProductQuery{TenantSlug: "acme"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{public.ID, private.ID}, ids(page.Docs))

	_, err = w.catalog.GetProduct(ctx, archived.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListProducts_RecordsSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	w := newWorld(t)
	_, err := w.catalog.ListProducts(context.Background(), services.ProductQuery{Sort: services.SortHotAndNew})
	require.NoError(t, err)

	var names []string
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "catalog.ListProducts")
}

func TestListCategories_TreeAndCache(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	w.catalog.Cache = cache.NewRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	w.category(t, "music", "")
	books := w.category(t, "books", "")
	fiction := w.category(t, "fiction", books.ID)
	w.category(t, "deep", fiction.ID)

	tree, err := w.catalog.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "books", tree[0].Slug)
	assert.Equal(t, "music", tree[1].Slug)
	require.Len(t, tree[0].Subcategories, 1)
	assert.Equal(t, "fiction", tree[0].Subcategories[0].Slug)
	assert.Empty(t, tree[1].Subcategories)
	assert.True(t, mr.Exists("marketplace:categories:tree"))

	// served from cache until invalidated
	w.category(t, "art", "")
	cached, err := w.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	w.catalog.InvalidateCategories(ctx)
	fresh, err := w.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestGetProduct_ReviewSummary(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	p := w.product(t, repos.NewProduct{Price: usd("3")})
	reviews := repos.NewReviewRepo(w.db)
	_, err := reviews.Create(ctx, domain.Review{UserID: w.buyer.ID, ProductID: p.ID, Rating: 4, Description: "good"})
	require.NoError(t, err)
	_, err = reviews.Create(ctx, domain.Review{UserID: w.seller.ID, ProductID: p.ID, Rating: 2, Description: "meh"})
	require.NoError(t, err)

	got, err := w.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got.ReviewRating, 0.001)
	assert.Equal(t, 2, got.ReviewCount)

	_, err = w.catalog.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListTags(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	tags := repos.NewTagRepo(w.db)
	for _, n := range []string{"c", "a", "b"} {
		_, err := tags.Ensure(ctx, n)
		require.NoError(t, err)
	}
	page, err := w.catalog.ListTags(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, "a", page.Docs[0].Name)
	assert.Equal(t, 3, page.TotalDocs)
	assert.True(t, page.HasNextPage)
}

func uniq(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
