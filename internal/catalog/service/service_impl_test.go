package service

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"github.com/smallbiznis/catalog/internal/cache"
	"github.com/smallbiznis/catalog/internal/catalog/domain"
	"github.com/smallbiznis/catalog/internal/catalog/filter"
	"github.com/smallbiznis/catalog/internal/catalog/repository"
	"github.com/smallbiznis/catalog/internal/clock"
	"github.com/smallbiznis/catalog/internal/migration"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	productrepository "github.com/smallbiznis/catalog/internal/product/repository"
	productservice "github.com/smallbiznis/catalog/internal/product/service"
	propertydomain "github.com/smallbiznis/catalog/internal/property/domain"
	propertyrepository "github.com/smallbiznis/catalog/internal/property/repository"
	propertyservice "github.com/smallbiznis/catalog/internal/property/service"
	"github.com/smallbiznis/catalog/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	catalog    *Service
	products   productdomain.Service
	properties propertydomain.Service
}

func setup(t *testing.T, facetCache domain.FacetCache) fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	propertyRepo := propertyrepository.Provide()
	productRepo := productrepository.Provide()

	properties := propertyservice.New(propertyservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: propertyRepo,
	})
	products := productservice.New(productservice.Params{
		DB: db, Log: zap.NewNop(), GenID: node, Clock: clk, Repo: productRepo, PropertyRepo: propertyRepo,
	})
	catalog := New(Params{
		DB:           db,
		Log:          zap.NewNop(),
		Repo:         repository.Provide(),
		ProductRepo:  productRepo,
		PropertyRepo: propertyRepo,
		Cache:        facetCache,
	}).(*Service)

	ctx := context.Background()
	_, err = properties.Create(ctx, propertydomain.CreateRequest{
		UID:  "color",
		Name: "Color",
		Kind: "list",
		Values: []propertydomain.ValueInput{
			{ValueUID: "red", Label: "Red"},
			{ValueUID: "blue", Label: "Blue"},
			{ValueUID: "green", Label: "Green"},
		},
	})
	require.NoError(t, err)
	_, err = properties.Create(ctx, propertydomain.CreateRequest{UID: "weight", Name: "Weight", Kind: "int"})
	require.NoError(t, err)

	seed := []struct {
		uid, name, color string
		weight           int64
	}{
		{"p1", "Alpha phone", "red", 5},
		{"p2", "Beta phone", "blue", 10},
		{"p3", "Gamma tablet", "red", 15},
	}
	for _, item := range seed {
		color, weight := item.color, item.weight
		_, err := products.Create(ctx, productdomain.CreateRequest{
			UID:  item.uid,
			Name: item.name,
			Properties: []productdomain.AttributeInput{
				{UID: "color", ValueUID: &color},
				{UID: "weight", Value: &weight},
			},
		})
		require.NoError(t, err)
	}
	_, err = products.Create(ctx, productdomain.CreateRequest{UID: "p4", Name: "Alpha phone"})
	require.NoError(t, err)

	return fixture{db: db, catalog: catalog, products: products, properties: properties}
}

func filters(t *testing.T, raw string) filter.Set {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	set, err := filter.Parse(values)
	require.NoError(t, err)
	return set
}

func uids(resp *domain.ListResponse) []string {
	return lo.Map(resp.Products, func(p productdomain.Response, _ int) string { return p.UID })
}

func TestListWithoutFilters(t *testing.T) {
	f := setup(t, nil)

	resp, err := f.catalog.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), resp.Count)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, uids(resp))
	assert.Len(t, resp.Products[0].Properties, 2)
	assert.NotNil(t, resp.Products[3].Properties)
	assert.Empty(t, resp.Products[3].Properties)
}

func TestListFilters(t *testing.T) {
	f := setup(t, nil)

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"enumerated", "property_color=red", []string{"p1", "p3"}},
		{"enumerated any of", "property_color=red&property_color=blue", []string{"p1", "p2", "p3"}},
		{"value without products", "property_color=green", []string{}},
		{"range from inclusive", "property_weight_from=10", []string{"p2", "p3"}},
		{"range to inclusive", "property_weight_to=10", []string{"p1", "p2"}},
		{"range above max", "property_weight_from=16", []string{}},
		{"range both bounds", "property_weight_from=6&property_weight_to=14", []string{"p2"}},
		{"has property", "property_weight_from=", []string{"p1", "p2", "p3"}},
		{"conjunction", "property_color=red&property_weight_from=10", []string{"p3"}},
		{"unknown property", "property_material=wood", []string{}},
		{"unknown property with known", "property_color=red&property_material=wood", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := f.catalog.List(context.Background(), domain.ListRequest{Filters: filters(t, tc.query)})
			require.NoError(t, err)
			assert.Equal(t, tc.want, uids(resp))
			assert.Equal(t, int64(len(tc.want)), resp.Count)
		})
	}
}

func TestListNameFilterIsCaseInsensitive(t *testing.T) {
	f := setup(t, nil)

	resp, err := f.catalog.List(context.Background(), domain.ListRequest{Name: "PHONE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p4"}, uids(resp))

	resp, err = f.catalog.List(context.Background(), domain.ListRequest{
		Name:    "phone",
		Filters: filters(t, "property_color=red"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, uids(resp))
}

func TestListPagination(t *testing.T) {
	f := setup(t, nil)

	resp, err := f.catalog.List(context.Background(), domain.ListRequest{
		Pagination: pagination.Pagination{Page: 2, PageSize: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, uids(resp))
	assert.Equal(t, int64(4), resp.Count)

	resp, err = f.catalog.List(context.Background(), domain.ListRequest{
		Pagination: pagination.Pagination{Page: 10, PageSize: 3},
	})
	require.NoError(t, err)
	assert.NotNil(t, resp.Products)
	assert.Empty(t, resp.Products)
	assert.Equal(t, int64(4), resp.Count)
}

func TestListSortByNameBreaksTiesByUID(t *testing.T) {
	f := setup(t, nil)

	resp, err := f.catalog.List(context.Background(), domain.ListRequest{SortBy: "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p4", "p2", "p3"}, uids(resp))
}

func TestListRejectsUnknownSort(t *testing.T) {
	f := setup(t, nil)

	_, err := f.catalog.List(context.Background(), domain.ListRequest{SortBy: "price"})
	assert.ErrorIs(t, err, domain.ErrInvalidSort)
}

func TestListCountMatchesPagedTotal(t *testing.T) {
	f := setup(t, nil)
	set := filters(t, "property_weight_from=5")

	var seen []string
	for page := 1; page <= 3; page++ {
		resp, err := f.catalog.List(context.Background(), domain.ListRequest{
			Filters:    set,
			Pagination: pagination.Pagination{Page: page, PageSize: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), resp.Count)
		seen = append(seen, uids(resp)...)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, seen)
}

func TestFacetsWithoutFilters(t *testing.T) {
	f := setup(t, nil)

	result, err := f.catalog.Facets(context.Background(), domain.FacetRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), result.Count)
	assert.Equal(t, domain.EnumFacet{"red": 2, "blue": 1}, result.Properties["color"])

	weight := result.Properties["weight"].(domain.RangeFacet)
	require.NotNil(t, weight.MinValue)
	require.NotNil(t, weight.MaxValue)
	assert.Equal(t, int64(5), *weight.MinValue)
	assert.Equal(t, int64(15), *weight.MaxValue)
}

func TestFacetEnumeratedCountsSumToAssignedProducts(t *testing.T) {
	f := setup(t, nil)

	result, err := f.catalog.Facets(context.Background(), domain.FacetRequest{Name: "phone"})
	require.NoError(t, err)

	colors := result.Properties["color"].(domain.EnumFacet)
	var sum int64
	for _, n := range colors {
		sum += n
	}
	assigned, err := f.catalog.List(context.Background(), domain.ListRequest{
		Name:    "phone",
		Filters: filters(t, "property_color_from="),
	})
	require.NoError(t, err)
	assert.Equal(t, assigned.Count, sum)
	assert.Equal(t, int64(3), result.Count)
}

func TestFacetsFollowFilters(t *testing.T) {
	f := setup(t, nil)

	result, err := f.catalog.Facets(context.Background(), domain.FacetRequest{Filters: filters(t, "property_color=red")})
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Count)
	assert.Equal(t, domain.EnumFacet{"red": 2}, result.Properties["color"])
	weight := result.Properties["weight"].(domain.RangeFacet)
	assert.Equal(t, int64(5), *weight.MinValue)
	assert.Equal(t, int64(15), *weight.MaxValue)
}

func TestFacetsExcludeSelf(t *testing.T) {
	f := setup(t, nil)

	result, err := f.catalog.Facets(context.Background(), domain.FacetRequest{
		Filters:     filters(t, "property_color=red&property_weight_to=10"),
		ExcludeSelf: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Count)
	// color ignores its own filter but keeps weight <= 10: p1 red, p2 blue.
	assert.Equal(t, domain.EnumFacet{"red": 1, "blue": 1}, result.Properties["color"])
	// weight ignores its own filter but keeps color = red: p1, p3.
	weight := result.Properties["weight"].(domain.RangeFacet)
	assert.Equal(t, int64(5), *weight.MinValue)
	assert.Equal(t, int64(15), *weight.MaxValue)
}

func TestFacetsWhenNothingMatches(t *testing.T) {
	f := setup(t, nil)

	result, err := f.catalog.Facets(context.Background(), domain.FacetRequest{Filters: filters(t, "property_weight_from=16")})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Count)
	assert.Equal(t, domain.EnumFacet{}, result.Properties["color"])
	assert.Equal(t, domain.RangeFacet{}, result.Properties["weight"])
}

func TestFacetsAreCached(t *testing.T) {
	f := setup(t, cache.NewFacetCache(time.Hour))
	ctx := context.Background()

	first, err := f.catalog.Facets(ctx, domain.FacetRequest{Filters: filters(t, "property_color=red")})
	require.NoError(t, err)

	_, err = f.products.Create(ctx, productdomain.CreateRequest{UID: "p5", Name: "Epsilon"})
	require.NoError(t, err)

	second, err := f.catalog.Facets(ctx, domain.FacetRequest{Filters: filters(t, "property_color=red")})
	require.NoError(t, err)
	assert.Same(t, first, second)

	fresh, err := f.catalog.Facets(ctx, domain.FacetRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), fresh.Count)
}

func TestListCountsMultiValuedProductOnce(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	red, blue := "red", "blue"
	_, err := f.products.Create(ctx, productdomain.CreateRequest{
		UID:  "p5",
		Name: "Delta case",
		Properties: []productdomain.AttributeInput{
			{UID: "color", ValueUID: &red},
			{UID: "color", ValueUID: &blue},
		},
	})
	require.NoError(t, err)

	set := filters(t, "property_color=red&property_color=blue")
	resp, err := f.catalog.List(ctx, domain.ListRequest{Filters: set})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3", "p5"}, uids(resp))
	assert.Equal(t, int64(4), resp.Count)

	result, err := f.catalog.Facets(ctx, domain.FacetRequest{Filters: set})
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Count)
	assert.Equal(t, domain.EnumFacet{"red": 3, "blue": 2}, result.Properties["color"])
}

func TestStaleValuesIgnoredAfterPropertyRecreated(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	require.NoError(t, f.properties.Delete(ctx, "color"))
	_, err := f.properties.Create(ctx, propertydomain.CreateRequest{
		UID:    "color",
		Name:   "Color",
		Kind:   "list",
		Values: []propertydomain.ValueInput{{ValueUID: "red", Label: "Red"}},
	})
	require.NoError(t, err)

	resp, err := f.catalog.List(ctx, domain.ListRequest{Filters: filters(t, "property_color=blue")})
	require.NoError(t, err)
	assert.Empty(t, uids(resp))
	assert.Equal(t, int64(0), resp.Count)

	result, err := f.catalog.Facets(ctx, domain.FacetRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.EnumFacet{"red": 2}, result.Properties["color"])
}

func TestNarrowingScalesPastBindLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("bulk insert")
	}
	f := setup(t, nil)
	ctx := context.Background()

	const total = 33000
	items := make([]productdomain.Product, 0, total)
	assignments := make([]productdomain.ProductProperty, 0, total)
	createdAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < total; i++ {
		uid := fmt.Sprintf("bulk-%05d", i)
		weight := int64(100)
		items = append(items, productdomain.Product{UID: uid, Name: "Bulk item", CreatedAt: createdAt})
		assignments = append(assignments, productdomain.ProductProperty{
			ID:          int64(1_000_000 + i),
			ProductUID:  uid,
			PropertyUID: "weight",
			IntValue:    &weight,
		})
	}
	require.NoError(t, f.db.CreateInBatches(items, 500).Error)
	require.NoError(t, f.db.CreateInBatches(assignments, 500).Error)

	set := filters(t, "property_weight_from=50&property_weight_to=200")
	resp, err := f.catalog.List(ctx, domain.ListRequest{
		Filters:    set,
		Pagination: pagination.Pagination{Page: 1, PageSize: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(total), resp.Count)
	assert.Equal(t, []string{"bulk-00000", "bulk-00001", "bulk-00002", "bulk-00003", "bulk-00004"}, uids(resp))

	result, err := f.catalog.Facets(ctx, domain.FacetRequest{Filters: set})
	require.NoError(t, err)
	assert.Equal(t, int64(total), result.Count)
	weight := result.Properties["weight"].(domain.RangeFacet)
	require.NotNil(t, weight.MinValue)
	assert.Equal(t, int64(100), *weight.MinValue)
	assert.Equal(t, int64(100), *weight.MaxValue)
}
