package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/memstore"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	db := memstore.New()
	return catalog.NewService(db.Products(), db.Categories(), validation.New(), zap.NewNop())
}

func seedCategory(t *testing.T, s *catalog.Service, name string) *catalog.Category {
	t.Helper()
	c, err := s.CreateCategory(context.Background(), catalog.CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	cat := seedCategory(t, s, "Kitchen")

	p, err := s.CreateProduct(ctx, catalog.ProductInput{Description: "d", Name: " Blue Mug ", Price: 4.5, CategoryID: cat.CategoryID, InStock: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ProductID)
	assert.Equal(t, "Blue Mug", p.Name)
	assert.Equal(t, "blue-mug", p.Slug)
	assert.Equal(t, "blue mug", p.SearchName)
	assert.True(t, p.Status)
	assert.Equal(t, int64(10), p.Quantity.InStock)

	_, err = s.CreateProduct(ctx, catalog.ProductInput{Description: "d", Name: "blue mug", Price: 1, CategoryID: cat.CategoryID})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = s.CreateProduct(ctx, catalog.ProductInput{Description: "d", Name: "Plate", Price: 1, CategoryID: 99})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.CreateProduct(ctx, catalog.ProductInput{Name: "", Price: 0, CategoryID: cat.CategoryID, InStock: -1})
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Equal(t, []string{"description", "in_stock", "name", "price"}, e.Fields)

	_, err = s.CreateProduct(ctx, catalog.ProductInput{Name: "NoDesc", Description: "  ", Price: 2, CategoryID: cat.CategoryID})
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ = apperr.As(err)
	assert.Equal(t, []string{"description"}, e.Fields)
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	cat := seedCategory(t, s, "Kitchen")
	mug, err := s.CreateProduct(ctx, catalog.ProductInput{Description: "d", Name: "Mug", Price: 4.5, CategoryID: cat.CategoryID})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, catalog.ProductInput{Description: "d", Name: "Plate", Price: 6, CategoryID: cat.CategoryID})
	require.NoError(t, err)

	got, err := s.UpdateProduct(ctx, mug.ProductID, catalog.ProductPatch{Name: ptr("Tall Mug"), Price: ptr(5.0)})
	require.NoError(t, err)
	assert.Equal(t, "Tall Mug", got.Name)
	assert.Equal(t, "tall-mug", got.Slug)
	assert.Equal(t, 5.0, got.Price)

	// renaming to its own name is not a conflict
	_, err = s.UpdateProduct(ctx, mug.ProductID, catalog.ProductPatch{Name: ptr("tall mug")})
	assert.NoError(t, err)

	_, err = s.UpdateProduct(ctx, mug.ProductID, catalog.ProductPatch{Name: ptr("Plate")})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	_, err = s.UpdateProduct(ctx, 99, catalog.ProductPatch{Price: ptr(1.0)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.UpdateProduct(ctx, mug.ProductID, catalog.ProductPatch{CategoryID: ptr(int64(42))})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.UpdateProduct(ctx, mug.ProductID, catalog.ProductPatch{Description: ptr("  ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	unchanged, err := s.UpdateProduct(ctx, mug.ProductID, catalog.ProductPatch{})
	require.NoError(t, err)
	assert.Equal(t, "tall mug", unchanged.Name)
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	cat := seedCategory(t, s, "Kitchen")
	p, err := s.CreateProduct(ctx, catalog.ProductInput{Description: "d", Name: "Mug", Price: 4.5, CategoryID: cat.CategoryID, InStock: 2})
	require.NoError(t, err)

	got, err := s.AdjustStock(ctx, p.ProductID, catalog.StockAdjustment{Delta: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity.InStock)

	_, err = s.AdjustStock(ctx, p.ProductID, catalog.StockAdjustment{Delta: -6})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	got, err = s.GetProduct(ctx, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity.InStock)

	_, err = s.AdjustStock(ctx, p.ProductID, catalog.StockAdjustment{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = s.AdjustStock(ctx, 99, catalog.StockAdjustment{Delta: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProductLookupsAndToggle(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	cat := seedCategory(t, s, "Kitchen")
	for _, name := range []string{"Blue Mug", "Red Mug", "Plate"} {
		_, err := s.CreateProduct(ctx, catalog.ProductInput{Description: "d", Name: name, Price: 1, CategoryID: cat.CategoryID})
		require.NoError(t, err)
	}

	found, err := s.SearchProducts(ctx, "MUG")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Blue Mug", found[0].Name)

	_, err = s.SearchProducts(ctx, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	names, err := s.ProductNames(ctx, []int64{3, 1, 77})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{1: "Blue Mug", 3: "Plate"}, names)

	toggled, err := s.ToggleProductStatus(ctx, 2)
	require.NoError(t, err)
	assert.False(t, toggled.Status)
	_, err = s.ToggleProductStatus(ctx, 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	deleted, err := s.DeleteProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Red Mug", deleted.Name)
	_, err = s.DeleteProduct(ctx, 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ProductID)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	s := newService(t)

	c, err := s.CreateCategory(ctx, catalog.CategoryInput{Name: "Home & Garden", Status: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, "home-and-garden", c.Slug)
	assert.False(t, c.Status)

	_, err = s.CreateCategory(ctx, catalog.CategoryInput{Name: "home & garden"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	updated, err := s.UpdateCategory(ctx, c.CategoryID, catalog.CategoryPatch{Description: ptr("outdoors")})
	require.NoError(t, err)
	assert.Equal(t, "outdoors", updated.Description)

	toggled, err := s.ToggleCategoryStatus(ctx, c.CategoryID)
	require.NoError(t, err)
	assert.True(t, toggled.Status)

	found, err := s.SearchCategories(ctx, "garden")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = s.DeleteCategory(ctx, c.CategoryID)
	require.NoError(t, err)
	_, err = s.GetCategory(ctx, c.CategoryID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
