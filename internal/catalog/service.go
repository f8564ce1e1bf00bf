package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/store"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// ProductRepository is implemented by ProductStore and by in-memory fakes.
type ProductRepository interface {
	NextID(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*Product, error)
	BatchGet(ctx context.Context, ids []int64) ([]Product, error)
	List(ctx context.Context) ([]Product, error)
	Search(ctx context.Context, q string) ([]Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*Product, error)
	Delete(ctx context.Context, id int64) (*Product, error)
	ToggleStatus(ctx context.Context, id int64) (*Product, error)
	AdjustStock(ctx context.Context, id int64, delta int64) (*Product, error)
}

// CategoryRepository is implemented by CategoryStore and by in-memory fakes.
type CategoryRepository interface {
	NextID(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	Search(ctx context.Context, q string) ([]Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, c Category) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*Category, error)
	Delete(ctx context.Context, id int64) (*Category, error)
	ToggleStatus(ctx context.Context, id int64) (*Category, error)
}

// Service implements catalog administration and product lookups.
type Service struct {
	products   ProductRepository
	categories CategoryRepository
	validate   *validatorv10.Validate
	log        *zap.Logger
	nowFunc    func() time.Time
}

func NewService(products ProductRepository, categories CategoryRepository, v *validatorv10.Validate, log *zap.Logger) *Service {
	return &Service{
		products:   products,
		categories: categories,
		validate:   v,
		log:        log,
		nowFunc:    time.Now,
	}
}

// ProductsByIDs returns the existing products among ids, keyed by id.
func (s *Service) ProductsByIDs(ctx context.Context, ids []int64) (map[int64]Product, error) {
	if len(ids) == 0 {
		return map[int64]Product{}, nil
	}
	found, err := s.products.BatchGet(ctx, ids)
	if err != nil {
		return nil, apperr.Store("lookup products", err)
	}
	out := make(map[int64]Product, len(found))
	for _, p := range found {
		out[p.ProductID] = p
	}
	return out, nil
}

// ProductNames returns the current names of the existing products among ids.
func (s *Service) ProductNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	byID, err := s.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(byID))
	for id, p := range byID {
		names[id] = p.Name
	}
	return names, nil
}

func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	items, err := s.products.List(ctx)
	if err != nil {
		return nil, apperr.Store("list products", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, apperr.Store("get product", err)
	}
	if p == nil {
		return nil, apperr.NotFound("product %d not found", id)
	}
	return p, nil
}

func (s *Service) SearchProducts(ctx context.Context, name string) ([]Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("search term is required", "name")
	}
	items, err := s.products.Search(ctx, name)
	if err != nil {
		return nil, apperr.Store("search products", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := s.ensureProductNameFree(ctx, name, 0); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	id, err := s.products.NextID(ctx)
	if err != nil {
		return nil, apperr.Store("allocate product id", err)
	}
	status := true
	if in.Status != nil {
		status = *in.Status
	}
	p := Product{
		ProductID:   id,
		Name:        name,
		SearchName:  strings.ToLower(name),
		Slug:        slug.Make(name),
		Description: in.Description,
		Price:       in.Price,
		Thumbnail:   in.Thumbnail,
		Images:      in.Images,
		CategoryID:  in.CategoryID,
		Quantity:    Quantity{InStock: in.InStock},
		Status:      status,
		CreatedAt:   s.nowFunc().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, apperr.Store("create product", err)
	}
	s.log.Info("product created", zap.Int64("product_id", id), zap.String("name", name))
	return &p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
	if err := validation.Struct(s.validate, patch); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := s.ensureProductNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		fields["name"] = name
		fields["search_name"] = strings.ToLower(name)
		fields["slug"] = slug.Make(name)
	}
	if patch.CategoryID != nil {
		if err := s.ensureCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *patch.CategoryID
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Price != nil {
		fields["price"] = *patch.Price
	}
	if patch.Thumbnail != nil {
		fields["thumbnail"] = *patch.Thumbnail
	}
	if patch.Images != nil {
		fields["images"] = *patch.Images
	}
	if len(fields) == 0 {
		return s.GetProduct(ctx, id)
	}

	p, err := s.products.Update(ctx, id, fields)
	if err != nil {
		return nil, notFoundOr(err, "update product", "product %d not found", id)
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) (*Product, error) {
	p, err := s.products.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Store("delete product", err)
	}
	if p == nil {
		return nil, apperr.NotFound("product %d not found", id)
	}
	s.log.Info("product deleted", zap.Int64("product_id", id))
	return p, nil
}

func (s *Service) ToggleProductStatus(ctx context.Context, id int64) (*Product, error) {
	p, err := s.products.ToggleStatus(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "toggle product status", "product %d not found", id)
	}
	return p, nil
}

// AdjustStock restocks (delta > 0) or writes off (delta < 0) units. Stock never goes negative.
func (s *Service) AdjustStock(ctx context.Context, id int64, in StockAdjustment) (*Product, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	p, err := s.products.AdjustStock(ctx, id, in.Delta)
	switch {
	case errors.Is(err, store.ErrConditionFailed):
		return nil, apperr.InsufficientStock([]int64{id})
	case err != nil:
		return nil, notFoundOr(err, "adjust stock", "product %d not found", id)
	}
	s.log.Info("stock adjusted", zap.Int64("product_id", id), zap.Int64("delta", in.Delta), zap.Int64("in_stock", p.Quantity.InStock))
	return p, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	items, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperr.Store("list categories", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CategoryID < items[j].CategoryID })
	return items, nil
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*Category, error) {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, apperr.Store("get category", err)
	}
	if c == nil {
		return nil, apperr.NotFound("category %d not found", id)
	}
	return c, nil
}

func (s *Service) SearchCategories(ctx context.Context, name string) ([]Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("search term is required", "name")
	}
	items, err := s.categories.Search(ctx, name)
	if err != nil {
		return nil, apperr.Store("search categories", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CategoryID < items[j].CategoryID })
	return items, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*Category, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := s.ensureCategoryNameFree(ctx, name, 0); err != nil {
		return nil, err
	}
	id, err := s.categories.NextID(ctx)
	if err != nil {
		return nil, apperr.Store("allocate category id", err)
	}
	status := true
	if in.Status != nil {
		status = *in.Status
	}
	c := Category{
		CategoryID:  id,
		Name:        name,
		SearchName:  strings.ToLower(name),
		Slug:        slug.Make(name),
		Image:       in.Image,
		Description: in.Description,
		Status:      status,
		CreatedAt:   s.nowFunc().UTC(),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, apperr.Store("create category", err)
	}
	return &c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (*Category, error) {
	if err := validation.Struct(s.validate, patch); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := s.ensureCategoryNameFree(ctx, name, id); err != nil {
			return nil, err
		}
		fields["name"] = name
		fields["search_name"] = strings.ToLower(name)
		fields["slug"] = slug.Make(name)
	}
	if patch.Image != nil {
		fields["image"] = *patch.Image
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if len(fields) == 0 {
		return s.GetCategory(ctx, id)
	}
	c, err := s.categories.Update(ctx, id, fields)
	if err != nil {
		return nil, notFoundOr(err, "update category", "category %d not found", id)
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) (*Category, error) {
	c, err := s.categories.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Store("delete category", err)
	}
	if c == nil {
		return nil, apperr.NotFound("category %d not found", id)
	}
	return c, nil
}

func (s *Service) ToggleCategoryStatus(ctx context.Context, id int64) (*Category, error) {
	c, err := s.categories.ToggleStatus(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "toggle category status", "category %d not found", id)
	}
	return c, nil
}

// ensureProductNameFree fails when another product (other than self) uses name.
func (s *Service) ensureProductNameFree(ctx context.Context, name string, self int64) error {
	existing, err := s.products.FindByName(ctx, name)
	if err != nil {
		return apperr.Store("find product by name", err)
	}
	if existing != nil && existing.ProductID != self {
		return apperr.AlreadyExists("product name %q is already used", name)
	}
	return nil
}

func (s *Service) ensureCategoryNameFree(ctx context.Context, name string, self int64) error {
	existing, err := s.categories.FindByName(ctx, name)
	if err != nil {
		return apperr.Store("find category by name", err)
	}
	if existing != nil && existing.CategoryID != self {
		return apperr.AlreadyExists("category name %q is already used", name)
	}
	return nil
}

func (s *Service) ensureCategory(ctx context.Context, id int64) error {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return apperr.Store("get category", err)
	}
	if c == nil {
		return apperr.NotFound("category %d not found", id)
	}
	return nil
}

func notFoundOr(err error, op, format string, args ...any) error {
	if errors.Is(err, store.ErrItemNotFound) {
		return apperr.NotFound(format, args...)
	}
	return apperr.Store(op, err)
}
