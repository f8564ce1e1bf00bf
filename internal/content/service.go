// Package content serves the storefront's banners and testimonials.
package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/store"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// Repository is implemented by Store and by in-memory fakes.
type Repository[T any] interface {
	NextID(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*T, error)
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*T, error)
	Delete(ctx context.Context, id int64) (*T, error)
	ToggleStatus(ctx context.Context, id int64) (*T, error)
}

type Service struct {
	banners      Repository[Banner]
	testimonials Repository[Testimonial]
	validate     *validatorv10.Validate
	log          *zap.Logger
	nowFunc      func() time.Time
}

func NewService(banners Repository[Banner], testimonials Repository[Testimonial], v *validatorv10.Validate, log *zap.Logger) *Service {
	return &Service{banners: banners, testimonials: testimonials, validate: v, log: log, nowFunc: time.Now}
}

// ListBanners returns banners by display order, ties by id.
func (s *Service) ListBanners(ctx context.Context) ([]Banner, error) {
	items, err := s.banners.List(ctx)
	if err != nil {
		return nil, apperr.Store("list banners", err)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].BannerID < items[j].BannerID
	})
	return items, nil
}

func (s *Service) GetBanner(ctx context.Context, id int64) (*Banner, error) {
	return get(ctx, s.banners, id, "banner")
}

func (s *Service) CreateBanner(ctx context.Context, in BannerInput) (*Banner, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	id, err := s.banners.NextID(ctx)
	if err != nil {
		return nil, apperr.Store("allocate banner id", err)
	}
	b := Banner{
		BannerID:    id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Author:      in.Author,
		Image:       in.Image,
		Link:        in.Link,
		Order:       in.Order,
		Status:      in.Status == nil || *in.Status,
		CreatedAt:   s.nowFunc().UTC(),
	}
	if err := s.banners.Create(ctx, b); err != nil {
		return nil, apperr.Store("create banner", err)
	}
	s.log.Info("banner created", zap.Int64("banner_id", id))
	return &b, nil
}

func (s *Service) UpdateBanner(ctx context.Context, id int64, patch BannerPatch) (*Banner, error) {
	if err := validation.Struct(s.validate, patch); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Author != nil {
		fields["author"] = *patch.Author
	}
	if patch.Image != nil {
		fields["image"] = *patch.Image
	}
	if patch.Link != nil {
		fields["link"] = *patch.Link
	}
	if patch.Order != nil {
		fields["order"] = *patch.Order
	}
	return update(ctx, s.banners, id, fields, "banner")
}

func (s *Service) DeleteBanner(ctx context.Context, id int64) (*Banner, error) {
	return remove(ctx, s.banners, id, "banner")
}

func (s *Service) ToggleBannerStatus(ctx context.Context, id int64) (*Banner, error) {
	return toggle(ctx, s.banners, id, "banner")
}

// ListTestimonials returns testimonials newest first.
func (s *Service) ListTestimonials(ctx context.Context) ([]Testimonial, error) {
	items, err := s.testimonials.List(ctx)
	if err != nil {
		return nil, apperr.Store("list testimonials", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].TestimonialID > items[j].TestimonialID })
	return items, nil
}

func (s *Service) GetTestimonial(ctx context.Context, id int64) (*Testimonial, error) {
	return get(ctx, s.testimonials, id, "testimonial")
}

func (s *Service) CreateTestimonial(ctx context.Context, in TestimonialInput) (*Testimonial, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	id, err := s.testimonials.NextID(ctx)
	if err != nil {
		return nil, apperr.Store("allocate testimonial id", err)
	}
	t := Testimonial{
		TestimonialID: id,
		Name:          strings.TrimSpace(in.Name),
		Image:         in.Image,
		Description:   strings.TrimSpace(in.Description),
		Status:        in.Status == nil || *in.Status,
		CreatedAt:     s.nowFunc().UTC(),
	}
	if err := s.testimonials.Create(ctx, t); err != nil {
		return nil, apperr.Store("create testimonial", err)
	}
	return &t, nil
}

func (s *Service) UpdateTestimonial(ctx context.Context, id int64, patch TestimonialPatch) (*Testimonial, error) {
	if err := validation.Struct(s.validate, patch); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Image != nil {
		fields["image"] = *patch.Image
	}
	if patch.Description != nil {
		fields["description"] = strings.TrimSpace(*patch.Description)
	}
	return update(ctx, s.testimonials, id, fields, "testimonial")
}

func (s *Service) DeleteTestimonial(ctx context.Context, id int64) (*Testimonial, error) {
	return remove(ctx, s.testimonials, id, "testimonial")
}

func (s *Service) ToggleTestimonialStatus(ctx context.Context, id int64) (*Testimonial, error) {
	return toggle(ctx, s.testimonials, id, "testimonial")
}

func get[T any](ctx context.Context, repo Repository[T], id int64, kind string) (*T, error) {
	item, err := repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.Store("get "+kind, err)
	}
	if item == nil {
		return nil, apperr.NotFound("%s %d not found", kind, id)
	}
	return item, nil
}

func update[T any](ctx context.Context, repo Repository[T], id int64, fields map[string]interface{}, kind string) (*T, error) {
	if len(fields) == 0 {
		return get(ctx, repo, id, kind)
	}
	item, err := repo.Update(ctx, id, fields)
	if err != nil {
		return nil, notFoundOr(err, "update "+kind, kind, id)
	}
	return item, nil
}

func remove[T any](ctx context.Context, repo Repository[T], id int64, kind string) (*T, error) {
	item, err := repo.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Store("delete "+kind, err)
	}
	if item == nil {
		return nil, apperr.NotFound("%s %d not found", kind, id)
	}
	return item, nil
}

func toggle[T any](ctx context.Context, repo Repository[T], id int64, kind string) (*T, error) {
	item, err := repo.ToggleStatus(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "toggle "+kind+" status", kind, id)
	}
	return item, nil
}

func notFoundOr(err error, op, kind string, id int64) error {
	if errors.Is(err, store.ErrItemNotFound) {
		return apperr.NotFound("%s %d not found", kind, id)
	}
	return apperr.Store(op, err)
}
