package content_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/content"
	"github.com/imrishuroy/go-storefront/internal/memstore"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

func newService() *content.Service {
	return content.NewService(memstore.NewBanners(), memstore.NewTestimonials(), validation.New(), zap.NewNop())
}

func ptr[T any](v T) *T { return &v }

func TestBanners(t *testing.T) {
	ctx := context.Background()
	s := newService()

	for _, in := range []content.BannerInput{
		{Name: "Summer", Image: "https://cdn.example.com/summer.png", Order: 2},
		{Name: "Launch", Image: "https://cdn.example.com/launch.png", Order: 1, Status: ptr(false)},
		{Name: "Clearance", Image: "https://cdn.example.com/clear.png", Order: 2},
	} {
		_, err := s.CreateBanner(ctx, in)
		require.NoError(t, err)
	}

	list, err := s.ListBanners(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Launch", "Summer", "Clearance"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.False(t, list[0].Status)
	assert.True(t, list[1].Status)

	updated, err := s.UpdateBanner(ctx, 1, content.BannerPatch{Order: ptr(0), Link: ptr("https://shop.example.com/summer")})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Order)
	assert.Equal(t, "https://shop.example.com/summer", updated.Link)

	toggled, err := s.ToggleBannerStatus(ctx, 2)
	require.NoError(t, err)
	assert.True(t, toggled.Status)

	_, err = s.CreateBanner(ctx, content.BannerInput{Name: " ", Image: "not a url", Order: -1})
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Equal(t, []string{"image", "name", "order"}, e.Fields)

	_, err = s.DeleteBanner(ctx, 3)
	require.NoError(t, err)
	_, err = s.GetBanner(ctx, 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.UpdateBanner(ctx, 3, content.BannerPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.ToggleBannerStatus(ctx, 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTestimonials(t *testing.T) {
	ctx := context.Background()
	s := newService()

	first, err := s.CreateTestimonial(ctx, content.TestimonialInput{Name: "Ann", Description: " Great shop "})
	require.NoError(t, err)
	assert.Equal(t, "Great shop", first.Description)
	_, err = s.CreateTestimonial(ctx, content.TestimonialInput{Name: "Bob", Description: "Fast delivery"})
	require.NoError(t, err)

	list, err := s.ListTestimonials(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bob", list[0].Name)

	updated, err := s.UpdateTestimonial(ctx, first.TestimonialID, content.TestimonialPatch{Description: ptr("Still great")})
	require.NoError(t, err)
	assert.Equal(t, "Still great", updated.Description)

	_, err = s.UpdateTestimonial(ctx, first.TestimonialID, content.TestimonialPatch{Description: ptr("  ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	same, err := s.UpdateTestimonial(ctx, first.TestimonialID, content.TestimonialPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Still great", same.Description)

	_, err = s.DeleteTestimonial(ctx, 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
