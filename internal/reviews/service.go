// Package reviews decides which ordered products a user may review and
// records their reviews.
package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/catalog"
	"github.com/imrishuroy/go-storefront/internal/logger"
	"github.com/imrishuroy/go-storefront/internal/orders"
	"github.com/imrishuroy/go-storefront/internal/store"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

type OrderReader interface {
	Get(ctx context.Context, orderID int64) (*orders.Order, error)
}

// ProductReviewer is the product side of the gate. AddReview must append
// atomically and return catalog.ErrAlreadyReviewed when the user already
// has a review on the product.
type ProductReviewer interface {
	Get(ctx context.Context, id int64) (*catalog.Product, error)
	BatchGet(ctx context.Context, ids []int64) ([]catalog.Product, error)
	AddReview(ctx context.Context, productID int64, r catalog.Review) error
}

type Service struct {
	orders   OrderReader
	products ProductReviewer
	validate *validatorv10.Validate
	log      *zap.Logger
	nowFunc  func() time.Time
}

func NewService(orders OrderReader, products ProductReviewer, v *validatorv10.Validate, log *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		validate: v,
		log:      log,
		nowFunc:  time.Now,
	}
}

// ReviewableProducts lists the distinct products of the requester's order
// that they have not reviewed yet, in order snapshot order. Products deleted
// from the catalog are left out.
func (s *Service) ReviewableProducts(ctx context.Context, orderID int64, claims *auth.Claims) ([]ReviewableProduct, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, apperr.Store("get order", err)
	}
	if o == nil || !o.OwnedBy(claims.UserID) {
		return nil, apperr.NotFound("order %d not found", orderID)
	}

	var ids []int64
	seen := make(map[int64]bool, len(o.Products))
	for _, it := range o.Products {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	found, err := s.products.BatchGet(ctx, ids)
	if err != nil {
		return nil, apperr.Store("lookup products", err)
	}
	byID := make(map[int64]catalog.Product, len(found))
	for _, p := range found {
		byID[p.ProductID] = p
	}

	out := []ReviewableProduct{}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || p.HasReviewFrom(claims.UserID) {
			continue
		}
		it, _ := o.Item(id)
		out = append(out, ReviewableProduct{
			ProductID: id,
			Name:      p.Name,
			Thumbnail: p.Thumbnail,
			Price:     it.Price,
		})
	}
	return out, nil
}

// Submit records the requester's reviews for a delivered order they own.
// The status check comes first and applies to every role.
func (s *Service) Submit(ctx context.Context, in SubmitInput, claims *auth.Claims) (*SubmitResult, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	o, err := s.orders.Get(ctx, in.OrderID)
	if err != nil {
		return nil, apperr.Store("get order", err)
	}
	if o == nil {
		return nil, apperr.NotFound("order %d not found", in.OrderID)
	}
	if o.Status != orders.StatusDelivered {
		return nil, apperr.IllegalState("order %d is %s, only delivered orders can be reviewed", o.OrderID, o.Status)
	}
	if !o.OwnedBy(claims.UserID) {
		return nil, apperr.PermissionDenied("order %d belongs to another user", o.OrderID)
	}

	log := logger.FromContextOr(ctx, s.log)
	res := &SubmitResult{OrderID: o.OrderID, Items: make([]ItemResult, 0, len(in.Reviews))}
	for _, r := range in.Reviews {
		item := s.submitOne(ctx, o, r, claims.UserID)
		switch item.Outcome {
		case OutcomeCreated:
			res.Created++
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
		res.Items = append(res.Items, item)
	}

	if res.Failed > 0 && res.Created > 0 {
		log.Error("review submission partially applied",
			zap.Int64("order_id", o.OrderID),
			zap.Int("created", res.Created),
			zap.Int("failed", res.Failed),
		)
	} else {
		log.Info("reviews submitted",
			zap.Int64("order_id", o.OrderID),
			zap.Int("created", res.Created),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
	}
	return res, nil
}

func (s *Service) submitOne(ctx context.Context, o *orders.Order, in ReviewInput, userID int64) ItemResult {
	res := ItemResult{ProductID: in.ProductID}
	if _, ok := o.Item(in.ProductID); !ok {
		return failed(res, apperr.ProductNotInOrder(in.ProductID))
	}

	err := s.products.AddReview(ctx, in.ProductID, catalog.Review{
		UserID:    userID,
		Review:    strings.TrimSpace(in.Review),
		Rating:    in.Rating,
		CreatedAt: s.nowFunc().UTC(),
	})
	switch {
	case err == nil:
		res.Outcome = OutcomeCreated
	case errors.Is(err, catalog.ErrAlreadyReviewed):
		res.Outcome = OutcomeSkipped
	case errors.Is(err, store.ErrItemNotFound):
		return failed(res, apperr.NotFound("product %d not found", in.ProductID))
	default:
		logger.FromContextOr(ctx, s.log).Error("append review failed",
			zap.Int64("order_id", o.OrderID),
			zap.Int64("product_id", in.ProductID),
			zap.Error(err),
		)
		return failed(res, apperr.Store("append review", err))
	}
	return res
}

func failed(res ItemResult, err error) ItemResult {
	res.Outcome = OutcomeFailed
	res.Kind = string(apperr.KindOf(err))
	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindStore {
		res.Error = e.Message
	} else {
		res.Error = "internal error"
	}
	return res
}

// ProductReviews lists a product's reviews. Public.
func (s *Service) ProductReviews(ctx context.Context, productID int64) ([]catalog.Review, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, apperr.Store("get product", err)
	}
	if p == nil {
		return nil, apperr.NotFound("product %d not found", productID)
	}
	if p.Reviews == nil {
		return []catalog.Review{}, nil
	}
	return p.Reviews, nil
}
