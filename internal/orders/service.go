package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/logger"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

const maxStatusRetries = 3

// Repository persists orders. Store is the DynamoDB implementation.
type Repository interface {
	NextID(ctx context.Context) (int64, error)
	Create(ctx context.Context, o Order, idempotencyKey string) error
	Get(ctx context.Context, orderID int64) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ApplyTransition(ctx context.Context, orderID int64, t Transition) (*Order, error)
}

// Inventory checks product existence and stock and prices the items.
type Inventory interface {
	ValidateAndPrice(ctx context.Context, items []ItemRequest) ([]LineItem, error)
}

// ProductNames resolves current product names; missing products are absent.
type ProductNames interface {
	ProductNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Options tunes the engine.
type Options struct {
	// StrictTransitions rejects status changes outside the lifecycle table.
	// When false they are applied and logged.
	StrictTransitions bool
}

// Service is the order lifecycle engine.
type Service struct {
	repo      Repository
	inventory Inventory
	products  ProductNames
	events    EventPublisher
	validate  *validatorv10.Validate
	log       *zap.Logger
	opts      Options
	nowFunc   func() time.Time
}

func NewService(repo Repository, inventory Inventory, products ProductNames, events EventPublisher, v *validatorv10.Validate, log *zap.Logger, opts Options) *Service {
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		repo:      repo,
		inventory: inventory,
		products:  products,
		events:    events,
		validate:  v,
		log:       log,
		opts:      opts,
		nowFunc:   time.Now,
	}
}

// Create validates, prices and persists a new pending order, reserving
// stock for every line item. claims may be nil for anonymous orders.
func (s *Service) Create(ctx context.Context, in CreateOrderInput, claims *auth.Claims, idempotencyKey string) (*Order, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}

	lines, err := s.inventory.ValidateAndPrice(ctx, in.Products)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, apperr.Store("allocate order id", err)
	}

	var requester *int64
	if claims != nil {
		uid := claims.UserID
		requester = &uid
	}
	payment := strings.TrimSpace(in.Payment)
	if payment == "" {
		payment = DefaultPayment
	}
	contact := in.Contact
	contact.FullName = strings.TrimSpace(contact.FullName)
	contact.PhoneNumber = strings.TrimSpace(contact.PhoneNumber)

	now := s.nowFunc().UTC()
	o := Order{
		OrderID:  id,
		UserID:   requester,
		Contact:  contact,
		Address:  in.Address,
		Products: lines,
		Payment:  payment,
		Status:   StatusPending,
		ShippingLog: []LogEntry{{
			Status:      StatusPending,
			Description: "Create order",
			Time:        now,
			CreatedBy:   requester,
		}},
		ShippingCost:  0,
		StockReserved: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, o, idempotencyKey); err != nil {
		if errors.Is(err, ErrDuplicateRequest) {
			return nil, err
		}
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, apperr.Store("create order", err)
	}

	log := logger.FromContextOr(ctx, s.log)
	log.Info("order created",
		zap.Int64("order_id", o.OrderID),
		zap.Int("items", len(o.Products)),
		zap.String("total", o.Total().StringFixed(2)),
	)
	s.publish(ctx, newEvent(EventCreated, &o, "", now))
	return &o, nil
}

// Get returns the order with current product names. Only the owner or an admin may read it.
func (s *Service) Get(ctx context.Context, orderID int64, claims *auth.Claims) (*OrderDetail, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && !o.OwnedBy(claims.UserID) {
		return nil, apperr.PermissionDenied("order %d belongs to another user", orderID)
	}

	names, err := s.products.ProductNames(ctx, o.ProductIDs())
	if err != nil {
		return nil, err
	}
	detail := &OrderDetail{
		Order:    *o,
		Items:    make([]DetailItem, 0, len(o.Products)),
		Subtotal: o.Subtotal().InexactFloat64(),
		Total:    o.Total().InexactFloat64(),
	}
	for _, it := range o.Products {
		detail.Items = append(detail.Items, DetailItem{
			ProductID: it.ProductID,
			Name:      names[it.ProductID],
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return detail, nil
}

// List returns every order, newest first. Admin only.
func (s *Service) List(ctx context.Context, claims *auth.Claims) ([]Order, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if !claims.IsAdmin() {
		return nil, apperr.PermissionDenied("admin role required")
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Store("list orders", err)
	}
	sortNewestFirst(items)
	return items, nil
}

// ListByUser returns a user's orders, newest first. The requester must be
// that user or an admin.
func (s *Service) ListByUser(ctx context.Context, userID int64, claims *auth.Claims) ([]Order, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if !claims.Owns(userID) {
		return nil, apperr.PermissionDenied("cannot list orders of user %d", userID)
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Store("list orders by user", err)
	}
	if items == nil {
		items = []Order{}
	}
	sortNewestFirst(items)
	return items, nil
}

// UpdateStatus moves an order to a new status and appends a log entry. Admin only.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, in StatusUpdate, claims *auth.Claims) (*Order, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	if !claims.IsAdmin() {
		return nil, apperr.PermissionDenied("admin role required")
	}
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	to, ok := ParseStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", in.Status), "status")
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Order status changed to " + string(to)
	}
	log := logger.FromContextOr(ctx, s.log)

	for attempt := 0; attempt < maxStatusRetries; attempt++ {
		o, err := s.load(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !CanTransition(o.Status, to) {
			if s.opts.StrictTransitions {
				return nil, apperr.IllegalTransition(string(o.Status), string(to))
			}
			log.Warn("applying status change outside the lifecycle",
				zap.Int64("order_id", orderID),
				zap.String("from", string(o.Status)),
				zap.String("to", string(to)),
			)
		}

		t, err := s.transition(ctx, o, to, description, claims)
		if err != nil {
			return nil, err
		}
		updated, err := s.repo.ApplyTransition(ctx, orderID, t)
		switch {
		case errors.Is(err, ErrStatusMismatch):
			log.Info("order changed concurrently, retrying", zap.Int64("order_id", orderID), zap.Int("attempt", attempt+1))
			continue
		case errors.Is(err, ErrOrderNotFound):
			return nil, apperr.NotFound("order %d not found", orderID)
		case err != nil:
			if _, ok := apperr.As(err); ok {
				return nil, err
			}
			return nil, apperr.Store("update order status", err)
		}

		log.Info("order status changed",
			zap.Int64("order_id", orderID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(to)),
		)
		s.publish(ctx, newEvent(EventStatusChanged, updated, o.Status, t.Entry.Time))
		return updated, nil
	}
	return nil, apperr.Conflict("order %d was modified concurrently, try again", orderID)
}

// Cancel cancels a pending order on behalf of its owner or an admin and
// returns its stock.
func (s *Service) Cancel(ctx context.Context, orderID int64, description string, claims *auth.Claims) (*Order, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !claims.IsAdmin() && !o.OwnedBy(claims.UserID) {
		return nil, apperr.PermissionDenied("order %d belongs to another user", orderID)
	}
	if o.Status != StatusPending {
		return nil, apperr.IllegalTransition(string(o.Status), string(StatusCanceled))
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = "Order canceled"
	}
	t, err := s.transition(ctx, o, StatusCanceled, description, claims)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.ApplyTransition(ctx, orderID, t)
	switch {
	case errors.Is(err, ErrStatusMismatch):
		// someone moved it out of pending first
		current, lerr := s.load(ctx, orderID)
		if lerr != nil {
			return nil, lerr
		}
		return nil, apperr.IllegalTransition(string(current.Status), string(StatusCanceled))
	case errors.Is(err, ErrOrderNotFound):
		return nil, apperr.NotFound("order %d not found", orderID)
	case err != nil:
		return nil, apperr.Store("cancel order", err)
	}

	logger.FromContextOr(ctx, s.log).Info("order canceled", zap.Int64("order_id", orderID), zap.Int64("by", claims.UserID))
	s.publish(ctx, newEvent(EventStatusChanged, updated, o.Status, t.Entry.Time))
	return updated, nil
}

// transition builds the write for o -> to, including stock effects:
// entering canceled returns reserved stock for products that still exist,
// leaving canceled takes the stock again.
func (s *Service) transition(ctx context.Context, o *Order, to Status, description string, claims *auth.Claims) (Transition, error) {
	by := claims.UserID
	t := Transition{
		From: o.Status,
		To:   to,
		Entry: LogEntry{
			Status:      to,
			Description: description,
			Time:        s.nowFunc().UTC(),
			CreatedBy:   &by,
		},
		Reserved: o.StockReserved,
	}

	switch {
	case to == StatusCanceled && o.StockReserved:
		names, err := s.products.ProductNames(ctx, o.ProductIDs())
		if err != nil {
			return Transition{}, err
		}
		for _, it := range o.Products {
			if _, ok := names[it.ProductID]; ok {
				t.Release = append(t.Release, it)
			}
		}
		t.Reserved = false
	case o.Status == StatusCanceled && to != StatusCanceled && !o.StockReserved:
		t.Reserve = o.Products
		t.Reserved = true
	}
	// delivered goods have left stock for good; a later cancel returns nothing
	if to == StatusDelivered {
		t.Reserved = false
	}
	return t, nil
}

func (s *Service) load(ctx context.Context, orderID int64) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, apperr.Store("get order", err)
	}
	if o == nil {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	return o, nil
}

func (s *Service) publish(ctx context.Context, e Event) {
	e.RequestID = logger.RequestID(ctx)
	if err := s.events.Publish(ctx, e); err != nil {
		logger.FromContextOr(ctx, s.log).Error("publish order event failed",
			zap.String("type", e.Type),
			zap.Int64("order_id", e.OrderID),
			zap.Error(err),
		)
	}
}

func sortNewestFirst(items []Order) {
	sort.Slice(items, func(i, j int) bool { return items[i].OrderID > items[j].OrderID })
}
