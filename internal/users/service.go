// Package users manages accounts, sign-up and login.
package users

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/logger"
	"github.com/imrishuroy/go-storefront/internal/store"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

// Repository is implemented by Store and by in-memory fakes.
type Repository interface {
	NextID(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) (*User, error)
	Delete(ctx context.Context, id int64) (*User, error)
	ToggleStatus(ctx context.Context, id int64) (*User, error)
}

// TokenIssuer is satisfied by auth.Issuer.
type TokenIssuer interface {
	Issue(userID int64, username, role string) (string, error)
}

type Service struct {
	repo     Repository
	tokens   TokenIssuer
	validate *validatorv10.Validate
	log      *zap.Logger
	nowFunc  func() time.Time
}

func NewService(repo Repository, tokens TokenIssuer, v *validatorv10.Validate, log *zap.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, validate: v, log: log, nowFunc: time.Now}
}

// Register creates an active account with the user role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	return s.create(ctx, in, auth.RoleUser)
}

// Create is the admin variant of Register; the role may be chosen.
func (s *Service) Create(ctx context.Context, in CreateInput, claims *auth.Claims) (*User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = auth.RoleUser
	}
	return s.create(ctx, in.RegisterInput, role)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role string) (*User, error) {
	username := strings.ToLower(in.Username)
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Store("find user", err)
	}
	if existing != nil {
		return nil, apperr.AlreadyExists("username %q is taken", username)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Store("hash password", err)
	}
	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, apperr.Store("allocate user id", err)
	}
	u := User{
		UserID:       id,
		Username:     username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Telephone:    strings.TrimSpace(in.Telephone),
		Email:        in.Email,
		Role:         role,
		Status:       true,
		CreatedAt:    s.nowFunc().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperr.Store("create user", err)
	}
	logger.FromContextOr(ctx, s.log).Info("user created", zap.Int64("user_id", id), zap.String("role", role))
	return &u, nil
}

// Login checks the credentials of an active user and issues a token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	u, err := s.repo.FindByUsername(ctx, strings.ToLower(in.Username))
	if err != nil {
		return nil, apperr.Store("find user", err)
	}
	if u == nil {
		return nil, apperr.Unauthenticated("invalid username or password")
	}
	ok, err := auth.CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		return nil, apperr.Store("check password", err)
	}
	if !ok {
		return nil, apperr.Unauthenticated("invalid username or password")
	}
	if !u.Status {
		return nil, apperr.PermissionDenied("account is disabled")
	}

	token, err := s.tokens.Issue(u.UserID, u.Username, u.Role)
	if err != nil {
		return nil, apperr.Store("issue token", err)
	}
	return &LoginResult{Token: token, User: *u}, nil
}

// Get returns a user to themselves or to an admin.
func (s *Service) Get(ctx context.Context, id int64, claims *auth.Claims) (*User, error) {
	if err := requireSelf(claims, id); err != nil {
		return nil, err
	}
	u, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.Store("get user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, claims *auth.Claims) ([]User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Store("list users", err)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}

// Update changes profile fields of the requester's own account, or any account for admins.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, claims *auth.Claims) (*User, error) {
	if err := requireSelf(claims, id); err != nil {
		return nil, err
	}
	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Telephone != nil {
		fields["telephone"] = strings.TrimSpace(*in.Telephone)
	}
	if in.Email != nil {
		fields["email"] = *in.Email
	}
	if len(fields) == 0 {
		return s.Get(ctx, id, claims)
	}
	u, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, notFoundOr(err, "update user", id)
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id int64, claims *auth.Claims) (*User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	u, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, apperr.Store("delete user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", id)
	}
	logger.FromContextOr(ctx, s.log).Info("user deleted", zap.Int64("user_id", id), zap.Int64("by", claims.UserID))
	return u, nil
}

// ToggleStatus activates or disables an account. Disabled users cannot log in.
func (s *Service) ToggleStatus(ctx context.Context, id int64, claims *auth.Claims) (*User, error) {
	if err := requireAdmin(claims); err != nil {
		return nil, err
	}
	u, err := s.repo.ToggleStatus(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "toggle user status", id)
	}
	return u, nil
}

func requireAdmin(claims *auth.Claims) error {
	if claims == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if !claims.IsAdmin() {
		return apperr.PermissionDenied("admin role required")
	}
	return nil
}

func requireSelf(claims *auth.Claims, id int64) error {
	if claims == nil {
		return apperr.Unauthenticated("authentication required")
	}
	if !claims.Owns(id) {
		return apperr.PermissionDenied("cannot access user %d", id)
	}
	return nil
}

func notFoundOr(err error, op string, id int64) error {
	if errors.Is(err, store.ErrItemNotFound) {
		return apperr.NotFound("user %d not found", id)
	}
	return apperr.Store(op, err)
}
