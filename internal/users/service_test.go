package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-storefront/internal/apperr"
	"github.com/imrishuroy/go-storefront/internal/auth"
	"github.com/imrishuroy/go-storefront/internal/memstore"
	"github.com/imrishuroy/go-storefront/internal/users"
	"github.com/imrishuroy/go-storefront/internal/validation"
)

var admin = &auth.Claims{UserID: 100, Username: "root", Role: auth.RoleAdmin}

func newService() (*users.Service, *auth.Issuer) {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return users.NewService(memstore.NewUsers(), issuer, validation.New(), zap.NewNop()), issuer
}

func register(t *testing.T, s *users.Service, username string) *users.User {
	t.Helper()
	u, err := s.Register(context.Background(), users.RegisterInput{Username: username, Password: "correct-horse", Email: username + "@example.com"})
	require.NoError(t, err)
	return u
}

func claimsOf(u *users.User) *auth.Claims {
	return &auth.Claims{UserID: u.UserID, Username: u.Username, Role: u.Role}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s, issuer := newService()

	u := register(t, s, "Jane")
	assert.Equal(t, "jane", u.Username)
	assert.Equal(t, auth.RoleUser, u.Role)
	assert.True(t, u.Status)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err := s.Register(ctx, users.RegisterInput{Username: "JANE", Password: "another-pass"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	res, err := s.Login(ctx, users.LoginInput{Username: "jane", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := issuer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, claims.UserID)
	assert.Equal(t, auth.RoleUser, claims.Role)

	_, err = s.Login(ctx, users.LoginInput{Username: "jane", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = s.Login(ctx, users.LoginInput{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestLogin_DisabledAccount(t *testing.T) {
	ctx := context.Background()
	s, _ := newService()
	u := register(t, s, "jane")

	toggled, err := s.ToggleStatus(ctx, u.UserID, admin)
	require.NoError(t, err)
	assert.False(t, toggled.Status)

	_, err = s.Login(ctx, users.LoginInput{Username: "jane", Password: "correct-horse"})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestRegister_Validation(t *testing.T) {
	s, _ := newService()
	_, err := s.Register(context.Background(), users.RegisterInput{Username: "a b", Password: "short", Email: "nope"})
	require.ErrorIs(t, err, apperr.ErrValidation)
	e, _ := apperr.As(err)
	assert.Equal(t, []string{"email", "password", "username"}, e.Fields)
}

func TestAdminCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := newService()
	jane := register(t, s, "jane")

	in := users.CreateInput{RegisterInput: users.RegisterInput{Username: "ops", Password: "long-enough"}, Role: auth.RoleAdmin}
	_, err := s.Create(ctx, in, claimsOf(jane))
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	u, err := s.Create(ctx, in, admin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, u.Role)

	in.Role = "root"
	in.Username = "ops2"
	_, err = s.Create(ctx, in, admin)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestSelfOrAdminAccess(t *testing.T) {
	ctx := context.Background()
	s, _ := newService()
	jane := register(t, s, "jane")
	joe := register(t, s, "joe")

	got, err := s.Get(ctx, jane.UserID, claimsOf(jane))
	require.NoError(t, err)
	assert.Equal(t, "jane", got.Username)

	_, err = s.Get(ctx, jane.UserID, claimsOf(joe))
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.Get(ctx, jane.UserID, nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = s.Get(ctx, 999, admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	updated, err := s.Update(ctx, jane.UserID, users.UpdateInput{FirstName: ptr(" Jane "), Telephone: ptr("0900")}, claimsOf(jane))
	require.NoError(t, err)
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, "0900", updated.Telephone)

	_, err = s.Update(ctx, jane.UserID, users.UpdateInput{FirstName: ptr("x")}, claimsOf(joe))
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.Update(ctx, 999, users.UpdateInput{FirstName: ptr("x")}, admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdminOnlyOperations(t *testing.T) {
	ctx := context.Background()
	s, _ := newService()
	jane := register(t, s, "jane")
	register(t, s, "joe")

	_, err := s.List(ctx, claimsOf(jane))
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	all, err := s.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "jane", all[0].Username)

	_, err = s.Delete(ctx, jane.UserID, claimsOf(jane))
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = s.ToggleStatus(ctx, jane.UserID, claimsOf(jane))
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = s.Delete(ctx, jane.UserID, admin)
	require.NoError(t, err)
	_, err = s.Delete(ctx, jane.UserID, admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.ToggleStatus(ctx, jane.UserID, admin)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }
