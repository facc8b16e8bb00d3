package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingTokens struct{}

func (failingTokens) GenerateAccessToken(int64, string, string, *int64) (string, time.Time, error) {
	return "", time.Time{}, errors.New("signer offline")
}

func newAuthFixture(t *testing.T) (*fakeStore, AuthService, *utils.TokenIssuer, models.Restaurant) {
	t.Helper()
	store := newFakeStore()
	plan := store.addPlan("Basic", "1", 30, 1)
	r := store.addRestaurant(plan.ID, "0", testNow)
	issuer, err := utils.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	return store, NewAuthService(store, store, issuer), issuer, r
}

func TestVendorLoginCarriesRestaurant(t *testing.T) {
	store, svc, issuer, r := newAuthFixture(t)
	ctx := context.Background()

	user, err := svc.CreateVendorUser(ctx, r.ID, CreateVendorUserRequest{Username: "owner", Password: "s3cret-pass", FullName: "Owner"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleVendor, user.Role)
	assert.Empty(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", store.hashes[user.ID])

	resp, err := svc.Login(ctx, LoginRequest{Username: "owner", Password: "s3cret-pass"})
	require.NoError(t, err)
	claims, err := issuer.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleVendor, claims.Role)
	require.NotNil(t, claims.RestaurantID)
	assert.Equal(t, r.ID, *claims.RestaurantID)

	_, err = svc.Login(ctx, LoginRequest{Username: "owner", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginRequest{Username: "ghost", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.CreateVendorUser(ctx, r.ID, CreateVendorUserRequest{Username: "owner", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrUsernameExists)
	_, err = svc.CreateVendorUser(ctx, r.ID, CreateVendorUserRequest{Username: "short", Password: "123"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateVendorUser(ctx, 999, CreateVendorUserRequest{Username: "lost", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	store, svc, _, r := newAuthFixture(t)
	ctx := context.Background()
	user, err := svc.CreateVendorUser(ctx, r.ID, CreateVendorUserRequest{Username: "temp", Password: "password1"})
	require.NoError(t, err)

	u := store.users[user.ID]
	u.IsActive = false
	store.users[user.ID] = u

	_, err = svc.Login(ctx, LoginRequest{Username: "temp", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginTokenFailure(t *testing.T) {
	store := newFakeStore()
	svc := NewAuthService(store, store, failingTokens{})
	created, err := svc.EnsureAdminUser(context.Background(), "root", "rootroot")
	require.NoError(t, err)
	require.True(t, created)

	_, err = svc.Login(context.Background(), LoginRequest{Username: "root", Password: "rootroot"})
	assert.ErrorIs(t, err, ErrTokenGeneration)
}

func TestEnsureAdminUserIsIdempotent(t *testing.T) {
	store, svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.EnsureAdminUser(ctx, "admin", "admin-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdminUser(ctx, "admin", "different")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, store.users, 1)

	resp, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	profile, err := svc.GetUserProfile(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", profile.Username)
	_, err = svc.GetUserProfile(ctx, 4242)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
