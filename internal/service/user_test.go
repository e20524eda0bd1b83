package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainsofcommerce/events-api/internal/memstore"
	"github.com/captainsofcommerce/events-api/internal/model"
	"github.com/captainsofcommerce/events-api/internal/repository"
	"github.com/captainsofcommerce/events-api/internal/service"
)

func TestSyncUserCreatesAccount(t *testing.T) {
	store := memstore.New()
	svc := service.NewUserService(store.Users())

	user, err := svc.SyncUser(context.Background(), "auth0|abc", "pat@example.com", "Pat", "Lee")
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", user.ID)
	assert.Equal(t, "pat@example.com", user.Email)
	assert.Equal(t, model.RoleDonor, user.Role)
}

func TestSyncUserIsIdempotent(t *testing.T) {
	store := memstore.New()
	svc := service.NewUserService(store.Users())
	ctx := context.Background()

	first, err := svc.SyncUser(ctx, "auth0|abc", "pat@example.com", "Pat", "Lee")
	require.NoError(t, err)

	second, err := svc.SyncUser(ctx, "auth0|abc", "pat@example.com", "Pat", "Lee")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
}

func TestSyncUserRefreshesEmailOnLogin(t *testing.T) {
	store := memstore.New()
	svc := service.NewUserService(store.Users())
	ctx := context.Background()

	_, err := svc.SyncUser(ctx, "auth0|abc", "old@example.com", "Pat", "Lee")
	require.NoError(t, err)

	user, err := svc.SyncUser(ctx, "auth0|abc", "new@example.com", "Pat", "Lee")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
}

func TestSyncUserAdoptsAccountByEmail(t *testing.T) {
	store := memstore.New()
	svc := service.NewUserService(store.Users())
	ctx := context.Background()

	// An account created before subject-keying, with history attached.
	store.SeedUser(model.User{ID: "legacy-1", Email: "pat@example.com", Role: model.RoleStaff})
	eventID := seedEvent(t, store, nil, true)
	_, err := store.Registrations().Register(ctx, eventID, "legacy-1")
	require.NoError(t, err)

	user, err := svc.SyncUser(ctx, "auth0|abc", "pat@example.com", "Pat", "Lee")
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", user.ID)
	assert.Equal(t, model.RoleStaff, user.Role)

	// The registration followed the adopted account.
	reg, err := store.Registrations().GetByEventAndUser(ctx, eventID, "auth0|abc")
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", reg.UserID)

	_, err = store.Users().GetByID(ctx, "legacy-1")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestSyncUserValidation(t *testing.T) {
	store := memstore.New()
	svc := service.NewUserService(store.Users())
	ctx := context.Background()

	_, err := svc.SyncUser(ctx, "", "pat@example.com", "Pat", "Lee")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	_, err = svc.SyncUser(ctx, "auth0|abc", "", "Pat", "Lee")
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestGetUser(t *testing.T) {
	store := memstore.New()
	svc := service.NewUserService(store.Users())
	store.SeedUser(model.User{ID: "user-1", Email: "user-1@example.com"})

	user, err := svc.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1@example.com", user.Email)

	_, err = svc.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
