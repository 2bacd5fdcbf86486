package services

import (
	"testing"
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories/repofakes"
	"gym_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*repofakes.Store, AuthService) {
	t.Helper()
	utils.SetJWTSecret("test-secret")
	store := repofakes.NewStore()
	return store, NewAuthService(repofakes.NewAuthRepository(store), nil, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	store, svc := newAuthFixture(t)

	user, err := svc.RegisterUser(RegisterUserRequest{Username: " recepcion ", Password: "s3cret-pass", Email: strPtr("Desk@Gym.pe")})
	require.NoError(t, err)
	assert.Equal(t, "recepcion", user.Username)
	assert.Equal(t, "desk@gym.pe", *user.Email)
	assert.Equal(t, models.RoleStaff, user.RoleName())
	assert.Empty(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", store.Hashes[user.ID])

	resp, err := svc.LoginUser(LoginRequest{Username: "recepcion", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := utils.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)

	_, err = svc.LoginUser(LoginRequest{Username: "recepcion", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LoginUser(LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterUser_Validation(t *testing.T) {
	_, svc := newAuthFixture(t)

	_, err := svc.RegisterUser(RegisterUserRequest{Username: "", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrUserValidation)

	_, err = svc.RegisterUser(RegisterUserRequest{Username: "a", Password: "short"})
	assert.ErrorIs(t, err, ErrUserValidation)

	_, err = svc.RegisterUser(RegisterUserRequest{Username: "a", Password: "long-enough", RoleName: "Owner"})
	assert.ErrorIs(t, err, ErrRoleNotFound)

	_, err = svc.RegisterUser(RegisterUserRequest{Username: "a", Password: "long-enough"})
	require.NoError(t, err)
	_, err = svc.RegisterUser(RegisterUserRequest{Username: "a", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLogin_InactiveUserRejected(t *testing.T) {
	store, svc := newAuthFixture(t)
	user, err := svc.RegisterUser(RegisterUserRequest{Username: "old", Password: "long-enough"})
	require.NoError(t, err)
	store.Users[user.ID].IsActive = false

	_, err = svc.LoginUser(LoginRequest{Username: "old", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureAdmin(t *testing.T) {
	store, svc := newAuthFixture(t)

	require.NoError(t, svc.EnsureAdmin("", ""))
	assert.Empty(t, store.Users)

	require.NoError(t, svc.EnsureAdmin("admin", "admin-pass"))
	require.Len(t, store.Users, 1)
	for _, u := range store.Users {
		assert.Equal(t, models.RoleAdmin, u.RoleName())
	}

	// Second start leaves the account alone.
	require.NoError(t, svc.EnsureAdmin("admin", "another-pass"))
	assert.Len(t, store.Users, 1)
	_, err := svc.LoginUser(LoginRequest{Username: "admin", Password: "admin-pass"})
	assert.NoError(t, err)
}
