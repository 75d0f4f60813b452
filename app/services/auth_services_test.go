package services_test

import (
	"context"
	"os"
	"testing"

	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

func registerReq(username, email string) requests.RegisterRequest {
	return requests.RegisterRequest{
		Username: username,
		Password: "secret123",
		Email:    email,
		Name:     "Lakshmi Devi",
		UserType: "farmer",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := services.NewAuthService(f.users)

	u, err := svc.Register(ctx, registerReq("lakshmi", "lakshmi@farm.test"))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleFarmer, u.UserType)
	assert.NotEqual(t, "secret123", u.Password)

	_, err = svc.Register(ctx, registerReq("lakshmi2", "lakshmi@farm.test"))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Email already registered", err.(*apperr.Error).Message)

	_, err = svc.Register(ctx, registerReq("lakshmi", "other@farm.test"))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Username already taken", err.(*apperr.Error).Message)

	got, err := svc.Authenticate(ctx, "lakshmi", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "lakshmi", "wrong")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
	_, err = svc.Authenticate(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := services.NewAuthService(f.users)

	u, err := svc.Register(ctx, registerReq("gopal", "gopal@farm.test"))
	require.NoError(t, err)

	token, who, err := svc.IssueToken(ctx, "gopal", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.ID)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.Identity(), claims.Identity())
}

func TestProfileAndFarmers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := services.NewUserService(f.users, nil)

	city := "Nashik"
	updated, err := svc.UpdateProfile(ctx, f.farmer, requests.ProfileRequest{City: &city})
	require.NoError(t, err)
	require.NotNil(t, updated.City)
	assert.Equal(t, "Nashik", *updated.City)
	assert.Equal(t, "ravi", updated.Username)

	farmers, page, err := svc.Farmers(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, farmers, 1)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 2, page.LastPage)

	_, err = svc.UpdateProfile(ctx, authIdentity(9999), requests.ProfileRequest{City: &city})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func authIdentity(id uint) auth.Identity {
	return auth.Identity{UserID: id, Role: auth.RoleBuyer}
}
