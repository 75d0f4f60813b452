package services

import (
	"context"
	"errors"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/auth"
)

const (
	msgEmailTaken         = "Email already registered"
	msgUsernameTaken      = "Username already taken"
	msgInvalidCredentials = "Invalid credentials"
)

type AuthService struct {
	users *repositories.UserRepository
}

func NewAuthService(users *repositories.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates an account with a hashed password.
func (s *AuthService) Register(ctx context.Context, in requests.RegisterRequest) (*models.User, error) {
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, apperr.Validation(msgEmailTaken, map[string]string{"email": msgEmailTaken})
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return nil, apperr.Validation(msgUsernameTaken, map[string]string{"username": msgUsernameTaken})
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		Username: in.Username,
		Password: hash,
		Email:    in.Email,
		Name:     in.Name,
		UserType: in.Role(),
		Phone:    in.Phone,
		Address:  in.Address,
		City:     in.City,
		State:    in.State,
		Pincode:  in.Pincode,
		About:    in.About,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost a race with a concurrent registration
			return nil, apperr.Validation("Username or email already registered", nil)
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// Authenticate returns the user when username and password match. Every
// failure produces the same 401.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		auth.BurnPasswordCheck(password)
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !auth.CheckPassword(user.Password, password) {
		return nil, apperr.Unauthenticated(msgInvalidCredentials)
	}
	return user, nil
}

// IssueToken authenticates and returns a signed bearer token.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}
	token, err := auth.GenerateToken(user.Identity())
	if err != nil {
		return "", nil, apperr.Internal(err)
	}
	return token, user, nil
}

// Me loads the caller's account.
func (s *AuthService) Me(ctx context.Context, id auth.Identity) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}
