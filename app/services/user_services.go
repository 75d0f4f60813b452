package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/farmchain/farmchain/pkg/storage"
)

type UserService struct {
	users *repositories.UserRepository
	disk  storage.Disk
}

func NewUserService(users *repositories.UserRepository, disk storage.Disk) *UserService {
	return &UserService{users: users, disk: disk}
}

// UpdateProfile applies the profile fields present in in.
func (s *UserService) UpdateProfile(ctx context.Context, id auth.Identity, in requests.ProfileRequest) (*models.User, error) {
	user, err := s.users.Update(ctx, id.UserID, in.Fields())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// SetProfileImage stores an uploaded image and points profileImage at it.
func (s *UserService) SetProfileImage(ctx context.Context, id auth.Identity, r io.Reader) (*models.User, error) {
	path, err := saveImage(ctx, s.disk, fmt.Sprintf("users/%d", id.UserID), r)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Update(ctx, id.UserID, map[string]interface{}{"profile_image": s.disk.URL(path)})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// Farmers pages through farmer profiles.
func (s *UserService) Farmers(ctx context.Context, page, perPage int) ([]models.User, orm.Pagination, error) {
	users, p, err := s.users.ListByType(ctx, auth.RoleFarmer, page, perPage)
	if err != nil {
		return nil, p, apperr.Internal(err)
	}
	return users, p, nil
}

func saveImage(ctx context.Context, disk storage.Disk, dir string, r io.Reader) (string, error) {
	path, err := storage.SaveImage(ctx, disk, dir, r)
	switch {
	case errors.Is(err, storage.ErrImageTooLarge), errors.Is(err, storage.ErrUnsupportedImage):
		return "", apperr.Validation("Invalid image", map[string]string{"image": imageMessage(err)})
	case err != nil:
		return "", apperr.Internal(err)
	}
	return path, nil
}

func imageMessage(err error) string {
	if errors.Is(err, storage.ErrImageTooLarge) {
		return "The image may not be greater than 5 MiB."
	}
	return "The image must be a jpeg, png or webp file."
}
