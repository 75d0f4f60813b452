package repositories

import (
	"context"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/orm"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *orm.Query
}

func NewUserRepository(db *orm.Query) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where(where, arg).First(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Create inserts user. A unique-key clash surfaces as ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user))
}

// Update applies fields to the user and returns the fresh row.
func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	if len(fields) > 0 {
		if _, err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields); err != nil {
			return nil, translate(err)
		}
	}
	return r.FindByID(ctx, id)
}

// ListByType pages through users of one role, ordered by id.
func (r *UserRepository) ListByType(ctx context.Context, role auth.Role, page, perPage int) ([]models.User, orm.Pagination, error) {
	var users []models.User
	p, err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("user_type = ?", role).
		Order("id ASC").
		GetWithPagination(&users, page, perPage)
	return users, p, err
}
