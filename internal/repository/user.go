package repository

import (
	"context"

	"threadboard/internal/models"
	"threadboard/internal/observability"

	"gorm.io/gorm"
)

// UserRepository persists forum members and their roles.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	SetAvatar(ctx context.Context, id uint, url string) error
	Count(ctx context.Context) (int64, error)
}

func trackUserQuery(op string) func() { return observability.TrackQuery(op, "users") }

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// findOne loads the single user matching cond; key names the lookup in NotFound errors.
func (r *userRepository) findOne(ctx context.Context, key any, cond string, args ...any) (*models.User, error) {
	defer trackUserQuery("get")()
	user := new(models.User)
	if err := r.db.WithContext(ctx).Where(cond, args...).Take(user).Error; err != nil {
		return nil, lookupError(err, "User", key)
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.findOne(ctx, id, "id = ?", id)
}

// GetByEmail expects an already normalised address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, email, "email = ?", email)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer trackUserQuery("create")()
	err := r.db.WithContext(ctx).Create(user).Error
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return models.NewConflictError("User already exists")
	default:
		return models.NewInternalError(err)
	}
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	return r.updateColumn(ctx, id, "role", role)
}

func (r *userRepository) SetAvatar(ctx context.Context, id uint, url string) error {
	return r.updateColumn(ctx, id, "avatar", url)
}

func (r *userRepository) updateColumn(ctx context.Context, id uint, column string, value any) error {
	defer trackUserQuery("update")()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (n int64, err error) {
	defer trackUserQuery("count")()
	if err = r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
