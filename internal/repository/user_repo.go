package repository

import (
	"go-pos-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search   string // username, email or full name
	RoleCode string // "" or "all" = no filter
	IsActive *bool
	Limit    int
	Offset   int
}

type UserRepository interface {
	FindByUsername(username string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindByID(id uuid.UUID) (*model.User, error)
	Create(user *model.User) error
	Update(user *model.User) error
	Deactivate(id uuid.UUID, deactivatedBy string) error
	UpdateLastLogin(id uuid.UUID) error
	List(filter UserFilter) ([]model.User, int64, error)
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Role").Preload("Role.Privileges").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Role").Preload("Role.Privileges").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Role").Preload("Role.Privileges").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepo) Update(user *model.User) error {
	return r.db.Save(user).Error
}

// Deactivate flips the active flag; users are never hard-deleted so their
// sales keep a valid owner.
func (r *userRepo) Deactivate(id uuid.UUID, deactivatedBy string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_by": deactivatedBy,
		}).Error
}

func (r *userRepo) UpdateLastLogin(id uuid.UUID) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *userRepo) List(filter UserFilter) ([]model.User, int64, error) {
	q := r.db.Model(&model.User{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR LOWER(full_name) LIKE LOWER(?)",
			pattern, pattern, pattern)
	}
	if filter.RoleCode != "" && filter.RoleCode != "all" {
		q = q.Joins("JOIN roles ON roles.id = users.role_id").Where("roles.code = ?", filter.RoleCode)
	}
	if filter.IsActive != nil {
		q = q.Where("users.is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := q.Preload("Role").Preload("Role.Privileges").
		Order("users.created_at DESC").
		Offset(filter.Offset).Limit(filter.Limit).
		Find(&users).Error
	return users, total, err
}
