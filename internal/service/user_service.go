package service

import (
	"strings"

	"github.com/google/uuid"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/pkg/validator"
)

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	RoleCode string `json:"role" validate:"required"`
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=4"`
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	RoleCode *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	Password *string `json:"password" validate:"omitempty,min=4"`
}

type UserService interface {
	CreateUser(req *CreateUserRequest, createdBy uuid.UUID) (*model.UserResponse, error)
	GetUser(id uuid.UUID) (*model.UserResponse, error)
	UpdateUser(id uuid.UUID, req *UpdateUserRequest, updatedBy uuid.UUID) (*model.UserResponse, error)
	DeactivateUser(id uuid.UUID, actorID uuid.UUID) error
	ListUsers(filter repository.UserFilter) ([]model.UserResponse, int64, error)
	UpdateProfile(userID uuid.UUID, req *UpdateProfileRequest) (*model.UserResponse, error)
	GetRoles() ([]model.Role, error)
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{userRepo: userRepo, roleRepo: roleRepo}
}

func (s *userService) CreateUser(req *CreateUserRequest, createdBy uuid.UUID) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError("%s", validator.FirstError(errs))
	}

	username := strings.TrimSpace(req.Username)
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameExists
	}
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, ErrEmailExists
	}

	role, err := s.roleRepo.FindByCode(strings.ToUpper(req.RoleCode))
	if err != nil {
		return nil, newValidationError("invalid role: %s", req.RoleCode)
	}

	user := &model.User{
		Username: username,
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &role.ID,
		IsActive: true,
	}
	user.CreatedBy = createdBy.String()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	created, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return nil, err
	}
	resp := created.ToResponse()
	return &resp, nil
}

func (s *userService) GetUser(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) UpdateUser(id uuid.UUID, req *UpdateUserRequest, updatedBy uuid.UUID) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError("%s", validator.FirstError(errs))
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != user.Username {
			if existing, err := s.userRepo.FindByUsername(username); err == nil && existing.ID != user.ID {
				return nil, ErrUsernameExists
			}
			user.Username = username
		}
	}
	if req.Email != nil && *req.Email != user.Email {
		if existing, err := s.userRepo.FindByEmail(*req.Email); err == nil && existing.ID != user.ID {
			return nil, ErrEmailExists
		}
		user.Email = *req.Email
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	if req.RoleCode != nil {
		role, err := s.roleRepo.FindByCode(strings.ToUpper(*req.RoleCode))
		if err != nil {
			return nil, newValidationError("invalid role: %s", *req.RoleCode)
		}
		user.RoleID = &role.ID
		user.Role = role
	}
	if req.IsActive != nil {
		if !*req.IsActive && user.ID == updatedBy {
			return nil, ErrSelfDeactivation
		}
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = updatedBy.String()

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return nil, err
	}
	resp := updated.ToResponse()
	return &resp, nil
}

func (s *userService) DeactivateUser(id uuid.UUID, actorID uuid.UUID) error {
	if id == actorID {
		return ErrSelfDeactivation
	}
	if _, err := s.userRepo.FindByID(id); err != nil {
		return ErrUserNotFound
	}
	return s.userRepo.Deactivate(id, actorID.String())
}

func (s *userService) ListUsers(filter repository.UserFilter) ([]model.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToResponse())
	}
	return responses, total, nil
}

func (s *userService) UpdateProfile(userID uuid.UUID, req *UpdateProfileRequest) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, newValidationError("%s", validator.FirstError(errs))
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != user.Username {
			if existing, err := s.userRepo.FindByUsername(username); err == nil && existing.ID != user.ID {
				return nil, ErrUsernameExists
			}
			user.Username = username
		}
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	user.UpdatedBy = userID.String()

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return nil, err
	}
	resp := updated.ToResponse()
	return &resp, nil
}

func (s *userService) GetRoles() ([]model.Role, error) {
	return s.roleRepo.FindAll()
}
