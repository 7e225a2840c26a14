package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/resource-service/internal/apperrors"
	"github.com/Dan9191/resource-service/internal/models"
	"github.com/Dan9191/resource-service/internal/validator"
)

// CreateUserInput is the signup payload
type CreateUserInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=6,maxbytes=72"`
}

// UpdateUserInput is a partial user update; nil fields are left unchanged
type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UserService handles user business logic
type UserService struct {
	store   UserStore
	actions *ActionLogger
	log     *logrus.Logger
	cost    int
}

// NewUserService initializes a new user service
func NewUserService(store UserStore, actions *ActionLogger, log *logrus.Logger) *UserService {
	return &UserService{store: store, actions: actions, log: log, cost: bcrypt.DefaultCost}
}

// Create registers a new user with a hashed password
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validator.New().Struct(in).Err(); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User created: %s", user.Username)
	s.actions.Log(ctx, fmt.Sprintf("Created user %s", user.Username))
	return user, nil
}

// List returns all users without password hashes
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// Update applies a partial update. The password is rehashed only when supplied.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error) {
	in.Username = trimmed(in.Username)
	in.Email = trimmed(in.Email)

	v := validator.New()
	if in.Username != nil {
		v.Required("username", *in.Username)
	}
	if in.Email != nil {
		v.Var("email", *in.Email, "email")
	}
	if in.Password != nil {
		v.Var("password", *in.Password, validator.PasswordRules)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	patch := models.UserPatch{Username: in.Username, Email: in.Email}
	if in.Password != nil {
		hash, err := s.hash(*in.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.actions.Log(ctx, fmt.Sprintf("Updated user %d", id))
	return user, nil
}

// Delete removes a user that owns no resources
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Infof("User deleted: %d", id)
	s.actions.Log(ctx, fmt.Sprintf("Deleted user %d", id))
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperrors.Internal("failed to hash password", err)
	}
	return string(hashed), nil
}
