package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rookgm/fmmall/internal/logger"
	"github.com/rookgm/fmmall/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is interface for interacting with user-related data
type UserRepository interface {
	// CreateUser inserts new user
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin returns user by login
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	// GetUserByID returns user by id
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

// UserService implements UserService interface
type UserService struct {
	repo UserRepository
}

// NewUserService creates new UserService instance
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates new user with USER role
func (us *UserService) Register(ctx context.Context, login, password string) (*models.User, error) {
	return us.create(ctx, login, password, models.RoleUser)
}

// EnsureAdmin creates administrator if user with login does not exist
func (us *UserService) EnsureAdmin(ctx context.Context, login, password string) error {
	_, err := us.repo.GetUserByLogin(ctx, login)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return err
	}

	if _, err := us.create(ctx, login, password, models.RoleAdmin); err != nil {
		return err
	}

	logger.Log.Info("admin user created", zap.String("login", login))
	return nil
}

func (us *UserService) create(ctx context.Context, login, password string, role models.Role) (*models.User, error) {
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", models.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return us.repo.CreateUser(ctx, &models.User{
		Login:    login,
		Password: string(hash),
		Role:     role,
	})
}
