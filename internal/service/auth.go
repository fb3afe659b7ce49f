package service

import (
	"context"
	"errors"

	"github.com/rookgm/fmmall/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// AuthService implements AuthService interface
type AuthService struct {
	repo  UserRepository
	token TokenService
}

// NewAuthService creates new AuthService instance
func NewAuthService(repo UserRepository, token TokenService) *AuthService {
	return &AuthService{
		repo:  repo,
		token: token,
	}
}

// Login checks user credentials and returns auth token
func (as *AuthService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := as.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return "", models.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", models.ErrInvalidCredentials
	}

	return as.token.CreateToken(user)
}
