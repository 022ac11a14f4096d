package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/St1cky1/todo-service/internal/infrastructure/auth"
	"github.com/St1cky1/todo-service/internal/repository"
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
}

type TokenIssuer interface {
	GenerateAccessToken(username string, role entity.Role) (string, error)
}

type AuthService struct {
	userRepo repository.IUserRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   *slog.Logger
}

func NewAuthService(
	userRepo repository.IUserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register создает обычного пользователя. Роль ADMIN через регистрацию
// получить нельзя.
func (s *AuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error) {
	return s.createUser(ctx, req.Username, req.Password, entity.RoleUser)
}

// Login проверяет пароль и выпускает access token
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest) (*entity.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !s.hasher.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, entity.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateAccessToken(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &entity.LoginResponse{User: user, AccessToken: token}, nil
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}
	if existing != nil {
		if existing.Role != entity.RoleAdmin {
			s.logger.Warn("bootstrap admin username belongs to a regular user", "username", username)
		}
		return nil
	}

	if _, err := s.createUser(ctx, username, password, entity.RoleAdmin); err != nil {
		if errors.Is(err, entity.ErrUsernameTaken) {
			return nil
		}
		return err
	}
	s.logger.Info("bootstrap admin created", "username", username)
	return nil
}

func (s *AuthService) createUser(ctx context.Context, username, password string, role entity.Role) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &entity.ValidationError{Field: "username"}
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			return nil, &entity.ValidationError{Field: "password", Message: err.Error()}
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &entity.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
