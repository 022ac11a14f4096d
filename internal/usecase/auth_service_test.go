package usecase

import (
	"context"
	"testing"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/St1cky1/todo-service/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubTokenIssuer struct{}

func (stubTokenIssuer) GenerateAccessToken(username string, role entity.Role) (string, error) {
	return "token-" + username + "-" + string(role), nil
}

// userStore is an in-memory IUserRepository keyed by username.
func userStore() *MockUserRepository {
	users := map[string]*entity.User{}
	return &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *entity.User) (*entity.User, error) {
			if _, ok := users[user.Username]; ok {
				return nil, entity.ErrUsernameTaken
			}
			created := *user
			created.ID = int64(len(users) + 1)
			users[user.Username] = &created
			return &created, nil
		},
		GetByUsernameFunc: func(ctx context.Context, username string) (*entity.User, error) {
			return users[username], nil
		},
	}
}

func newTestAuthService(repo *MockUserRepository) *AuthService {
	return NewAuthService(repo, auth.NewPasswordManagerWithCost(bcrypt.MinCost), stubTokenIssuer{}, discardLogger())
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(userStore())

	user, err := service.Register(ctx, &entity.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	resp, err := service.Login(ctx, &entity.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "token-alice-USER", resp.AccessToken)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name    string
		req     *entity.RegisterRequest
		wantErr error
	}{
		{name: "empty username", req: &entity.RegisterRequest{Username: " ", Password: "password123"}, wantErr: entity.ErrValidationFailed},
		{name: "short password", req: &entity.RegisterRequest{Username: "bob", Password: "short"}, wantErr: entity.ErrValidationFailed},
		{name: "duplicate username", req: &entity.RegisterRequest{Username: "taken", Password: "password123"}, wantErr: entity.ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestAuthService(userStore())
			_, err := service.Register(context.Background(), &entity.RegisterRequest{Username: "taken", Password: "password123"})
			require.NoError(t, err)

			_, err = service.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	service := newTestAuthService(userStore())
	_, err := service.Register(ctx, &entity.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = service.Login(ctx, &entity.LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, entity.ErrInvalidCredentials)

	_, err = service.Login(ctx, &entity.LoginRequest{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, entity.ErrInvalidCredentials)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := userStore()
	service := newTestAuthService(repo)

	require.NoError(t, service.EnsureAdmin(ctx, "root", "rootpassword"))
	require.NoError(t, service.EnsureAdmin(ctx, "root", "rootpassword"))

	adminUser, err := repo.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, adminUser.Role)

	resp, err := service.Login(ctx, &entity.LoginRequest{Username: "root", Password: "rootpassword"})
	require.NoError(t, err)
	assert.Equal(t, "token-root-ADMIN", resp.AccessToken)
}
