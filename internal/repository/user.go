package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/St1cky1/todo-service/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATE unique_violation
const uniqueViolation = "23505"

type UserRepository struct {
	db *pgxpool.Pool
}

var _ IUserRepository = (*UserRepository)(nil)

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// создаем пользователя
func (r *UserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `
	INSERT INTO app_user (username, password_hash, role)
	VALUES ($1, $2, $3)
	RETURNING id, username, password_hash, role, created_at
	`

	var created entity.User
	var role string
	err := r.db.QueryRow(ctx, query, user.Username, user.PasswordHash, string(user.Role)).Scan(
		&created.ID,
		&created.Username,
		&created.PasswordHash,
		&role,
		&created.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, entity.ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	created.Role = entity.Role(role)

	return &created, nil
}

// получаем пользователя по логину
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
	SELECT id, username, password_hash, role, created_at
	FROM app_user
	WHERE username = $1
	`

	var user entity.User
	var role string
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	user.Role = entity.Role(role)

	return &user, nil
}
