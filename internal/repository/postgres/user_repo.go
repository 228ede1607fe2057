package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"facturas/internal/domain"
	"facturas/internal/port"
)

const userColumns = `id, email, password_hash, full_name, is_active, created_at, updated_at`

type userRepo struct {
	db *sqlx.DB
}

// NewUserRepo returns the accounts table behind port.UserRepository.
// Emails are stored trimmed and lower-cased so lookups are exact matches.
func NewUserRepo(db *sqlx.DB) port.UserRepository {
	return &userRepo{db: db}
}

func canonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.ID = uuid.New()
	user.Email = canonicalEmail(user.Email)
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :full_name, :is_active, :created_at, :updated_at)`, user)
	switch {
	case isDuplicateKey(err):
		return domain.ErrDuplicateEmail
	case err != nil:
		return fmt.Errorf("userRepo.Create: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "GetByID", `id = $1`, userID)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "GetByEmail", `email = $1`, canonicalEmail(email))
}

// ListActive returns the accounts eligible for reminder emails, oldest first.
func (r *userRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("userRepo.ListActive: %w", err)
	}
	return users, nil
}

func (r *userRepo) getOne(ctx context.Context, op, where string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.%s: %w", op, err)
	}
	return &user, nil
}
