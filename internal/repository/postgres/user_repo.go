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

	"facturaia/internal/domain"
	"facturaia/internal/port"
)

type userRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new PostgreSQL-backed UserRepository.
func NewUserRepo(db *sqlx.DB) port.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	user.ID = uuid.New()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	query := `INSERT INTO users (id, company_id, email, password_hash, first_name, last_name,
		role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.CompanyID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "uq_users_email") {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("userRepo.Create: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, scope *uuid.UUID, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		"SELECT * FROM users WHERE id = $1 AND ($2::uuid IS NULL OR company_id = $2)", id, scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user,
		"SELECT * FROM users WHERE email = $1", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", err)
	}
	return &user, nil
}

func (r *userRepo) List(ctx context.Context, scope *uuid.UUID, offset, limit int) ([]domain.User, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM users WHERE ($1::uuid IS NULL OR company_id = $1)", scope)
	if err != nil {
		return nil, 0, fmt.Errorf("userRepo.List count: %w", err)
	}

	var users []domain.User
	err = r.db.SelectContext(ctx, &users,
		`SELECT * FROM users WHERE ($1::uuid IS NULL OR company_id = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		scope, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("userRepo.List: %w", err)
	}
	return users, total, nil
}

func (r *userRepo) Update(ctx context.Context, scope *uuid.UUID, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	query := `UPDATE users SET email = $1, first_name = $2, last_name = $3, role = $4,
		is_active = $5, password_hash = $6, updated_at = $7
		WHERE id = $8 AND ($9::uuid IS NULL OR company_id = $9)`
	result, err := r.db.ExecContext(ctx, query,
		user.Email, user.FirstName, user.LastName, user.Role, user.IsActive, user.PasswordHash,
		user.UpdatedAt, user.ID, scope)
	if err != nil {
		if isUniqueViolation(err, "uq_users_email") {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("userRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, scope *uuid.UUID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM users WHERE id = $1 AND ($2::uuid IS NULL OR company_id = $2)", id, scope)
	if err != nil {
		return fmt.Errorf("userRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
