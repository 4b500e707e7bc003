package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
)

var _ store.UserStore = (*UserStore)(nil)

const userColumns = `id, empresa_id, nome, email, login, senha_hash, is_admin, criado_em`

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{
		pool: pool,
	}
}

// Create creates a new user in the database.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO usuario (nome, email, login, senha_hash, empresa_id, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, criado_em
	`

	err := s.pool.QueryRow(ctx, query,
		u.Name,
		u.Email,
		u.Login,
		u.PasswordHash,
		u.CompanyID,
		u.IsAdmin,
	).Scan(&u.UserID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("user_id", u.UserID).
		Int64("company_id", u.CompanyID).
		Str("login", u.Login).
		Bool("is_admin", u.IsAdmin).
		Msg("Created user")

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID int64) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM usuario WHERE id = $1`, userID)
}

// GetInCompany retrieves a user by ID scoped to a company.
func (s *UserStore) GetInCompany(ctx context.Context, companyID, userID int64) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM usuario WHERE id = $1 AND empresa_id = $2`, userID, companyID)
}

// GetByLogin retrieves a user by login handle.
func (s *UserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM usuario WHERE login = $1`, login)
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM usuario WHERE email = $1`, email)
}

// PrimaryAdmin returns the admin with the lowest ID in the company.
func (s *UserStore) PrimaryAdmin(ctx context.Context, companyID int64) (*models.User, error) {
	return s.getOne(ctx, `
		SELECT `+userColumns+`
		FROM usuario
		WHERE empresa_id = $1 AND is_admin
		ORDER BY id
		LIMIT 1
	`, companyID)
}

// ListByCompany returns all users of a company ordered by ID.
func (s *UserStore) ListByCompany(ctx context.Context, companyID int64) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM usuario WHERE empresa_id = $1 ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Update overwrites the mutable fields of a user.
func (s *UserStore) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE usuario SET
			nome = $3,
			email = $4,
			login = $5,
			senha_hash = $6,
			is_admin = $7
		WHERE id = $1 AND empresa_id = $2
	`

	result, err := s.pool.Exec(ctx, query,
		u.UserID,
		u.CompanyID,
		u.Name,
		u.Email,
		u.Login,
		u.PasswordHash,
		u.IsAdmin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return mapPostgresError(err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}

	log.Debug().
		Int64("user_id", u.UserID).
		Msg("Updated user")

	return nil
}

// Delete deletes a user scoped to a company.
func (s *UserStore) Delete(ctx context.Context, companyID, userID int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM usuario WHERE id = $1 AND empresa_id = $2`, userID, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}

	log.Debug().
		Int64("user_id", userID).
		Int64("company_id", companyID).
		Msg("Deleted user")

	return nil
}

func (s *UserStore) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.UserID,
		&u.CompanyID,
		&u.Name,
		&u.Email,
		&u.Login,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
