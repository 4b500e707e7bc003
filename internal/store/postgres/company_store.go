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

var _ store.CompanyStore = (*CompanyStore)(nil)

// CompanyStore implements store.CompanyStore using PostgreSQL.
type CompanyStore struct {
	pool *pgxpool.Pool
}

// NewCompanyStore creates a new PostgreSQL-backed company store.
// It shares the connection pool with other stores.
func NewCompanyStore(pool *pgxpool.Pool) *CompanyStore {
	return &CompanyStore{
		pool: pool,
	}
}

// CreateWithAdmin inserts the company and its first admin in one transaction.
func (s *CompanyStore) CreateWithAdmin(ctx context.Context, company *models.Company, admin *models.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	err = tx.QueryRow(ctx, `INSERT INTO empresa (nome) VALUES ($1) RETURNING id`, company.Name).
		Scan(&company.CompanyID)
	if err != nil {
		if isUniqueViolation(err) {
			return mapPostgresError(err)
		}
		return fmt.Errorf("failed to create company: %w", err)
	}

	admin.CompanyID = company.CompanyID
	admin.IsAdmin = true

	err = tx.QueryRow(ctx, `
		INSERT INTO usuario (nome, email, login, senha_hash, empresa_id, is_admin)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, criado_em
	`,
		admin.Name,
		admin.Email,
		admin.Login,
		admin.PasswordHash,
		admin.CompanyID,
	).Scan(&admin.UserID, &admin.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return mapPostgresError(err)
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}

	log.Debug().
		Int64("company_id", company.CompanyID).
		Int64("user_id", admin.UserID).
		Str("name", company.Name).
		Msg("Created company with admin")

	return nil
}

// Get retrieves a company by ID.
func (s *CompanyStore) Get(ctx context.Context, companyID int64) (*models.Company, error) {
	return s.getBy(ctx, `SELECT id, nome FROM empresa WHERE id = $1`, companyID)
}

// GetByName retrieves a company by name.
func (s *CompanyStore) GetByName(ctx context.Context, name string) (*models.Company, error) {
	return s.getBy(ctx, `SELECT id, nome FROM empresa WHERE nome = $1`, name)
}

func (s *CompanyStore) getBy(ctx context.Context, query string, arg any) (*models.Company, error) {
	var company models.Company
	err := s.pool.QueryRow(ctx, query, arg).Scan(&company.CompanyID, &company.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}

// Delete deletes a company by ID.
// This will cascade-delete all users and products via FK constraint.
func (s *CompanyStore) Delete(ctx context.Context, companyID int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM empresa WHERE id = $1`, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrCompanyNotFound
	}

	log.Info().
		Int64("company_id", companyID).
		Msg("Deleted company (and cascade-deleted all users and products)")

	return nil
}
