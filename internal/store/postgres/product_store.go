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

var _ store.ProductStore = (*ProductStore)(nil)

const productColumns = `id, empresa_id, nome, descricao, quantidade, preco, data_entrada, ultima_atualizacao`

// ProductStore implements store.ProductStore using PostgreSQL.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore creates a new PostgreSQL-backed product store.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{
		pool: pool,
	}
}

// Create creates a new product in the database.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO produto (nome, descricao, quantidade, preco, empresa_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, data_entrada, ultima_atualizacao
	`

	err := s.pool.QueryRow(ctx, query,
		p.Name,
		p.Description,
		p.Quantity,
		p.Price,
		p.CompanyID,
	).Scan(&p.ProductID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("product_id", p.ProductID).
		Int64("company_id", p.CompanyID).
		Msg("Created product")

	return nil
}

// Get retrieves a product by ID.
func (s *ProductStore) Get(ctx context.Context, productID int64) (*models.Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM produto WHERE id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// ListByCompany returns all products of a company ordered by name.
func (s *ProductStore) ListByCompany(ctx context.Context, companyID int64) ([]*models.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM produto
		WHERE empresa_id = $1
		ORDER BY nome, id
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// Update overwrites the mutable fields of a product and refreshes ultima_atualizacao.
func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE produto SET
			nome = $3,
			descricao = $4,
			quantidade = $5,
			preco = $6,
			ultima_atualizacao = NOW()
		WHERE id = $1 AND empresa_id = $2
		RETURNING data_entrada, ultima_atualizacao
	`

	err := s.pool.QueryRow(ctx, query,
		p.ProductID,
		p.CompanyID,
		p.Name,
		p.Description,
		p.Quantity,
		p.Price,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("product_id", p.ProductID).
		Msg("Updated product")

	return nil
}

// Delete deletes a product scoped to a company.
func (s *ProductStore) Delete(ctx context.Context, companyID, productID int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM produto WHERE id = $1 AND empresa_id = $2`, productID, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrProductNotFound
	}

	log.Debug().
		Int64("product_id", productID).
		Int64("company_id", companyID).
		Msg("Deleted product")

	return nil
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ProductID,
		&p.CompanyID,
		&p.Name,
		&p.Description,
		&p.Quantity,
		&p.Price,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
