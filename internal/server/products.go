package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/forms"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/store"
	"github.com/wolfeidau/stockroom/internal/telemetry"
)

// User-visible product messages.
const (
	MsgProductNotFound     = "Product not found."
	MsgProductEditDenied   = "You do not have permission to edit this product."
	MsgProductDeleteDenied = "You do not have permission to delete this product."
	MsgProductCreateFailed = "An error occurred while adding the product. Check the data."
	MsgProductUpdateFailed = "An error occurred while updating the product. Check the data."
)

// ProductService manages the product catalog of the acting user's company.
type ProductService struct {
	products store.ProductStore
	metrics  *telemetry.Metrics
}

// NewProductService creates a new product service.
func NewProductService(stores store.Stores) *ProductService {
	return &ProductService{
		products: stores.Products,
		metrics:  telemetry.GetMetrics(),
	}
}

// List returns the products of the actor's company ordered by name.
func (s *ProductService) List(ctx context.Context, ac auth.AuthContext) ([]*models.Product, error) {
	products, err := s.products.ListByCompany(ctx, ac.Company.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Create validates the form and adds a product to the actor's company.
func (s *ProductService) Create(ctx context.Context, ac auth.AuthContext, f *forms.ProductForm) (*models.Product, error) {
	if !f.Valid() {
		return nil, ValidationError(MsgProductCreateFailed, f.Errors)
	}

	p := &models.Product{}
	f.Apply(p)
	p.CompanyID = ac.Company.CompanyID

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.metrics.RecordProductMutation(ctx, "create")
	log.Ctx(ctx).Info().
		Int64("product_id", p.ProductID).
		Int64("company_id", p.CompanyID).
		Msg("Product created")

	return p, nil
}

// GetForEdit loads a product the actor may edit.
func (s *ProductService) GetForEdit(ctx context.Context, ac auth.AuthContext, productID int64) (*models.Product, error) {
	return s.owned(ctx, ac, productID, MsgProductEditDenied)
}

// GetForDelete loads a product the actor may delete.
func (s *ProductService) GetForDelete(ctx context.Context, ac auth.AuthContext, productID int64) (*models.Product, error) {
	return s.owned(ctx, ac, productID, MsgProductDeleteDenied)
}

// Update validates the form and overwrites the product.
// The ownership check runs before validation.
func (s *ProductService) Update(ctx context.Context, ac auth.AuthContext, productID int64, f *forms.ProductForm) (*models.Product, error) {
	p, err := s.owned(ctx, ac, productID, MsgProductEditDenied)
	if err != nil {
		return nil, err
	}

	if !f.Valid() {
		return nil, ValidationError(MsgProductUpdateFailed, f.Errors)
	}

	f.Apply(p)
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, NotFoundError(MsgProductNotFound)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.metrics.RecordProductMutation(ctx, "update")
	log.Ctx(ctx).Info().Int64("product_id", p.ProductID).Msg("Product updated")

	return p, nil
}

// Delete removes a product owned by the actor's company.
func (s *ProductService) Delete(ctx context.Context, ac auth.AuthContext, productID int64) (*models.Product, error) {
	p, err := s.owned(ctx, ac, productID, MsgProductDeleteDenied)
	if err != nil {
		return nil, err
	}

	if err := s.products.Delete(ctx, ac.Company.CompanyID, productID); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, NotFoundError(MsgProductNotFound)
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	s.metrics.RecordProductMutation(ctx, "delete")
	log.Ctx(ctx).Info().Int64("product_id", productID).Msg("Product deleted")

	return p, nil
}

// owned loads a product and checks it belongs to the actor's company.
// A missing product is NotFound, another company's is Forbidden.
func (s *ProductService) owned(ctx context.Context, ac auth.AuthContext, productID int64, denied string) (*models.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return nil, NotFoundError(MsgProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if p.CompanyID != ac.Company.CompanyID {
		log.Ctx(ctx).Warn().
			Int64("product_id", productID).
			Int64("user_id", ac.User.UserID).
			Int64("company_id", ac.Company.CompanyID).
			Msg("Cross-tenant product access denied")
		return nil, ForbiddenError(denied)
	}

	return p, nil
}
