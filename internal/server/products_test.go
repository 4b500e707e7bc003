package server

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/stockroom/internal/forms"
	"github.com/wolfeidau/stockroom/internal/store"
)

func TestProductService(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	acme := f.register(t, "Acme", "alice")
	globex := f.register(t, "Globex", "gina")

	t.Run("create assigns the actor's company", func(t *testing.T) {
		p, err := f.products.Create(ctx, acme.ctx, forms.NewProductForm(productValues("Widget", "3", "9.99")))
		require.NoError(t, err)
		require.Equal(t, acme.company.CompanyID, p.CompanyID)
		require.Equal(t, int64(3), p.Quantity)
		require.True(t, p.Price.Valid)
		require.True(t, p.Price.Decimal.Equal(decimal.RequireFromString("9.99")))
	})

	t.Run("create rejects invalid form", func(t *testing.T) {
		_, err := f.products.Create(ctx, acme.ctx, forms.NewProductForm(productValues("", "-1", "abc")))
		e := requireKind(t, err, ErrValidation)
		require.Equal(t, MsgProductCreateFailed, e.Message)
		require.Contains(t, e.Fields, forms.FieldProductName)
	})

	t.Run("list is scoped to the company", func(t *testing.T) {
		_, err := f.products.Create(ctx, globex.ctx, forms.NewProductForm(productValues("Gadget", "1", "")))
		require.NoError(t, err)

		list, err := f.products.List(ctx, acme.ctx)
		require.NoError(t, err)
		for _, p := range list {
			require.Equal(t, acme.company.CompanyID, p.CompanyID)
		}

		list, err = f.products.List(ctx, globex.ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "Gadget", list[0].Name)
		require.False(t, list[0].Price.Valid)
	})

	t.Run("update overwrites fields", func(t *testing.T) {
		p, err := f.products.Create(ctx, acme.ctx, forms.NewProductForm(productValues("Sprocket", "1", "1.00")))
		require.NoError(t, err)

		updated, err := f.products.Update(ctx, acme.ctx, p.ProductID, forms.NewProductForm(productValues("Sprocket XL", "7", "")))
		require.NoError(t, err)
		require.Equal(t, "Sprocket XL", updated.Name)
		require.Equal(t, int64(7), updated.Quantity)
		require.False(t, updated.Price.Valid)

		stored, err := f.stores.Products.Get(ctx, p.ProductID)
		require.NoError(t, err)
		require.Equal(t, "Sprocket XL", stored.Name)
	})

	t.Run("cross-tenant access is forbidden", func(t *testing.T) {
		p, err := f.products.Create(ctx, globex.ctx, forms.NewProductForm(productValues("Secret", "1", "")))
		require.NoError(t, err)

		_, err = f.products.GetForEdit(ctx, acme.ctx, p.ProductID)
		e := requireKind(t, err, ErrForbidden)
		require.Equal(t, MsgProductEditDenied, e.Message)

		_, err = f.products.Update(ctx, acme.ctx, p.ProductID, forms.NewProductForm(productValues("Stolen", "1", "")))
		requireKind(t, err, ErrForbidden)

		_, err = f.products.Delete(ctx, acme.ctx, p.ProductID)
		e = requireKind(t, err, ErrForbidden)
		require.Equal(t, MsgProductDeleteDenied, e.Message)

		stored, err := f.stores.Products.Get(ctx, p.ProductID)
		require.NoError(t, err)
		require.Equal(t, "Secret", stored.Name)
	})

	t.Run("ownership is checked before validation", func(t *testing.T) {
		p, err := f.products.Create(ctx, globex.ctx, forms.NewProductForm(productValues("Other", "1", "")))
		require.NoError(t, err)

		_, err = f.products.Update(ctx, acme.ctx, p.ProductID, forms.NewProductForm(productValues("", "", "")))
		requireKind(t, err, ErrForbidden)
	})

	t.Run("missing product", func(t *testing.T) {
		_, err := f.products.GetForEdit(ctx, acme.ctx, 424242)
		e := requireKind(t, err, ErrNotFound)
		require.Equal(t, MsgProductNotFound, e.Message)
	})

	t.Run("delete twice", func(t *testing.T) {
		p, err := f.products.Create(ctx, acme.ctx, forms.NewProductForm(productValues("Ephemeral", "1", "")))
		require.NoError(t, err)

		deleted, err := f.products.Delete(ctx, acme.ctx, p.ProductID)
		require.NoError(t, err)
		require.Equal(t, "Ephemeral", deleted.Name)

		_, err = f.stores.Products.Get(ctx, p.ProductID)
		require.ErrorIs(t, err, store.ErrProductNotFound)

		_, err = f.products.Delete(ctx, acme.ctx, p.ProductID)
		requireKind(t, err, ErrNotFound)
	})
}
