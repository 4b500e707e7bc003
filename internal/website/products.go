package website

import (
	"fmt"
	"net/http"

	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/forms"
	"github.com/wolfeidau/stockroom/internal/models"
)

type productFormPage struct {
	Form    *forms.ProductForm
	Product *models.Product
}

func (s *Website) productList(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	products, err := s.products.List(r.Context(), ac)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "products", "Products", &ac, products)
}

func (s *Website) productNew(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	s.render(w, r, http.StatusOK, "product_form", "Add product", &ac, productFormPage{Form: forms.EmptyProductForm()})
}

func (s *Website) productCreate(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	if !s.parseForm(w, r) {
		return
	}

	f := forms.NewProductForm(r.PostForm)
	if _, err := s.products.Create(r.Context(), ac, f); err != nil {
		s.productRejected(w, r, ac, err, productFormPage{Form: f}, "Add product")
		return
	}

	s.redirect(w, r, auth.ProductListURL, models.FlashSuccess, "Product added successfully!")
}

func (s *Website) productEdit(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	p, err := s.products.GetForEdit(r.Context(), ac, id)
	if err != nil {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}

	s.render(w, r, http.StatusOK, "product_form", "Edit product", &ac, productFormPage{Form: forms.ProductFormFrom(p), Product: p})
}

func (s *Website) productUpdate(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if !s.parseForm(w, r) {
		return
	}

	f := forms.NewProductForm(r.PostForm)
	if _, err := s.products.Update(r.Context(), ac, id, f); err != nil {
		s.productRejected(w, r, ac, err, productFormPage{Form: f, Product: &models.Product{ProductID: id}}, "Edit product")
		return
	}

	s.redirect(w, r, auth.ProductListURL, models.FlashSuccess, "Product updated successfully!")
}

func (s *Website) productConfirmDelete(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	p, err := s.products.GetForDelete(r.Context(), ac, id)
	if err != nil {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}

	s.render(w, r, http.StatusOK, "product_delete", "Delete product", &ac, p)
}

func (s *Website) productDelete(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	p, err := s.products.Delete(r.Context(), ac, id)
	if err != nil {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}

	s.redirect(w, r, auth.ProductListURL, models.FlashSuccess, fmt.Sprintf("Product %q deleted successfully!", p.Name))
}

// productRejected re-renders the form for validation errors and falls back to fail otherwise.
func (s *Website) productRejected(w http.ResponseWriter, r *http.Request, ac auth.AuthContext, err error, data productFormPage, title string) {
	e, ok := rejected(err)
	if !ok {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}

	data.Form.AddErrors(e.Fields)
	if sess, serr := s.session(r); serr == nil {
		sess.AddFlash(models.FlashError, e.Message)
	}
	s.render(w, r, http.StatusUnprocessableEntity, "product_form", title, &ac, data)
}
