package website

import (
	"fmt"
	"net/http"

	"github.com/wolfeidau/stockroom/internal/auth"
	"github.com/wolfeidau/stockroom/internal/forms"
	"github.com/wolfeidau/stockroom/internal/models"
	"github.com/wolfeidau/stockroom/internal/server"
)

const userListURL = "/users"

type userListPage struct {
	Users []*models.User
	list  *server.UserList
	actor *models.User
}

// CanEdit reports whether the row gets an edit link.
func (p userListPage) CanEdit(u *models.User) bool {
	return !p.list.IsPrimaryAdmin(u)
}

// CanDelete reports whether the row gets a delete link.
func (p userListPage) CanDelete(u *models.User) bool {
	return !p.list.IsPrimaryAdmin(u) && !u.SameAs(p.actor)
}

// IsPrimaryAdmin marks the company's primary admin in the listing.
func (p userListPage) IsPrimaryAdmin(u *models.User) bool {
	return p.list.IsPrimaryAdmin(u)
}

type userFormPage struct {
	Form   *forms.UserForm
	Target *models.User
}

func (s *Website) userList(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	list, err := s.users.List(r.Context(), ac)
	if err != nil {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}
	s.render(w, r, http.StatusOK, "users", "Users", &ac, userListPage{Users: list.Users, list: list, actor: ac.User})
}

func (s *Website) userNew(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	caps, err := s.users.Capabilities(r.Context(), ac)
	if err != nil {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}
	s.render(w, r, http.StatusOK, "user_form", "Add user", &ac, userFormPage{Form: forms.EmptyUserForm(caps.GrantAdmin)})
}

func (s *Website) userCreate(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	if !s.parseForm(w, r) {
		return
	}

	caps, err := s.users.Capabilities(r.Context(), ac)
	if err != nil {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}

	f := forms.NewUserForm(r.PostForm, true, caps.GrantAdmin)
	u, err := s.users.Create(r.Context(), ac, f)
	if err != nil {
		s.userRejected(w, r, ac, err, userFormPage{Form: f}, "Add user")
		return
	}

	s.redirect(w, r, userListURL, models.FlashSuccess, fmt.Sprintf("User %q added successfully!", u.Name))
}

func (s *Website) userEdit(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	target, caps, err := s.users.GetForEdit(r.Context(), ac, id)
	if err != nil {
		s.fail(w, r, err, userListURL)
		return
	}

	s.render(w, r, http.StatusOK, "user_form", "Edit user", &ac, userFormPage{
		Form:   forms.UserFormFrom(target, caps.GrantAdmin),
		Target: target,
	})
}

func (s *Website) userUpdate(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}
	if !s.parseForm(w, r) {
		return
	}

	caps, err := s.users.Capabilities(r.Context(), ac)
	if err != nil {
		s.fail(w, r, err, auth.ProductListURL)
		return
	}

	f := forms.NewUserForm(r.PostForm, false, caps.GrantAdmin)
	u, err := s.users.Update(r.Context(), ac, id, f)
	if err != nil {
		s.userRejected(w, r, ac, err, userFormPage{Form: f, Target: &models.User{UserID: id}}, "Edit user")
		return
	}

	s.redirect(w, r, userListURL, models.FlashSuccess, fmt.Sprintf("User %q updated successfully!", u.Name))
}

func (s *Website) userConfirmDelete(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	target, err := s.users.GetForDelete(r.Context(), ac, id)
	if err != nil {
		s.fail(w, r, err, userListURL)
		return
	}

	s.render(w, r, http.StatusOK, "user_delete", "Delete user", &ac, target)
}

func (s *Website) userDelete(w http.ResponseWriter, r *http.Request, ac auth.AuthContext) {
	id, ok := pathID(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	target, err := s.users.Delete(r.Context(), ac, id)
	if err != nil {
		s.fail(w, r, err, userListURL)
		return
	}

	s.redirect(w, r, userListURL, models.FlashSuccess, fmt.Sprintf("User %q was deleted successfully!", target.Name))
}

func (s *Website) userRejected(w http.ResponseWriter, r *http.Request, ac auth.AuthContext, err error, data userFormPage, title string) {
	e, ok := rejected(err)
	if !ok {
		s.fail(w, r, err, userListURL)
		return
	}

	data.Form.AddErrors(e.Fields)
	if sess, serr := s.session(r); serr == nil {
		sess.AddFlash(models.FlashError, e.Message)
	}
	s.render(w, r, http.StatusUnprocessableEntity, "user_form", title, &ac, data)
}
