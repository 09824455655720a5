package httpx

import (
	"net/http"

	domainauth "github.com/target/authweb/internal/domain/auth"
)

// Home renders the landing page. The navbar arrives later via /ui/navbar.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{PageTitle: "Welcome", CurrentPage: PageHome}).Build()
	h.page(w, r, data, http.StatusOK)
}

// Profile renders the profile page with a skeleton in place of the user card.
func (h *UIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Profile", PageTitle: "Profile", CurrentPage: PageProfile}).Build()
	h.page(w, r, data, http.StatusOK)
}

// NavbarFragment resolves the session and renders the signed-in or signed-out navbar.
func (h *UIHandlers) NavbarFragment(w http.ResponseWriter, r *http.Request) {
	h.sessionFragment(w, r, tmplNavbar)
}

// ProfileFragment resolves the session and renders the user card.
func (h *UIHandlers) ProfileFragment(w http.ResponseWriter, r *http.Request) {
	h.sessionFragment(w, r, tmplProfile)
}

func (h *UIHandlers) sessionFragment(w http.ResponseWriter, r *http.Request, name string) {
	st := domainauth.Anonymous(nil)
	if loader, ok := GetLoaderFromContext(r.Context()); ok {
		st = loader.Load(r.Context())
	}

	data := NewTemplateData(r, PageMeta{}).WithSession(st).Build()
	w.Header().Set("Cache-Control", "no-store")
	renderFragment(w, fragmentRender{T: h.T, Name: name, Data: data, IsDev: h.IsDev, Logger: h.logger()})
}

func (h *UIHandlers) page(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	w.Header().Add("Vary", "Hx-Request")
	renderPage(w, r, pageRender{T: h.T, Data: data, Status: status, IsDev: h.IsDev, Logger: h.logger()})
}
