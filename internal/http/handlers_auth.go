package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/target/authweb/internal/domain/auth"
	apperrors "github.com/target/authweb/internal/errors"
	"github.com/target/authweb/internal/ports"
	"github.com/target/authweb/internal/service/account"
)

// AccountService runs the account flows behind the forms.
type AccountService interface {
	Register(ctx context.Context, creds ports.Credentials, in domainauth.RegisterInput) account.Outcome
	Login(ctx context.Context, creds ports.Credentials, in domainauth.LoginInput) account.Outcome
	Logout(ctx context.Context, creds ports.Credentials) account.LogoutOutcome
}

var _ AccountService = (*account.Service)(nil)

// redirectField carries the post-login destination through the login form.
const redirectField = "redirect_uri"

// AuthHandlers serves the register, login and logout endpoints.
type AuthHandlers struct {
	Svc            AccountService
	T              *TemplateRenderer
	CookieDomain   string
	SessionCookies []string
	IsDev          bool
	Logger         *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) jar() cookieJar { return cookieJar{Domain: h.CookieDomain} }

// formView describes one of the two account forms.
type formView struct {
	Meta     PageMeta
	Fragment string
}

//nolint:gochecknoglobals // static view descriptors
var (
	registerView = formView{
		Meta:     PageMeta{Title: "Register", PageTitle: "Create an account", CurrentPage: PageRegister},
		Fragment: tmplRegisterForm,
	}
	loginView = formView{
		Meta:     PageMeta{Title: "Login", PageTitle: "Sign in", CurrentPage: PageLogin},
		Fragment: tmplLoginForm,
	}
)

// RegisterPage renders an empty registration form.
// GET /register.
func (h *AuthHandlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, registerView, account.NewFormState(nil), http.StatusOK)
}

// Register submits the registration form.
// POST /register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	in := domainauth.RegisterInput{
		Name:            r.PostFormValue(domainauth.FieldName),
		Email:           r.PostFormValue(domainauth.FieldEmail),
		Password:        r.PostFormValue(domainauth.FieldPassword),
		PasswordConfirm: r.PostFormValue(domainauth.FieldConfirmPassword),
	}
	out := h.Svc.Register(r.Context(), GetCredentialsFromContext(r.Context()), in)
	h.finish(w, r, registerView, out)
}

// LoginPage renders an empty login form.
// GET /login?redirect_uri=<optional>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, loginView, account.NewFormState(nil), http.StatusOK)
}

// Login submits the login form.
// POST /login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	in := domainauth.LoginInput{
		Email:    r.PostFormValue(domainauth.FieldEmail),
		Password: r.PostFormValue(domainauth.FieldPassword),
	}
	out := h.Svc.Login(r.Context(), GetCredentialsFromContext(r.Context()), in)
	h.finish(w, r, loginView, out)
}

// Logout ends the backend session.
// POST /logout, GET /logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && !sameOriginNavigation(r) {
		http.Redirect(w, r, account.HomePath, http.StatusSeeOther)
		return
	}

	out := h.Svc.Logout(r.Context(), GetCredentialsFromContext(r.Context()))
	if out.Err != nil {
		h.logoutFailed(w, r)
		return
	}

	jar := h.jar()
	relayed := make(map[string]bool, len(out.SetCookies))
	for _, c := range out.SetCookies {
		relayed[c.Name] = true
	}
	for _, name := range h.SessionCookies {
		if !relayed[name] {
			jar.clear(w, r, name)
		}
	}
	jar.relay(w, r, out.SetCookies)

	if IsHTMX(r) {
		HTMX(w).Refresh()
		return
	}
	http.Redirect(w, r, account.HomePath, http.StatusSeeOther)
}

// sameOriginNavigation reports whether a GET came from this site or was typed
// by the user. Requests without Sec-Fetch-Site are not trusted, since GET
// bypasses the CSRF check.
func sameOriginNavigation(r *http.Request) bool {
	switch r.Header.Get("Sec-Fetch-Site") {
	case "same-origin", "none":
		return true
	default:
		return false
	}
}

func (h *AuthHandlers) logoutFailed(w http.ResponseWriter, r *http.Request) {
	if IsHTMX(r) {
		HTMX(w).Trigger(EventLogoutFailed, map[string]string{"message": MsgLogoutFailed})
		data := NewTemplateData(r, PageMeta{}).With("LogoutErrorMessage", MsgLogoutFailed).Build()
		renderFragment(w, fragmentRender{
			T: h.T, Name: tmplLogoutError, Data: data,
			Status: http.StatusBadGateway, IsDev: h.IsDev, Logger: h.logger(),
		})
		return
	}
	http.Redirect(w, r, account.HomePath+"?"+LogoutErrorParam+"=1", http.StatusSeeOther)
}

func (h *AuthHandlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		h.logger().InfoContext(r.Context(), "unparseable form", "path", r.URL.Path, "error", err)
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return false
	}
	return true
}

// finish redirects on success and re-renders the form otherwise. HTMX gets
// only the form with 200 so the swap happens; plain posts get the full page
// with a status matching the failure.
func (h *AuthHandlers) finish(w http.ResponseWriter, r *http.Request, v formView, out account.Outcome) {
	if out.Succeeded() {
		h.jar().relay(w, r, out.SetCookies)
		target := out.Redirect
		if next := r.PostFormValue(redirectField); next != "" {
			target = safeRedirectPath(next)
		}
		if IsHTMX(r) {
			HTMX(w).Redirect(target)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	if IsHTMX(r) {
		renderFragment(w, fragmentRender{
			T: h.T, Name: v.Fragment, Data: h.formData(r, v, out.Form),
			IsDev: h.IsDev, Logger: h.logger(),
		})
		return
	}
	h.renderForm(w, r, v, out.Form, formErrorStatus(out.Err))
}

func (h *AuthHandlers) renderForm(w http.ResponseWriter, r *http.Request, v formView, form account.FormState, status int) {
	w.Header().Add("Vary", "Hx-Request")
	renderPage(w, r, pageRender{
		T: h.T, Data: h.formData(r, v, form), Status: status, IsDev: h.IsDev, Logger: h.logger(),
	})
}

func (h *AuthHandlers) formData(r *http.Request, v formView, form account.FormState) map[string]any {
	redirect := r.FormValue(redirectField)
	if redirect != "" {
		redirect = safeRedirectPath(redirect)
	}
	return NewTemplateData(r, v.Meta).WithForm(form).With("RedirectURI", redirect).Build()
}

// formErrorStatus picks the status for a rejected non-HTMX submission.
// A nil err means the local validator stopped it.
func formErrorStatus(err error) int {
	if err == nil {
		return http.StatusUnprocessableEntity
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
