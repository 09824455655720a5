package httpx

import (
	"net/http"

	domainauth "github.com/target/authweb/internal/domain/auth"
	"github.com/target/authweb/internal/service/account"
)

// AppName prefixes every document title.
const AppName = "Auth"

// PageMeta names the page being rendered.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// basePageData constructs the data map shared by the layout and every fragment.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	title := AppName
	if meta.Title != "" {
		title = meta.Title + " - " + AppName
	}
	data := map[string]any{
		"Title":       title,
		"PageTitle":   meta.PageTitle,
		"CurrentPage": meta.CurrentPage,
		"AppName":     AppName,
		"CSRFToken":   GetCSRFToken(r),
	}
	if r.URL.Query().Get(LogoutErrorParam) != "" {
		data["LogoutError"] = true
		data["LogoutErrorMessage"] = MsgLogoutFailed
	}
	return data
}

// TemplateDataBuilder provides a fluent API for building template data maps.
type TemplateDataBuilder struct {
	data map[string]any
}

// NewTemplateData creates a new TemplateDataBuilder initialized with basePageData.
func NewTemplateData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return &TemplateDataBuilder{data: basePageData(r, meta)}
}

// WithForm exposes an account form to the page.
func (b *TemplateDataBuilder) WithForm(form account.FormState) *TemplateDataBuilder {
	b.data["Form"] = form
	return b
}

// WithSession exposes the resolved user, if any. LoadError is set when the
// lookup failed rather than the visitor simply being signed out.
func (b *TemplateDataBuilder) WithSession(st domainauth.SessionState) *TemplateDataBuilder {
	b.data["IsAuthenticated"] = st.IsAuthenticated()
	if st.IsAuthenticated() {
		b.data["User"] = st.User
	}
	if st.Err != nil {
		b.data["LoadError"] = true
	}
	return b
}

// WithError sets a general error message.
func (b *TemplateDataBuilder) WithError(msg string) *TemplateDataBuilder {
	b.data["Error"] = true
	b.data["ErrorMessage"] = msg
	return b
}

// With adds a custom field to the template data.
func (b *TemplateDataBuilder) With(key string, value any) *TemplateDataBuilder {
	b.data[key] = value
	return b
}

// Build returns the final template data map.
func (b *TemplateDataBuilder) Build() map[string]any {
	return b.data
}
