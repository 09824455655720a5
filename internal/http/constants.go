package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageHome     = "home"
	PageRegister = "register"
	PageLogin    = "login"
	PageProfile  = "profile"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Fragment templates rendered on their own.
const (
	tmplNavbar       = "navbar"
	tmplProfile      = "profile"
	tmplLogoutError  = "logout-error"
	tmplRegisterForm = "register-form"
	tmplLoginForm    = "login-form"
)

// EventLogoutFailed is raised on the client through Hx-Trigger when logout fails.
const EventLogoutFailed = "logout-failed"

// LogoutErrorParam flags a failed non-HTMX logout on the redirect back home.
const LogoutErrorParam = "logout_error"

// Banner shown when the backend could not end the session.
const MsgLogoutFailed = "Logout failed. You may still be signed in, please try again."

//nolint:gochecknoglobals // static read-only lookup for templates
var contentTemplates = map[string]string{
	PageHome:     "home-content",
	PageRegister: "register-content",
	PageLogin:    "login-content",
	PageProfile:  "profile-content",
}

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to home-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := contentTemplates[currentPage]; ok {
		return name
	}
	return "home-content"
}
