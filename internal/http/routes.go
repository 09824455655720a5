package httpx

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	authweb "github.com/target/authweb"
	"github.com/target/authweb/internal/service/userdata"
)

// StaticPathFromRoot is the on-disk static directory used in dev mode.
const StaticPathFromRoot = "frontend/static"

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Account  AccountService
	UserData userdata.Resolver
	// SessionCookies names the auth API cookies forwarded on every call.
	SessionCookies []string
	CookieDomain   string
	// Renderer overrides the template set; nil picks disk (dev) or embedded (prod).
	Renderer *TemplateRenderer
	IsDev    bool
	Logger   *slog.Logger
}

// NewRouter wires the pages, fragments and account endpoints behind browser
// detection, CSRF protection and the per-request user loader.
func NewRouter(services RouterServices) (http.Handler, error) {
	if services.Account == nil {
		return nil, errors.New("account service is required")
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tr := services.Renderer
	if tr == nil {
		var err error
		if tr, err = newRenderer(services.IsDev, logger); err != nil {
			return nil, err
		}
	}

	ui := &UIHandlers{T: tr, IsDev: services.IsDev, Logger: logger}
	auth := &AuthHandlers{
		Svc:            services.Account,
		T:              tr,
		CookieDomain:   services.CookieDomain,
		SessionCookies: services.SessionCookies,
		IsDev:          services.IsDev,
		Logger:         logger,
	}

	mux := http.NewServeMux()
	registerUIRoutes(mux, ui)
	registerAuthRoutes(mux, auth)
	mux.Handle("GET /static/", staticHandler(services.IsDev))
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.HandleFunc("/", ui.NotFound)

	var h http.Handler = mux
	h = UserSession(services.UserData, services.SessionCookies)(h)
	h = CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})(h)
	return BrowserDetection()(h), nil
}

func registerUIRoutes(mux *http.ServeMux, ui *UIHandlers) {
	mux.HandleFunc("GET /{$}", ui.Home)
	mux.HandleFunc("GET /profile", ui.Profile)
	mux.HandleFunc("GET /ui/profile", ui.ProfileFragment)
	mux.HandleFunc("GET /ui/navbar", ui.NavbarFragment)
}

func registerAuthRoutes(mux *http.ServeMux, auth *AuthHandlers) {
	mux.HandleFunc("GET /register", auth.RegisterPage)
	mux.HandleFunc("POST /register", auth.Register)
	mux.HandleFunc("GET /login", auth.LoginPage)
	mux.HandleFunc("POST /login", auth.Login)
	mux.HandleFunc("POST /logout", auth.Logout)
	mux.HandleFunc("GET /logout", auth.Logout)
}

// newRenderer loads templates from disk in dev mode so edits show up without
// a rebuild, and from the embedded copy otherwise.
func newRenderer(isDev bool, logger *slog.Logger) (*TemplateRenderer, error) {
	var templateFS fs.FS
	if isDev {
		templateFS = os.DirFS(TemplatePathFromRoot)
	} else {
		sub, err := fs.Sub(authweb.TemplateFS, TemplatePathFromRoot)
		if err != nil {
			return nil, fmt.Errorf("embedded templates: %w", err)
		}
		templateFS = sub
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: templateFS,
		DevMode:    isDev,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create template renderer: %w", err)
	}
	return tr, nil
}

func staticHandler(isDev bool) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticPathFromRoot))), isDev)
	}
	sub, err := fs.Sub(authweb.StaticFS, StaticPathFromRoot)
	if err != nil {
		return http.NotFoundHandler()
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(sub))), isDev)
}

func staticWithCacheHeaders(next http.Handler, isDev bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDev {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		next.ServeHTTP(w, r)
	})
}
