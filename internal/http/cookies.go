package httpx

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/authweb/internal/ports"
)

// SessionCredentials collects the configured session cookies from r.
// Cookies with empty values are skipped.
func SessionCredentials(r *http.Request, names []string) ports.Credentials {
	var creds ports.Credentials
	for _, name := range names {
		if ck, err := r.Cookie(name); err == nil && ck.Value != "" {
			creds.Cookies = append(creds.Cookies, &http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	return creds
}

// requestIsSecure reports whether the browser reached us over HTTPS,
// directly or through a proxy setting X-Forwarded-Proto.
func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// cookieJar writes session cookies for the browser under our own domain.
type cookieJar struct {
	Domain string
}

// relay re-issues cookies set by the auth API. The API's Domain does not
// apply to this host, so it is replaced; lifetime attributes are kept.
func (j cookieJar) relay(w http.ResponseWriter, r *http.Request, cookies []*http.Cookie) {
	secure := requestIsSecure(r)
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		out := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   j.Domain,
			Expires:  c.Expires,
			MaxAge:   c.MaxAge,
			HttpOnly: true,
			Secure:   secure,
			SameSite: c.SameSite,
		}
		if out.Path == "" {
			out.Path = "/"
		}
		if out.SameSite == http.SameSiteDefaultMode {
			out.SameSite = http.SameSiteLaxMode
		}
		http.SetCookie(w, out)
	}
}

// clear expires a cookie, mirroring the attributes used when it was set so
// every browser honors the deletion.
func (j cookieJar) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   j.Domain,
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, `/\`) {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
