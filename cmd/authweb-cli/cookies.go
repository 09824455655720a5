package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/net/publicsuffix"
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// sessionJar is a cookie jar for the API origin that persists to a JSON file
// between invocations.
type sessionJar struct {
	path string
	api  *url.URL
	jar  *cookiejar.Jar
}

func openSessionJar(path, apiURL string) (*sessionJar, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q", apiURL)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	s := &sessionJar{path: path, api: u, jar: jar}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Jar returns the jar to install on the http.Client.
func (s *sessionJar) Jar() http.CookieJar { return s.jar }

func (s *sessionJar) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cookie file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("decode cookie file %s: %w", s.path, err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	s.jar.SetCookies(s.api, cookies)
	return nil
}

// Clear expires every cookie held for the API origin.
func (s *sessionJar) Clear() {
	current := s.jar.Cookies(s.api)
	expired := make([]*http.Cookie, 0, len(current))
	for _, c := range current {
		expired = append(expired, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
	}
	s.jar.SetCookies(s.api, expired)
}

// Save writes the cookies currently held for the API origin. The file is
// removed when the jar is empty.
func (s *sessionJar) Save() error {
	current := s.jar.Cookies(s.api)
	if len(current) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove cookie file: %w", err)
		}
		return nil
	}

	stored := make([]storedCookie, 0, len(current))
	for _, c := range current {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}
