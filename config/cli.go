package config

import (
	"os"
	"path/filepath"
	"time"
)

// CLIConfig configures authweb-cli.
type CLIConfig struct {
	// APIURL is the auth API origin.
	APIURL string `env:"AUTHWEB_API_URL" envDefault:"http://localhost:3000"`

	// CookieFile persists the session between invocations.
	// Defaults to $HOME/.authweb/cookies.json.
	CookieFile string `env:"AUTHWEB_COOKIE_FILE"`

	Timeout time.Duration `env:"AUTHWEB_TIMEOUT" envDefault:"10s"`
}

// Sanitize fills in the default cookie file location.
func (c *CLIConfig) Sanitize() {
	if c.CookieFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.CookieFile = filepath.Join(home, ".authweb", "cookies.json")
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
