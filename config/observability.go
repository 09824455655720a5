package config

import (
	"errors"
	"strings"
)

// MetricsConfig enables StatsD emission of account and auth API metrics.
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"false"`
	Address string `env:"ADDR"    envDefault:"127.0.0.1:8125"`
	Prefix  string `env:"PREFIX"  envDefault:"authweb"`
	// Tags are added to every metric, e.g. STATSD_TAGS=env:prod,region:us.
	Tags map[string]string `env:"TAGS" envKeyValSeparator:":"`
}

// Validate checks that an enabled sink has an address.
func (m *MetricsConfig) Validate() error {
	if m.Enabled && strings.TrimSpace(m.Address) == "" {
		return errors.New("STATSD_ADDR is required when STATSD_ENABLED=true")
	}
	return nil
}
