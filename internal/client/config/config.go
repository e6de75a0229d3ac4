package config

import (
	"time"

	"github.com/mkravets/fieldops/internal/client/models"
)

// Config holds runtime settings for the FieldOps CLI.
//
// Units: intervals are time.Duration values (e.g., 3*time.Second).
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	PhotoDir            string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration

	// MaxRetries is the dead-letter cutoff: a sync item failing this many
	// times is parked until explicitly retried. 0 retries forever.
	MaxRetries int

	// Priorities orders entity types within a sync pass; higher syncs first.
	Priorities map[models.EntityType]int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "fieldops.db"
	c.PhotoDir = "photos"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 60 * time.Second
	c.MaxRetries = 5
	c.Priorities = map[models.EntityType]int{
		models.EntityReport:     4,
		models.EntityPhoto:      3,
		models.EntityLocation:   2,
		models.EntityTimeRecord: 1,
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
