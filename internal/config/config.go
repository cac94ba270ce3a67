package config

import (
	"fmt"
	"os"

	"github.com/lib/pq"

	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	pkgconfig.Config

	CookieSecure   bool
	CSRFEnabled    bool
	RunMigrations  bool
	SearchFallback bool

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	EmbeddingURL    string
	EmbeddingAPIKey string
	EmbeddingModel  string

	UploadDir string

	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		Config: pkgconfig.Load(),

		CookieSecure:   pkgconfig.EnvBoolDefault("COOKIE_SECURE", false),
		CSRFEnabled:    pkgconfig.EnvBoolDefault("CSRF_ENABLED", true),
		RunMigrations:  pkgconfig.EnvBoolDefault("RUN_MIGRATIONS", true),
		SearchFallback: pkgconfig.EnvBoolDefault("SEARCH_FALLBACK", false),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    pkgconfig.EnvDefault("ES_INDEX", "products"),

		EmbeddingURL:    pkgconfig.EnvDefault("EMBEDDING_URL", "https://api.pinecone.io/embed"),
		EmbeddingAPIKey: os.Getenv("EMBEDDING_API_KEY"),
		EmbeddingModel:  pkgconfig.EnvDefault("EMBEDDING_MODEL", "multilingual-e5-large"),

		UploadDir: pkgconfig.EnvDefault("UPLOAD_DIR", "./uploads"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if _, err := pq.ParseURL(c.DatabaseURL); err != nil {
		return fmt.Errorf("config: DATABASE_URL: %w", err)
	}
	if len(c.JWTAccessSecret) == 0 {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if len(c.JWTRefreshSecret) == 0 {
		return fmt.Errorf("config: JWT_REFRESH_SECRET is required")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("config: SERVER_PORT %d out of range", c.ServerPort)
	}
	return nil
}

// SearchEnabled reports whether a vector backend is configured.
func (c *Config) SearchEnabled() bool {
	return c.ESURL != ""
}
