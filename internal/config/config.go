package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Storage layout
	DataDir   string `envconfig:"DATA_DIR" default:"data"`
	ModelsDir string `envconfig:"MODELS_DIR" default:"models"`

	// Gallery store backend: "file" or "postgres"
	GalleryStore string `envconfig:"GALLERY_STORE" default:"file"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`

	// Embedder
	ProviderType string `envconfig:"PROVIDER_TYPE" default:"dlib"`
	DlibURL      string `envconfig:"DLIB_URL" default:"http://localhost:5005"`

	// Matching
	Tolerance float64 `envconfig:"TOLERANCE" default:"0.5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.GalleryStore == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("load config: DATABASE_URL is required when GALLERY_STORE=postgres")
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
