package config

import (
	"fmt"
	"os"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/middleware"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
)

const (
	EnvAPIBasePath = "FINAGENT_API_BASE_PATH"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "FINAGENT_CORS_ENABLED",
	Origins:          "FINAGENT_CORS_ORIGINS",
	AllowedMethods:   "FINAGENT_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "FINAGENT_CORS_ALLOWED_HEADERS",
	AllowCredentials: "FINAGENT_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "FINAGENT_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "FINAGENT_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "FINAGENT_PAGINATION_MAX_PAGE_SIZE",
}

// APIConfig holds API routing, CORS, and pagination settings.
type APIConfig struct {
	BasePath   string                `toml:"base_path"`
	CORS       middleware.CORSConfig `toml:"cors"`
	Pagination pagination.Config     `toml:"pagination"`
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
}

func (c *APIConfig) validate() error {
	if c.BasePath == "" || c.BasePath[0] != '/' {
		return fmt.Errorf("base_path must start with /: %s", c.BasePath)
	}
	return nil
}
