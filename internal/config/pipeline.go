package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EnvPipelineFieldConfidenceMin = "FINAGENT_PIPELINE_FIELD_CONFIDENCE_MIN"
	EnvPipelineRetryBudget        = "FINAGENT_PIPELINE_RETRY_BUDGET"
	EnvPipelineRetryBackoff       = "FINAGENT_PIPELINE_RETRY_BACKOFF"
	EnvPipelineWorkers            = "FINAGENT_PIPELINE_WORKERS"
	EnvPipelineRetrievalK         = "FINAGENT_PIPELINE_RETRIEVAL_K"
	EnvPipelineCapabilityTimeout  = "FINAGENT_PIPELINE_CAPABILITY_TIMEOUT"
	EnvPipelineCapitalThreshold   = "FINAGENT_PIPELINE_CAPITAL_THRESHOLD"
)

// PipelineConfig holds tunable pipeline parameters: per-field confidence
// minimum, retry budget and backoff, batch worker count, retrieval depth,
// and the capital-purchase amount threshold.
type PipelineConfig struct {
	FieldConfidenceMin float64 `toml:"field_confidence_min"`
	RetryBudget        int     `toml:"retry_budget"`
	RetryBackoff       string  `toml:"retry_backoff"`
	Workers            int     `toml:"workers"`
	RetrievalK         int     `toml:"retrieval_k"`
	CapabilityTimeout  string  `toml:"capability_timeout"`
	CapitalThreshold   string  `toml:"capital_threshold"`
}

// RetryBackoffDuration returns RetryBackoff as a time.Duration.
func (c *PipelineConfig) RetryBackoffDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryBackoff)
	return d
}

// CapabilityTimeoutDuration returns CapabilityTimeout as a time.Duration.
func (c *PipelineConfig) CapabilityTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CapabilityTimeout)
	return d
}

// CapitalThresholdAmount returns CapitalThreshold as a decimal amount.
func (c *PipelineConfig) CapitalThresholdAmount() decimal.Decimal {
	d, _ := decimal.NewFromString(c.CapitalThreshold)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.FieldConfidenceMin != 0 {
		c.FieldConfidenceMin = overlay.FieldConfidenceMin
	}
	if overlay.RetryBudget != 0 {
		c.RetryBudget = overlay.RetryBudget
	}
	if overlay.RetryBackoff != "" {
		c.RetryBackoff = overlay.RetryBackoff
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.RetrievalK != 0 {
		c.RetrievalK = overlay.RetrievalK
	}
	if overlay.CapabilityTimeout != "" {
		c.CapabilityTimeout = overlay.CapabilityTimeout
	}
	if overlay.CapitalThreshold != "" {
		c.CapitalThreshold = overlay.CapitalThreshold
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.FieldConfidenceMin == 0 {
		c.FieldConfidenceMin = 0.5
	}
	if c.RetryBudget == 0 {
		c.RetryBudget = 2
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = "300ms"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.RetrievalK == 0 {
		c.RetrievalK = 3
	}
	if c.CapabilityTimeout == "" {
		c.CapabilityTimeout = "30s"
	}
	if c.CapitalThreshold == "" {
		c.CapitalThreshold = "10000"
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineFieldConfidenceMin); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FieldConfidenceMin = f
		}
	}
	if v := os.Getenv(EnvPipelineRetryBudget); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetryBudget = n
		}
	}
	if v := os.Getenv(EnvPipelineRetryBackoff); v != "" {
		c.RetryBackoff = v
	}
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvPipelineRetrievalK); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetrievalK = n
		}
	}
	if v := os.Getenv(EnvPipelineCapabilityTimeout); v != "" {
		c.CapabilityTimeout = v
	}
	if v := os.Getenv(EnvPipelineCapitalThreshold); v != "" {
		c.CapitalThreshold = v
	}
}

func (c *PipelineConfig) validate() error {
	if c.FieldConfidenceMin < 0 || c.FieldConfidenceMin > 1 {
		return fmt.Errorf("field_confidence_min must be within [0,1]: %f", c.FieldConfidenceMin)
	}
	if c.RetryBudget < 0 {
		return fmt.Errorf("retry_budget must not be negative: %d", c.RetryBudget)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.RetrievalK < 1 {
		return fmt.Errorf("retrieval_k must be positive: %d", c.RetrievalK)
	}
	if _, err := time.ParseDuration(c.RetryBackoff); err != nil {
		return fmt.Errorf("invalid retry_backoff: %w", err)
	}
	if _, err := time.ParseDuration(c.CapabilityTimeout); err != nil {
		return fmt.Errorf("invalid capability_timeout: %w", err)
	}
	if _, err := decimal.NewFromString(c.CapitalThreshold); err != nil {
		return fmt.Errorf("invalid capital_threshold: %w", err)
	}
	return nil
}
