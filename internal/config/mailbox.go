package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvMailboxCredentialsFile = "FINAGENT_MAILBOX_CREDENTIALS_FILE"
	EnvMailboxTokenFile       = "FINAGENT_MAILBOX_TOKEN_FILE"
	EnvMailboxUserID          = "FINAGENT_MAILBOX_USER_ID"
	EnvMailboxFetchLimit      = "FINAGENT_MAILBOX_FETCH_LIMIT"
)

// MailboxConfig holds Gmail mailbox connection parameters.
type MailboxConfig struct {
	CredentialsFile string `toml:"credentials_file"`
	TokenFile       string `toml:"token_file"`
	UserID          string `toml:"user_id"`
	FetchLimit      int    `toml:"fetch_limit"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *MailboxConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *MailboxConfig) Merge(overlay *MailboxConfig) {
	if overlay.CredentialsFile != "" {
		c.CredentialsFile = overlay.CredentialsFile
	}
	if overlay.TokenFile != "" {
		c.TokenFile = overlay.TokenFile
	}
	if overlay.UserID != "" {
		c.UserID = overlay.UserID
	}
	if overlay.FetchLimit != 0 {
		c.FetchLimit = overlay.FetchLimit
	}
}

func (c *MailboxConfig) loadDefaults() {
	if c.CredentialsFile == "" {
		c.CredentialsFile = "credentials.json"
	}
	if c.TokenFile == "" {
		c.TokenFile = "token.json"
	}
	if c.UserID == "" {
		c.UserID = "me"
	}
	if c.FetchLimit == 0 {
		c.FetchLimit = 50
	}
}

func (c *MailboxConfig) loadEnv() {
	if v := os.Getenv(EnvMailboxCredentialsFile); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv(EnvMailboxTokenFile); v != "" {
		c.TokenFile = v
	}
	if v := os.Getenv(EnvMailboxUserID); v != "" {
		c.UserID = v
	}
	if v := os.Getenv(EnvMailboxFetchLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.FetchLimit = n
		}
	}
}

func (c *MailboxConfig) validate() error {
	if c.FetchLimit < 1 {
		return fmt.Errorf("fetch_limit must be positive: %d", c.FetchLimit)
	}
	return nil
}
