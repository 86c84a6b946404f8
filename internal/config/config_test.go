package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		Port:                     "8420",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		DBSSLMode:                "disable",
		MediaMaxUploadSizeMB:     10,
		DBConnMaxLifetimeMinutes: 5,
		RedisURL:                 "redis://localhost:6379",
	}
}

func TestConfig_Validate_Required(t *testing.T) {
	t.Run("missing port", func(t *testing.T) {
		c := validConfig()
		c.Port = ""
		assert.Error(t, c.Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		c := validConfig()
		c.JWTSecret = ""
		assert.Error(t, c.Validate())
	})

	t.Run("zero upload size", func(t *testing.T) {
		c := validConfig()
		c.MediaMaxUploadSizeMB = 0
		assert.Error(t, c.Validate())
	})

	t.Run("zero conn lifetime", func(t *testing.T) {
		c := validConfig()
		c.DBConnMaxLifetimeMinutes = 0
		assert.Error(t, c.Validate())
	})

	t.Run("valid development config", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})
}

func TestConfig_Validate_Production(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "default jwt secret rejected",
			mutate:      func(c *Config) { c.JWTSecret = "your-secret-key-change-in-production" },
			expectError: true,
		},
		{
			name:        "short jwt secret rejected",
			mutate:      func(c *Config) { c.JWTSecret = "short" },
			expectError: true,
		},
		{
			name:        "weak db password rejected",
			mutate:      func(c *Config) { c.DBPassword = "password" },
			expectError: true,
		},
		{
			name:        "ssl disabled rejected",
			mutate:      func(c *Config) { c.DBSSLMode = "disable" },
			expectError: true,
		},
		{
			name:        "empty ssl mode rejected",
			mutate:      func(c *Config) { c.DBSSLMode = "" },
			expectError: true,
		},
		{
			name:        "require ssl mode accepted",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "verify-full accepted",
			mutate:      func(c *Config) { c.DBSSLMode = "verify-full" },
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = "production"
			c.DBSSLMode = "require"
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
