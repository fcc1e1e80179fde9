package configs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("VERIFICATION_SECRET", testSecret)
	t.Setenv("BASE_URL", "https://kugather.example")
	t.Setenv("SENDGRID_API_KEY", "SG.test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Verification.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.Verification.SessionTTL)
	assert.Equal(t, "konkuk.ac.kr", cfg.Verification.AllowedDomain)
	assert.True(t, cfg.Verification.CookieSecure)
	assert.Equal(t, "sendgrid", cfg.Mail.Driver)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "signup", cfg.Store.KeyPrefix)
	assert.Equal(t, 5, cfg.RateLimit.SendPerWindow)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Contains(t, cfg.Database.DSN, "dbname=kugather")
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VERIFICATION_TOKEN_TTL_MINUTES", "5")
	t.Setenv("VERIFICATION_SESSION_TTL_MINUTES", "60")
	t.Setenv("VERIFICATION_ALLOWED_DOMAIN", "Example.AC.kr")
	t.Setenv("VERIFICATION_COOKIE_SECURE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SERVER_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")
	t.Setenv("MAIL_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Verification.TokenTTL)
	assert.Equal(t, time.Hour, cfg.Verification.SessionTTL)
	assert.Equal(t, "example.ac.kr", cfg.Verification.AllowedDomain)
	assert.False(t, cfg.Verification.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Server.TrustedProxies)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Mail.KafkaBrokers)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoad_ReportsAllMissing(t *testing.T) {
	t.Setenv("VERIFICATION_SECRET", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("MAIL_DRIVER", "sendgrid")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"VERIFICATION_SECRET", "BASE_URL", "SENDGRID_API_KEY"} {
		assert.True(t, strings.Contains(err.Error(), key), "missing %s in %q", key, err.Error())
	}
}

func TestLoad_SendGridKeyOnlyForSendGrid(t *testing.T) {
	setRequired(t)
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("MAIL_DRIVER", "log")

	_, err := Load()
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Verification: VerificationConfig{
				TokenTTL:      10 * time.Minute,
				SessionTTL:    30 * time.Minute,
				AllowedDomain: "konkuk.ac.kr",
				Secret:        testSecret,
			},
			Mail:          MailConfig{Driver: "log", RatePerSecond: 1},
			Store:         StoreConfig{Driver: "memory"},
			UserDirectory: UserDirectoryConfig{Driver: "none"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short secret", func(c *Config) { c.Verification.Secret = "short" }, "VERIFICATION_SECRET"},
		{"zero token ttl", func(c *Config) { c.Verification.TokenTTL = 0 }, "VERIFICATION_TOKEN_TTL_MINUTES"},
		{"negative session ttl", func(c *Config) { c.Verification.SessionTTL = -time.Minute }, "VERIFICATION_SESSION_TTL_MINUTES"},
		{"unknown mail driver", func(c *Config) { c.Mail.Driver = "pigeon" }, "MAIL_DRIVER"},
		{"kafka without brokers", func(c *Config) { c.Mail.Driver = "kafka" }, "KAFKA_BROKERS"},
		{"unknown store", func(c *Config) { c.Store.Driver = "etcd" }, "STORE_DRIVER"},
		{"unknown directory", func(c *Config) { c.UserDirectory.Driver = "ldap" }, "USER_DIRECTORY_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
