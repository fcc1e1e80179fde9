package configs

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	Server        ServerConfig
	Verification  VerificationConfig
	Mail          MailConfig
	Store         StoreConfig
	Redis         RedisConfig
	Database      DatabaseConfig
	UserDirectory UserDirectoryConfig
	Log           LogConfig
	RateLimit     RateLimitConfig
}

type ServerConfig struct {
	Host               string
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	TLSCertFile        string
	TLSKeyFile         string
	CORSAllowedOrigins []string
	TrustedProxies     []string
}

type VerificationConfig struct {
	TokenTTL      time.Duration
	SessionTTL    time.Duration
	AllowedDomain string
	Secret        string
	CookieSecure  bool
	BaseURL       string
}

type MailConfig struct {
	Driver         string // sendgrid, smtp, kafka or log
	FromEmail      string
	FromName       string
	CompanyName    string
	SendGridAPIKey string
	SMTP           SMTPConfig
	KafkaBrokers   []string
	KafkaTopic     string
	RatePerSecond  float64
	Burst          int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
}

type StoreConfig struct {
	Driver    string // redis or memory
	KeyPrefix string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type UserDirectoryConfig struct {
	Driver   string // postgres or none
	CacheTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

type RateLimitConfig struct {
	SendPerWindow int
	Window        time.Duration
}

// Load reads the environment (and an optional .env file). Every missing
// required variable is reported in one error.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var missing []string
	required := func(key string) string {
		value := os.Getenv(key)
		if value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getEnv("SERVER_PORT", "8080"),
			ReadTimeout:        getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:        getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
			TLSCertFile:        getEnv("TLS_CERT_FILE", ""),
			TLSKeyFile:         getEnv("TLS_KEY_FILE", ""),
			CORSAllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS"),
			TrustedProxies:     getListEnv("SERVER_TRUSTED_PROXIES"),
		},
		Verification: VerificationConfig{
			TokenTTL:      time.Duration(getIntEnv("VERIFICATION_TOKEN_TTL_MINUTES", 10)) * time.Minute,
			SessionTTL:    time.Duration(getIntEnv("VERIFICATION_SESSION_TTL_MINUTES", 30)) * time.Minute,
			AllowedDomain: strings.ToLower(getEnv("VERIFICATION_ALLOWED_DOMAIN", "konkuk.ac.kr")),
			Secret:        required("VERIFICATION_SECRET"),
			CookieSecure:  getBoolEnv("VERIFICATION_COOKIE_SECURE", true),
			BaseURL:       required("BASE_URL"),
		},
		Mail: MailConfig{
			Driver:      strings.ToLower(getEnv("MAIL_DRIVER", "sendgrid")),
			FromEmail:   getEnv("FROM_EMAIL", "noreply@example.com"),
			FromName:    getEnv("FROM_NAME", "Kugather"),
			CompanyName: getEnv("COMPANY_NAME", "Kugather"),
			SMTP: SMTPConfig{
				Host:     getEnv("SMTP_HOST", "localhost"),
				Port:     getIntEnv("SMTP_PORT", 587),
				Username: getEnv("SMTP_USERNAME", ""),
				Password: getEnv("SMTP_PASSWORD", ""),
				TLS:      getBoolEnv("SMTP_TLS", true),
			},
			KafkaBrokers:  getListEnv("KAFKA_BROKERS"),
			KafkaTopic:    getEnv("KAFKA_MAIL_TOPIC", "mail.outbound"),
			RatePerSecond: getFloatEnv("MAIL_RATE_PER_SECOND", 5),
			Burst:         getIntEnv("MAIL_BURST", 10),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(getEnv("STORE_DRIVER", "redis")),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "signup"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "kugather"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		UserDirectory: UserDirectoryConfig{
			Driver:   strings.ToLower(getEnv("USER_DIRECTORY_DRIVER", "postgres")),
			CacheTTL: getDurationEnv("USER_DIRECTORY_CACHE_TTL", 10*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			SendPerWindow: getIntEnv("RATE_LIMIT_SEND_PER_WINDOW", 5),
			Window:        getDurationEnv("RATE_LIMIT_WINDOW", 10*time.Minute),
		},
	}

	if cfg.Mail.Driver == "sendgrid" {
		cfg.Mail.SendGridAPIKey = required("SENDGRID_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and driver names.
func (c *Config) Validate() error {
	var errs []error

	if c.Verification.TokenTTL <= 0 {
		errs = append(errs, errors.New("VERIFICATION_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Verification.SessionTTL <= 0 {
		errs = append(errs, errors.New("VERIFICATION_SESSION_TTL_MINUTES must be positive"))
	}
	if len(c.Verification.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("VERIFICATION_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.Verification.AllowedDomain == "" {
		errs = append(errs, errors.New("VERIFICATION_ALLOWED_DOMAIN must not be empty"))
	}

	switch c.Mail.Driver {
	case "sendgrid", "smtp", "log":
	case "kafka":
		if len(c.Mail.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when MAIL_DRIVER=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.Mail.Driver))
	}
	if c.Mail.RatePerSecond <= 0 {
		errs = append(errs, errors.New("MAIL_RATE_PER_SECOND must be positive"))
	}

	switch c.Store.Driver {
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.UserDirectory.Driver {
	case "postgres", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown USER_DIRECTORY_DRIVER %q", c.UserDirectory.Driver))
	}

	if c.RateLimit.SendPerWindow < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_SEND_PER_WINDOW must not be negative"))
	}

	return errors.Join(errs...)
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
