package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Docstore  DocstoreConfig  `mapstructure:"docstore"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DocstoreConfig struct {
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LedgerConfig struct {
	GatewayURL    string        `mapstructure:"gateway_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SigningKey    string        `mapstructure:"signing_key"`
	KeyPassphrase string        `mapstructure:"key_passphrase"`
}

type AuditConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	RetentionDays   int           `mapstructure:"retention_days"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func (c AuditConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	AlertTo  string `mapstructure:"alert_to"`
}

type WorkerConfig struct {
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	ExpiryWindow time.Duration `mapstructure:"expiry_window"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Secrets are never read from the config file; they overlay it from the
// environment.
type secrets struct {
	DocstoreURI      string `envconfig:"DOCSTORE_URI"`
	AuditPassword    string `envconfig:"AUDIT_DB_PASSWORD"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
	LedgerPassphrase string `envconfig:"LEDGER_KEY_PASSPHRASE"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var sec secrets
	if err := envconfig.Process("", &sec); err != nil {
		return nil, fmt.Errorf("failed to read secrets from env: %w", err)
	}
	if sec.DocstoreURI != "" {
		config.Docstore.URI = sec.DocstoreURI
	}
	if sec.AuditPassword != "" {
		config.Audit.Password = sec.AuditPassword
	}
	if sec.SMTPPassword != "" {
		config.SMTP.Password = sec.SMTPPassword
	}
	if sec.LedgerPassphrase != "" {
		config.Ledger.KeyPassphrase = sec.LedgerPassphrase
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("docstore.uri", "mongodb://localhost:27017")
	viper.SetDefault("docstore.database", "medchain")
	viper.SetDefault("docstore.collection", "medicines")
	viper.SetDefault("docstore.timeout", "10s")
	viper.SetDefault("ledger.timeout", "15s")
	viper.SetDefault("audit.sslmode", "disable")
	viper.SetDefault("audit.retention_days", 90)
	viper.SetDefault("audit.cleanup_interval", "24h")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff", "100ms")
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("worker.scan_interval", "1h")
	viper.SetDefault("worker.expiry_window", "720h")
	viper.SetDefault("rate_limit.requests_per_second", 20)
	viper.SetDefault("rate_limit.burst", 40)
}
