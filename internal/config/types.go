package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type HTTPConfig struct {
	Prefix          string        `mapstructure:"prefix"`
	TrustedOrigins  []string      `mapstructure:"trusted_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Port             string `mapstructure:"port"`
	EnableReflection bool   `mapstructure:"enable_reflection"`
}

type AuthConfig struct {
	SecretKey            string        `mapstructure:"secret_key"`
	Algorithm            string        `mapstructure:"algorithm"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	EmailTokenDuration   time.Duration `mapstructure:"email_token_duration"`
}

// HashingConfig selects the password scheme. Deprecated lists schemes that are
// still accepted on verify but trigger a rehash; "auto" deprecates every
// supported scheme other than Scheme.
type HashingConfig struct {
	Scheme     string   `mapstructure:"scheme"`
	Deprecated []string `mapstructure:"deprecated"`
	BcryptCost int      `mapstructure:"bcrypt_cost"`
}

type MailConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	From           string `mapstructure:"from"`
	StartTLS       bool   `mapstructure:"starttls"`
	SSLTLS         bool   `mapstructure:"ssl_tls"`
	UseCredentials bool   `mapstructure:"use_credentials"`
	ValidateCerts  bool   `mapstructure:"validate_certs"`
	LinkBaseURL    string `mapstructure:"link_base_url"`
}

type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	SSLMode        string `mapstructure:"sslmode"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
	LogQueries     bool   `mapstructure:"log_queries"`
}

type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Hashing  HashingConfig  `mapstructure:"hashing"`
	Mail     MailConfig     `mapstructure:"mail"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DSN returns the lib/pq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
	)
}
