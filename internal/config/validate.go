package config

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid config")

var (
	supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}
	supportedSchemes    = map[string]bool{"bcrypt": true, "argon2id": true}
)

// Validate rejects configurations the service cannot start with.
func (c *AppConfig) Validate() error {
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("%w: auth.secret_key is required", ErrInvalidConfig)
	}
	if !supportedAlgorithms[c.Auth.Algorithm] {
		return fmt.Errorf("%w: unsupported signing algorithm %q", ErrInvalidConfig, c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenDuration <= 0 || c.Auth.RefreshTokenDuration <= 0 || c.Auth.EmailTokenDuration <= 0 {
		return fmt.Errorf("%w: token durations must be positive", ErrInvalidConfig)
	}
	if !supportedSchemes[c.Hashing.Scheme] {
		return fmt.Errorf("%w: unsupported password scheme %q", ErrInvalidConfig, c.Hashing.Scheme)
	}
	for _, s := range c.Hashing.Deprecated {
		if s != "auto" && !supportedSchemes[s] {
			return fmt.Errorf("%w: unknown deprecated scheme %q", ErrInvalidConfig, s)
		}
		if s == c.Hashing.Scheme {
			return fmt.Errorf("%w: scheme %q cannot be deprecated", ErrInvalidConfig, s)
		}
	}
	if c.Mail.SSLTLS && c.Mail.StartTLS {
		return fmt.Errorf("%w: mail.ssl_tls and mail.starttls are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}
