package api

// User endpoints, relative to the configured HTTP prefix
const (
	User                        = "/user"
	UserMe                      = "/user/me"
	UserVerification            = "/user/verification"
	UserChangePassword          = "/user/change-password"
	UserChangeEmail             = "/user/change-email"
	UserChangeEmailConfirmation = "/user/change-email/confirmation"
)

// Authentication endpoints
const (
	AuthLogin        = "/auth/login"
	AuthRefreshToken = "/auth/refresh-token"
)

// Health is served without authentication.
const Health = "/health"

// TokenQueryParam carries e-mail-action tokens on confirmation links.
const TokenQueryParam = "token"
