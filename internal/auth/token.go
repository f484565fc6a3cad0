package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/elskow/account-service/internal/config"
)

// Kind tells the three token families apart. Every token carries its kind and
// is only accepted by a consumer asking for that kind.
type Kind string

const (
	KindAccess      Kind = "access"
	KindRefresh     Kind = "refresh"
	KindEmailAction Kind = "email_action"
)

func (k Kind) valid() bool {
	return k == KindAccess || k == KindRefresh || k == KindEmailAction
}

// ErrInvalidToken covers bad signatures, malformed input, expiry and kind
// mismatches alike; callers cannot tell them apart.
var ErrInvalidToken = errors.New("could not validate credentials")

type Claims struct {
	Kind Kind `json:"kind"`
	// TargetEmail is only set on e-mail-action tokens that confirm an
	// address change.
	TargetEmail string `json:"email,omitempty"`
	jwt.RegisteredClaims

	userID uuid.UUID
}

// UserID is the subject of a parsed token.
func (c *Claims) UserID() uuid.UUID {
	return c.userID
}

type TokenCodec struct {
	config *config.AuthConfig
	method jwt.SigningMethod
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(config *config.AuthConfig) (*TokenCodec, error) {
	method, ok := jwt.GetSigningMethod(config.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", config.Algorithm)
	}
	if config.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}

	return &TokenCodec{
		config: config,
		method: method,
		secret: []byte(config.SecretKey),
		now:    time.Now,
	}, nil
}

func (c *TokenCodec) IssueAccess(userID uuid.UUID) (string, error) {
	return c.Issue(KindAccess, userID, "", c.config.AccessTokenDuration)
}

func (c *TokenCodec) IssueRefresh(userID uuid.UUID) (string, error) {
	return c.Issue(KindRefresh, userID, "", c.config.RefreshTokenDuration)
}

// IssueEmailAction issues a confirmation token. An empty targetEmail yields a
// registration-verification token; a non-empty one confirms an address change.
func (c *TokenCodec) IssueEmailAction(userID uuid.UUID, targetEmail string) (string, error) {
	return c.Issue(KindEmailAction, userID, targetEmail, c.config.EmailTokenDuration)
}

func (c *TokenCodec) Issue(kind Kind, userID uuid.UUID, targetEmail string, ttl time.Duration) (string, error) {
	if !kind.valid() {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}
	if targetEmail != "" && kind != KindEmailAction {
		return "", fmt.Errorf("%s token cannot carry a target e-mail", kind)
	}

	now := c.now()
	claims := &Claims{
		Kind:        kind,
		TargetEmail: targetEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(c.method, claims)
	return token.SignedString(c.secret)
}

// Parse verifies token and returns its claims if it is a well-formed,
// unexpired token of the wanted kind.
func (c *TokenCodec) Parse(tokenString string, want Kind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Kind != want {
		return nil, ErrInvalidToken
	}
	if claims.TargetEmail != "" && claims.Kind != KindEmailAction {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims.userID = id

	return claims, nil
}
