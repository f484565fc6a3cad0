package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/account-service/internal/config"
)

const (
	SchemeBcrypt   = "bcrypt"
	SchemeArgon2id = "argon2id"
)

// Argon2id parameters: time 3, memory 64MB, threads 4, 32 byte key.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

var ErrUnknownScheme = errors.New("unknown password hash scheme")

var supportedSchemes = []string{SchemeBcrypt, SchemeArgon2id}

// Hasher hashes passwords with the configured scheme and verifies digests
// produced by any supported scheme.
type Hasher struct {
	scheme     string
	deprecated map[string]bool
	bcryptCost int
}

func NewHasher(cfg *config.HashingConfig) (*Hasher, error) {
	h := &Hasher{
		scheme:     cfg.Scheme,
		deprecated: make(map[string]bool),
		bcryptCost: cfg.BcryptCost,
	}
	if h.scheme != SchemeBcrypt && h.scheme != SchemeArgon2id {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, h.scheme)
	}
	if h.bcryptCost == 0 {
		h.bcryptCost = bcrypt.DefaultCost
	}
	if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", h.bcryptCost)
	}

	for _, s := range cfg.Deprecated {
		if s == "auto" {
			for _, other := range supportedSchemes {
				if other != h.scheme {
					h.deprecated[other] = true
				}
			}
			continue
		}
		h.deprecated[s] = true
	}
	delete(h.deprecated, h.scheme)

	return h, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	switch h.scheme {
	case SchemeArgon2id:
		return hashArgon2id(password)
	default:
		bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		return string(bytes), err
	}
}

// Verify reports whether password matches digest. Malformed digests and
// digests of unknown schemes never match.
func (h *Hasher) Verify(password, digest string) bool {
	switch schemeOf(digest) {
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
	case SchemeArgon2id:
		return verifyArgon2id(password, digest)
	default:
		return false
	}
}

// NeedsRehash reports whether digest was produced by a deprecated scheme or
// with parameters other than the current ones.
func (h *Hasher) NeedsRehash(digest string) bool {
	scheme := schemeOf(digest)
	if scheme == "" {
		return false
	}
	if h.deprecated[scheme] {
		return true
	}
	if scheme == SchemeBcrypt && h.scheme == SchemeBcrypt {
		cost, err := bcrypt.Cost([]byte(digest))
		return err == nil && cost != h.bcryptCost
	}
	return false
}

func schemeOf(digest string) string {
	switch {
	case strings.HasPrefix(digest, "$2a$"), strings.HasPrefix(digest, "$2b$"), strings.HasPrefix(digest, "$2y$"):
		return SchemeBcrypt
	case strings.HasPrefix(digest, "$argon2id$"):
		return SchemeArgon2id
	default:
		return ""
	}
}

// hashArgon2id encodes in the PHC string format:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
func hashArgon2id(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verifyArgon2id(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}
	// argon2 panics on a zero time or parallelism cost
	if iterations == 0 || threads == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}
