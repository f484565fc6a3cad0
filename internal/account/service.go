package account

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/elskow/account-service/internal/api"
	"github.com/elskow/account-service/internal/auth"
	"github.com/elskow/account-service/internal/mail"
	"github.com/elskow/account-service/internal/user"
)

const TokenTypeBearer = "bearer"

const (
	registrationSubject = "Registration confirmation"
	emailChangeSubject  = "Email change confirmation"
)

var (
	verificationPurpose = mail.Purpose{
		Heading: "Confirm your registration",
		Intro:   "Thank you for signing up. Follow the link below to verify your email address.",
		Path:    api.UserVerification,
	}
	emailChangePurpose = mail.Purpose{
		Heading: "Confirm your new email address",
		Intro:   "A change of the email address on your account was requested. Follow the link below to confirm it.",
		Path:    api.UserChangeEmailConfirmation,
	}
)

// Mailer delivers confirmation tokens.
type Mailer interface {
	SendConfirmation(ctx context.Context, recipients []string, subject, token string, purpose mail.Purpose) error
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

type Service struct {
	log        *zap.Logger
	repository user.Repository
	hasher     *auth.Hasher
	tokens     *auth.TokenCodec
	mailer     Mailer

	// verified against when the username is unknown
	dummyDigest string
}

func NewService(log *zap.Logger, repo user.Repository, hasher *auth.Hasher, tokens *auth.TokenCodec, mailer Mailer) (*Service, error) {
	dummy, err := hasher.Hash("dummy-password")
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &Service{
		log:         log,
		repository:  repo,
		hasher:      hasher,
		tokens:      tokens,
		mailer:      mailer,
		dummyDigest: dummy,
	}, nil
}

// Register creates an unverified account and mails a verification token to
// it. The account is kept when the mail cannot be delivered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	if err := validateInput(in); err != nil {
		return user.User{}, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repository.CreateUser(ctx, user.NewUser{
		Name:         in.Name,
		Surname:      in.Surname,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
	})
	if err != nil {
		return user.User{}, err
	}

	s.log.Info("user registered", zap.String("user_id", u.ID.String()))

	token, err := s.tokens.IssueEmailAction(u.ID, "")
	if err != nil {
		return user.User{}, fmt.Errorf("issue verification token: %w", err)
	}
	if err := s.mailer.SendConfirmation(ctx, []string{u.Email}, registrationSubject, token, verificationPurpose); err != nil {
		s.log.Warn("verification email not delivered",
			zap.String("user_id", u.ID.String()),
			zap.Error(err))
		return user.User{}, err
	}

	return u, nil
}

// VerifyEmail marks the token's user as verified. Repeating it is harmless.
func (s *Service) VerifyEmail(ctx context.Context, token string) (user.User, error) {
	claims, err := s.tokens.Parse(token, auth.KindEmailAction)
	if err != nil {
		return user.User{}, err
	}
	// change-email tokens only confirm the new address
	if claims.TargetEmail != "" {
		return user.User{}, ErrInvalidToken
	}

	u, err := s.repository.VerifyEmail(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, err
	}

	s.log.Info("email verified", zap.String("user_id", u.ID.String()))
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.repository.ListVerifiedUsers(ctx)
}

// Login exchanges credentials for an access and a refresh token. Unknown,
// unverified and wrong-password attempts are indistinguishable.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.repository.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if !s.hasher.Verify(password, u.PasswordHash) || !u.IsVerified {
		s.log.Debug("login rejected", zap.String("user_id", u.ID.String()))
		return TokenPair{}, ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, password)
	}

	access, err := s.tokens.IssueAccess(u.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	s.log.Info("user logged in", zap.String("user_id", u.ID.String()))
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

// rehash upgrades a digest made with a deprecated scheme. Failure does not
// fail the login.
func (s *Service) rehash(ctx context.Context, u user.User, password string) {
	digest, err := s.hasher.Hash(password)
	if err == nil {
		_, err = s.repository.UpdatePasswordHash(ctx, u.ID, digest)
	}
	if err != nil {
		s.log.Warn("failed to upgrade password hash",
			zap.String("user_id", u.ID.String()),
			zap.Error(err))
		return
	}
	s.log.Info("password hash upgraded", zap.String("user_id", u.ID.String()))
}

// Refresh issues a new access token for a principal resolved from a refresh
// token.
func (s *Service) Refresh(_ context.Context, principal user.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccess(principal.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	return TokenPair{AccessToken: access, TokenType: TokenTypeBearer}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, principal user.User, in ProfileInput) (user.User, error) {
	upd := user.ProfileUpdate{Name: in.Name, Surname: in.Surname, Username: in.Username}
	if upd.IsEmpty() {
		return user.User{}, ErrNoFieldsToUpdate
	}
	if err := validateInput(in); err != nil {
		return user.User{}, err
	}

	u, err := s.repository.UpdateProfile(ctx, principal.ID, upd)
	if err != nil {
		return user.User{}, err
	}

	s.log.Info("profile updated", zap.String("user_id", u.ID.String()))
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, principal user.User, in ChangePasswordInput) (user.User, error) {
	if err := validateInput(in); err != nil {
		return user.User{}, err
	}
	if !s.hasher.Verify(in.OldPassword, principal.PasswordHash) {
		return user.User{}, ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.repository.UpdatePasswordHash(ctx, principal.ID, digest)
	if err != nil {
		return user.User{}, err
	}

	s.log.Info("password changed", zap.String("user_id", u.ID.String()))
	return u, nil
}

// ChangeEmail mails a confirmation token to the new address. The account is
// not modified until the token is confirmed.
func (s *Service) ChangeEmail(ctx context.Context, principal user.User, in ChangeEmailInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.Email == principal.Email {
		return ErrSameEmail
	}

	token, err := s.tokens.IssueEmailAction(principal.ID, in.Email)
	if err != nil {
		return fmt.Errorf("issue email change token: %w", err)
	}
	if err := s.mailer.SendConfirmation(ctx, []string{in.Email}, emailChangeSubject, token, emailChangePurpose); err != nil {
		s.log.Warn("email change confirmation not delivered",
			zap.String("user_id", principal.ID.String()),
			zap.Error(err))
		return err
	}

	s.log.Info("email change requested", zap.String("user_id", principal.ID.String()))
	return nil
}

func (s *Service) ConfirmEmailChange(ctx context.Context, token string) (user.User, error) {
	claims, err := s.tokens.Parse(token, auth.KindEmailAction)
	if err != nil {
		return user.User{}, err
	}
	if claims.TargetEmail == "" {
		return user.User{}, ErrInvalidToken
	}

	current, err := s.repository.GetUserByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, err
	}
	if !current.IsVerified {
		return user.User{}, ErrInvalidToken
	}
	if current.Email == claims.TargetEmail {
		return current, nil
	}

	u, err := s.repository.UpdateEmail(ctx, current.ID, claims.TargetEmail)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, err
	}

	s.log.Info("email changed", zap.String("user_id", u.ID.String()))
	return u, nil
}

func (s *Service) DeleteAccount(ctx context.Context, principal user.User) error {
	if err := s.repository.DeleteUser(ctx, principal.ID); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("user_id", principal.ID.String()))
	return nil
}
