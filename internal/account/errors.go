package account

import (
	"errors"
	"fmt"

	"github.com/elskow/account-service/internal/auth"
	"github.com/elskow/account-service/internal/mail"
	"github.com/elskow/account-service/internal/user"
)

var (
	ErrInvalidField       = errors.New("invalid field")
	ErrWeakPassword       = errors.New("the password is weak")
	ErrPasswordMismatch   = errors.New("the passwords do not match")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrNoFieldsToUpdate   = errors.New("at least one parameter must be provided")

	ErrDuplicateCredential = user.ErrDuplicateCredential
	ErrInvalidToken        = auth.ErrInvalidToken
	ErrUnauthenticated     = auth.ErrUnauthenticated
	ErrDeliveryFailure     = mail.ErrDeliveryFailure

	ErrSameEmail = fmt.Errorf("%w: the user already uses this email", ErrDuplicateCredential)
)
