package account

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLength = 8
	// bcrypt refuses longer input
	maxPasswordBytes = 72
	passwordSymbols   = "!@#$%^&*()-_=+[{]};:'\",<.>/?\\|`~"
)

var (
	personNamePattern = regexp.MustCompile(`^[a-zA-Zа-яА-ЯёЁ\- ]+$`)
	usernamePattern   = regexp.MustCompile(`^[0-9a-zA-Zа-яА-ЯёЁ\-_]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "passwordlength", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// IsStrongPassword requires at least eight characters including an upper-case
// letter, a lower-case letter, a digit and one of passwordSymbols.
func IsStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

type RegisterInput struct {
	Name                 string `json:"name" validate:"min=1,max=20,personname"`
	Surname              string `json:"surname" validate:"min=1,max=20,personname"`
	Username             string `json:"username" validate:"min=1,max=20,username"`
	Email                string `json:"email" validate:"required,max=254,email"`
	Password             string `json:"password1" validate:"passwordlength,strongpassword"`
	PasswordConfirmation string `json:"password2" validate:"eqfield=Password"`
}

type ProfileInput struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=20,personname"`
	Surname  *string `json:"surname" validate:"omitnil,min=1,max=20,personname"`
	Username *string `json:"username" validate:"omitnil,min=1,max=20,username"`
}

type ChangePasswordInput struct {
	OldPassword          string `json:"old_password" validate:"required"`
	NewPassword          string `json:"password1" validate:"passwordlength,strongpassword"`
	PasswordConfirmation string `json:"password2" validate:"eqfield=NewPassword"`
}

type ChangeEmailInput struct {
	Email string `json:"email" validate:"required,max=254,email"`
}

// validateInput runs the struct rules and maps the first violation onto the
// error taxonomy.
func validateInput(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "strongpassword":
		return ErrWeakPassword
	case "eqfield":
		return ErrPasswordMismatch
	}

	field := fieldName(fe)
	switch fe.Tag() {
	case "min", "max", "required", "passwordlength":
		return fmt.Errorf("%w: incorrect %s length", ErrInvalidField, field)
	case "email":
		return fmt.Errorf("%w: %s is not a valid email address", ErrInvalidField, field)
	default:
		return fmt.Errorf("%w: the %s contains incorrect symbols", ErrInvalidField, field)
	}
}

func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}
