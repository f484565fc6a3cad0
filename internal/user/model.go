package user

import (
	"time"

	"github.com/google/uuid"
)

// User is a snapshot of one row of the user table. Repository methods return
// copies; mutating a User never touches storage.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:20;not null"`
	Surname      string    `gorm:"size:20;not null"`
	Username     string    `gorm:"size:20;uniqueIndex;not null"`
	Email        string    `gorm:"size:254;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:hashed_password;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	IsVerified   bool      `gorm:"not null;default:false"`
}

func (User) TableName() string {
	return "user"
}

// NewUser carries the fields supplied at registration.
type NewUser struct {
	Name         string
	Surname      string
	Username     string
	Email        string
	PasswordHash string
}

// ProfileUpdate holds the optional profile fields; nil means "leave as is".
type ProfileUpdate struct {
	Name     *string
	Surname  *string
	Username *string
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Surname == nil && p.Username == nil
}

func (p ProfileUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{}, 3)
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.Surname != nil {
		cols["surname"] = *p.Surname
	}
	if p.Username != nil {
		cols["username"] = *p.Username
	}
	return cols
}
