package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateCredential is returned when a username or e-mail unique
	// constraint rejects a write.
	ErrDuplicateCredential = errors.New("user with this credentials already exists")
)

type Repository interface {
	CreateUser(ctx context.Context, in NewUser) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListVerifiedUsers(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (User, error)
	VerifyEmail(ctx context.Context, id uuid.UUID) (User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) (User, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *repository) CreateUser(ctx context.Context, in NewUser) (User, error) {
	now := r.now()
	u := User{
		ID:           uuid.New(),
		Name:         in.Name,
		Surname:      in.Surname,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&u).Error
	})
	if err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

func (r *repository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *repository) ListVerifiedUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := r.db.WithContext(ctx).
		Where("is_verified = ?", true).
		Order("created_at").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (User, error) {
	return r.update(ctx, id, upd.columns())
}

// VerifyEmail flips is_verified to true. Verifying an already verified user
// returns the stored row unchanged.
func (r *repository) VerifyEmail(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&User{}).
			Where("id = ? AND is_verified = ?", id, false).
			Updates(map[string]interface{}{
				"is_verified": true,
				"updated_at":  r.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		return tx.Where("id = ?", id).First(&u).Error
	})
	if err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

func (r *repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) (User, error) {
	return r.update(ctx, id, map[string]interface{}{"hashed_password": hash})
}

func (r *repository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (User, error) {
	return r.update(ctx, id, map[string]interface{}{"email": email})
}

func (r *repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *repository) first(ctx context.Context, query string, arg interface{}) (User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

// update applies cols and reads the row back inside one transaction so the
// returned snapshot is exactly what was committed.
func (r *repository) update(ctx context.Context, id uuid.UUID, cols map[string]interface{}) (User, error) {
	cols["updated_at"] = r.now()

	var u User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&User{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Where("id = ?", id).First(&u).Error
	})
	if err != nil {
		return User{}, translate(err)
	}
	return u, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateCredential
	default:
		return err
	}
}
