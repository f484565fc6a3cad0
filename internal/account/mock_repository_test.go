package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elskow/account-service/internal/user"
)

// memoryRepository keeps users in a map and enforces the same uniqueness
// rules as the user table.
type memoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]user.User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[uuid.UUID]user.User)}
}

func (r *memoryRepository) conflicts(id uuid.UUID, username, email string) bool {
	for _, u := range r.users {
		if u.ID == id {
			continue
		}
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

func (r *memoryRepository) CreateUser(_ context.Context, in user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflicts(uuid.Nil, in.Username, in.Email) {
		return user.User{}, user.ErrDuplicateCredential
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Surname:      in.Surname,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryRepository) GetUserByID(_ context.Context, id uuid.UUID) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.Username == username })
}

func (r *memoryRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	return r.find(func(u user.User) bool { return u.Email == email })
}

func (r *memoryRepository) find(match func(user.User) bool) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (r *memoryRepository) ListVerifiedUsers(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []user.User
	for _, u := range r.users {
		if u.IsVerified {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, id uuid.UUID, upd user.ProfileUpdate) (user.User, error) {
	return r.mutate(id, func(u *user.User) {
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Surname != nil {
			u.Surname = *upd.Surname
		}
		if upd.Username != nil {
			u.Username = *upd.Username
		}
	})
}

func (r *memoryRepository) VerifyEmail(_ context.Context, id uuid.UUID) (user.User, error) {
	r.mu.RLock()
	u, ok := r.users[id]
	r.mu.RUnlock()
	if ok && u.IsVerified {
		return u, nil
	}
	return r.mutate(id, func(u *user.User) { u.IsVerified = true })
}

func (r *memoryRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) (user.User, error) {
	return r.mutate(id, func(u *user.User) { u.PasswordHash = hash })
}

func (r *memoryRepository) UpdateEmail(_ context.Context, id uuid.UUID, email string) (user.User, error) {
	return r.mutate(id, func(u *user.User) { u.Email = email })
}

func (r *memoryRepository) DeleteUser(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return user.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepository) mutate(id uuid.UUID, apply func(*user.User)) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	apply(&u)
	if r.conflicts(id, u.Username, u.Email) {
		return user.User{}, user.ErrDuplicateCredential
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return u, nil
}

func (r *memoryRepository) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
