package memory

import (
	"context"
	"strings"

	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

type userRepo struct {
	db *DB
}

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.db.data.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&user.BaseModel)
	r.db.data.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.data.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.db.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *userRepo) CountSuperAdmins(_ context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, u := range r.db.data.users {
		if u.IsSuperAdmin {
			n++
		}
	}
	return n, nil
}

// SetUserStatus - тестовый хелпер
func (d *DB) SetUserStatus(id string, status models.UserStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.data.users[id]; ok {
		u.Status = status
		d.data.users[id] = u
	}
}
