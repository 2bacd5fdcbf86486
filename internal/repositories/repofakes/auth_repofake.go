package repofakes

import (
	"time"

	"gym_backend/internal/models"
	"gym_backend/internal/repositories"
)

type authRepo struct{ s *Store }

// NewAuthRepository returns an AuthRepository over the store.
func NewAuthRepository(s *Store) repositories.AuthRepository { return &authRepo{s: s} }

func (r *authRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return 0, r.s.FailWith
	}
	for _, u := range r.s.Users {
		if u.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	user.ID = r.s.id()
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	if user.RoleID != nil {
		for _, role := range r.s.Roles {
			if role.ID == *user.RoleID {
				rc := *role
				cp.Role = &rc
			}
		}
	}
	r.s.Users[user.ID] = &cp
	r.s.Hashes[user.ID] = hashedPassword
	return user.ID, nil
}

func (r *authRepo) FindUserByUsername(username string) (*models.User, string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, "", r.s.FailWith
	}
	for id, u := range r.s.Users {
		if u.Username == username {
			cp := *u
			return &cp, r.s.Hashes[id], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (r *authRepo) FindUserByID(userID int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	u, ok := r.s.Users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *authRepo) FindRoleByName(name string) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailWith != nil {
		return nil, r.s.FailWith
	}
	role, ok := r.s.Roles[name]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *role
	return &cp, nil
}
