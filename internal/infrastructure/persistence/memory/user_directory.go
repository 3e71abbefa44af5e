package memory

import (
	"sync"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
	"github.com/tyler-paryz/oompa-social/internal/domain/user"
)

// UserDirectory is a read-mostly registry of users.
type UserDirectory struct {
	mu      sync.RWMutex
	users   []user.User
	byID    map[string]int
	byEmail map[string]int
}

// Compile-time check.
var _ user.Directory = (*UserDirectory)(nil)

// NewUserDirectory creates a directory holding users.
// Later entries with an already known id replace the earlier ones.
func NewUserDirectory(users ...user.User) *UserDirectory {
	d := &UserDirectory{
		byID:    make(map[string]int),
		byEmail: make(map[string]int),
	}
	for _, u := range users {
		d.Add(u)
	}
	return d
}

// Add registers u.
func (d *UserDirectory) Add(u user.User) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pos, ok := d.byID[u.ID]; ok {
		delete(d.byEmail, d.users[pos].Email)
		d.users[pos] = u
	} else {
		d.byID[u.ID] = len(d.users)
		d.users = append(d.users, u)
	}
	if u.Email != "" {
		d.byEmail[u.Email] = d.byID[u.ID]
	}
}

// GetByID implements user.Directory.
func (d *UserDirectory) GetByID(id string) (user.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	pos, ok := d.byID[id]
	if !ok {
		return user.User{}, shared.ErrUserNotFound
	}
	return d.users[pos], nil
}

// GetByEmail implements user.Directory.
func (d *UserDirectory) GetByEmail(email string) (user.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	pos, ok := d.byEmail[email]
	if !ok {
		return user.User{}, shared.ErrUserNotFound
	}
	return d.users[pos], nil
}

// List implements user.Directory.
func (d *UserDirectory) List() []user.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]user.User{}, d.users...)
}

