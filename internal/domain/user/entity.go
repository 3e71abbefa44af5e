// Package user contains the user model of the Oompa social network.
//
// Users are immutable once created: profile editing is not supported, so the
// type is passed by value everywhere.
package user

import (
	"strings"
	"time"

	"github.com/tyler-paryz/oompa-social/internal/domain/shared"
)

// User is a member of the network.
type User struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Email    string    `json:"email" yaml:"email"`
	Avatar   string    `json:"avatar" yaml:"avatar"`
	Role     string    `json:"role" yaml:"role"`
	Bio      string    `json:"bio" yaml:"bio"`
	JoinDate time.Time `json:"join_date" yaml:"joinDate"`
}

// IsZero reports whether u is the empty user.
func (u User) IsZero() bool {
	return u.ID == ""
}

// FirstName returns the first word of the display name.
func (u User) FirstName() string {
	if i := strings.IndexByte(u.Name, ' '); i > 0 {
		return u.Name[:i]
	}
	return u.Name
}

// NewUserParams holds the fields accepted when creating a user.
type NewUserParams struct {
	ID       string
	Name     string
	Email    string
	Avatar   string
	Role     string
	Bio      string
	JoinDate time.Time
}

// NewUser creates a User. Only the id is required.
func NewUser(params NewUserParams) (User, error) {
	if strings.TrimSpace(params.ID) == "" {
		return User{}, shared.ErrInvalidUserID
	}
	return User{
		ID:       params.ID,
		Name:     params.Name,
		Email:    params.Email,
		Avatar:   params.Avatar,
		Role:     params.Role,
		Bio:      params.Bio,
		JoinDate: params.JoinDate,
	}, nil
}
