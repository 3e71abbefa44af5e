package user

// Directory is the read-only lookup of known users.
// Implementations live in infrastructure/persistence.
type Directory interface {
	// GetByID returns the user with the given id.
	// Returns shared.ErrUserNotFound if there is none.
	GetByID(id string) (User, error)

	// GetByEmail returns the user registered with email (exact match).
	// Returns shared.ErrUserNotFound if there is none.
	GetByEmail(email string) (User, error)

	// List returns all users in registration order.
	List() []User
}

// DisplayName returns the user's name, or the id when the user is unknown.
func DisplayName(dir Directory, id string) string {
	if dir == nil {
		return id
	}
	u, err := dir.GetByID(id)
	if err != nil || u.Name == "" {
		return id
	}
	return u.Name
}
