package domain

import "time"

// UserRole distinguishes regular users from administrators.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is the single canonical user shape read by the submission path.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Credits   int       `db:"credits" json:"credits"`
	Role      UserRole  `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsAdmin returns true for admin users.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanRead reports whether the user may read a job owned by ownerID.
func (u *User) CanRead(ownerID int64) bool {
	return u.ID == ownerID || u.IsAdmin()
}
