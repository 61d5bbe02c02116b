package models

import "time"

// UserRole represents the staff roles known to the roster.
type UserRole string

const (
	RoleNurse     UserRole = "nurse"
	RoleHeadNurse UserRole = "head_nurse"
)

// User represents a staff member from the users table.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Assignable reports whether the user may receive new shift assignments.
func (u *User) Assignable() bool {
	return u != nil && u.Active && u.Role == RoleNurse
}

// Actor is an already-authenticated caller.
type Actor struct {
	ID   string
	Role UserRole
}

// IsHeadNurse reports whether the actor holds the privileged role.
func (a Actor) IsHeadNurse() bool {
	return a.Role == RoleHeadNurse
}
