package models

// Role is the access level assigned to a user account
type Role string

// Role constants
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a user in the system
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         Role   `json:"role"`
}
