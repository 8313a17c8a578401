package domain

import "time"

// Role is the closed set of principal roles. Comparison is exact and
// case-sensitive; no role implies another.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Principal models an account able to log in. It is created once and never
// mutated.
type Principal struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// View returns the public projection, which never carries the hash.
func (p *Principal) View() *PrincipalView {
	return &PrincipalView{ID: p.ID, Username: p.Username, Role: p.Role}
}

// PrincipalView is the authenticated identity attached to a request.
type PrincipalView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
