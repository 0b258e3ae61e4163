package models

// Role is the staff role of a user
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleServer  Role = "Server"
	RoleKitchen Role = "Kitchen"
	RoleCashier Role = "Cashier"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleServer, RoleKitchen, RoleCashier:
		return true
	}
	return false
}

// User is a staff member. PINHash never leaves the process.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	Email   string `json:"email"`
	PINHash []byte `json:"-"`
	Active  bool   `json:"active"`
}

// Clone returns a copy that shares no bytes with u
func (u User) Clone() User {
	u.PINHash = append([]byte(nil), u.PINHash...)
	return u
}
