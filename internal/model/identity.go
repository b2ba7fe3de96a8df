package model

// Role names the kind of actor using the platform.
type Role string

const (
    RoleCustomer Role = "customer"
    RoleProvider Role = "provider"
    RoleAdmin    Role = "admin"
)

// ParseRole returns the Role matching s exactly.  Roles are lower case on
// the wire; anything else is rejected.
func ParseRole(s string) (Role, bool) {
    switch r := Role(s); r {
    case RoleCustomer, RoleProvider, RoleAdmin:
        return r, true
    }
    return "", false
}

// Identity is the signed-in actor.  For providers ID is also the
// provider id that bookings are addressed to.
type Identity struct {
    ID   uint64 `json:"id"`
    Role Role   `json:"role"`
    Name string `json:"name"`
}
