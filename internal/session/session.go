// Package session keeps server-side session records keyed by an opaque id.
// The browser only holds a signed token naming the session; identity and the
// in-progress cart live in the Store.
package session

import (
	"slices"
	"time"
)

// Session is the server-side state of one logged-in browser.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	Cart      Cart      `json:"cart"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// Cart is the "panel": an ordered set of part ids pending order.
type Cart struct {
	PartIDs []uint `json:"part_ids"`
}

// Add appends id unless it is already present. It reports whether the cart changed.
func (c *Cart) Add(id uint) bool {
	if c.Contains(id) {
		return false
	}
	c.PartIDs = append(c.PartIDs, id)
	return true
}

// Remove deletes id from the cart. It reports whether id was present.
func (c *Cart) Remove(id uint) bool {
	i := slices.Index(c.PartIDs, id)
	if i < 0 {
		return false
	}
	c.PartIDs = slices.Delete(c.PartIDs, i, i+1)
	return true
}

// Contains reports whether id is in the cart.
func (c *Cart) Contains(id uint) bool {
	return slices.Contains(c.PartIDs, id)
}

// IDs returns a copy of the cart contents in insertion order.
func (c *Cart) IDs() []uint {
	return slices.Clone(c.PartIDs)
}

// Len returns the number of parts in the cart.
func (c *Cart) Len() int {
	return len(c.PartIDs)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.PartIDs = nil
}

// Role is the authorization level of a request.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Principal is the typed identity behind a request.
type Principal struct {
	Role     Role
	UserID   uint
	Username string
	Session  *Session
}

// Anonymous is the principal of a request without a valid session.
var Anonymous = Principal{Role: RoleAnonymous}

// PrincipalFor derives the principal of s. A nil session is anonymous.
func PrincipalFor(s *Session) Principal {
	if s == nil || s.UserID == 0 {
		return Anonymous
	}
	role := RoleUser
	if s.IsAdmin {
		role = RoleAdmin
	}
	return Principal{Role: role, UserID: s.UserID, Username: s.Username, Session: s}
}

// IsAuthenticated reports whether the principal is a logged-in user or admin.
func (p Principal) IsAuthenticated() bool {
	return p.Role != RoleAnonymous
}

// IsAdmin reports whether the principal is an administrator.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
