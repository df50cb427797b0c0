package service

// RoleAdmin is the role whose holders may act on any assignment and
// manage contests.
const RoleAdmin = "admin"

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the actor holds administrative privileges.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanActOn reports whether the actor may respond to or score an
// assignment held by evaluatorID.
func (a Actor) CanActOn(evaluatorID uint) bool {
	return a.IsAdmin() || a.ID == evaluatorID
}
