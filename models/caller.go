package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller is the authenticated identity of the current request. It is passed
// explicitly from the handler down to every ownership decision.
type Caller struct {
	ID   primitive.ObjectID
	Role Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// CanManage reports whether the caller owns the resource or is an admin.
func (c Caller) CanManage(owner primitive.ObjectID) bool {
	return c.IsAdmin() || (!c.ID.IsZero() && c.ID == owner)
}
