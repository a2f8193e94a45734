package models

// Store collections
const (
	UsersCollection = "users"
	ListsCollection = "shoppingLists"
)

// Role is a user's resolved access level on a shopping list.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = "none"
)
