package services

import (
	"cartmate/backend/models"
)

// ResolveRole derives the requester's effective role on a list. Owner wins
// over editor, editor over viewer; anything else, including an empty
// (unauthenticated) user id, resolves to RoleNone. RoleNone is a legitimate
// resolved state, not an error.
func ResolveRole(list *models.ShoppingList, userID string) models.Role {
	if userID == "" {
		return models.RoleNone
	}
	if list.Owner == userID {
		return models.RoleOwner
	}
	for _, id := range list.Editors {
		if id == userID {
			return models.RoleEditor
		}
	}
	for _, id := range list.Viewers {
		if id == userID {
			return models.RoleViewer
		}
	}
	return models.RoleNone
}

// CanEdit reports whether the role may mutate items, the title and the pin
// state of a list.
func CanEdit(role models.Role) bool {
	return role == models.RoleOwner || role == models.RoleEditor
}

// CanManage reports whether the role may grant or revoke membership and
// delete the list.
func CanManage(role models.Role) bool {
	return role == models.RoleOwner
}

// CanView reports whether the role may read the list at all.
func CanView(role models.Role) bool {
	return role != models.RoleNone
}
