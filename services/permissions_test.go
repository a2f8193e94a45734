package services

import (
	"testing"

	"cartmate/backend/models"
)

func TestResolveRole(t *testing.T) {
	list := &models.ShoppingList{
		Owner:   "owner-1",
		Editors: []string{"editor-1", "both-1"},
		Viewers: []string{"viewer-1", "both-1"},
	}

	testCases := []struct {
		name     string
		userID   string
		expected models.Role
	}{
		{
			name:     "Owner resolves to owner",
			userID:   "owner-1",
			expected: models.RoleOwner,
		},
		{
			name:     "Editor resolves to editor",
			userID:   "editor-1",
			expected: models.RoleEditor,
		},
		{
			name:     "Viewer resolves to viewer",
			userID:   "viewer-1",
			expected: models.RoleViewer,
		},
		{
			name:     "Editor wins over viewer",
			userID:   "both-1",
			expected: models.RoleEditor,
		},
		{
			name:     "Stranger resolves to none",
			userID:   "stranger-1",
			expected: models.RoleNone,
		},
		{
			name:     "Empty user id resolves to none",
			userID:   "",
			expected: models.RoleNone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			role := ResolveRole(list, tc.userID)
			if role != tc.expected {
				t.Errorf("Expected role %q, got %q", tc.expected, role)
			}
		})
	}
}

func TestResolveRoleOwnerWinsOverMembership(t *testing.T) {
	// An owner listed in the member arrays still resolves as owner.
	list := &models.ShoppingList{
		Owner:   "owner-1",
		Editors: []string{"owner-1"},
		Viewers: []string{"owner-1"},
	}

	if role := ResolveRole(list, "owner-1"); role != models.RoleOwner {
		t.Errorf("Expected role %q, got %q", models.RoleOwner, role)
	}
}

func TestCapabilities(t *testing.T) {
	testCases := []struct {
		role      models.Role
		canView   bool
		canEdit   bool
		canManage bool
	}{
		{models.RoleOwner, true, true, true},
		{models.RoleEditor, true, true, false},
		{models.RoleViewer, true, false, false},
		{models.RoleNone, false, false, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.role), func(t *testing.T) {
			if got := CanView(tc.role); got != tc.canView {
				t.Errorf("CanView(%q) = %v, expected %v", tc.role, got, tc.canView)
			}
			if got := CanEdit(tc.role); got != tc.canEdit {
				t.Errorf("CanEdit(%q) = %v, expected %v", tc.role, got, tc.canEdit)
			}
			if got := CanManage(tc.role); got != tc.canManage {
				t.Errorf("CanManage(%q) = %v, expected %v", tc.role, got, tc.canManage)
			}
		})
	}
}
