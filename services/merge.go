package services

import (
	"sync"

	"cartmate/backend/models"
)

// DashboardMerger reduces the three dashboard query streams (owned, edited,
// viewed) into one list set keyed by list id. Each stream delivers its full
// result set on every change; the merger keeps the latest payload seen for
// each id (last update wins when the same list arrives on more than one
// stream) and derives the role from current stream membership, owner taking
// precedence over editor over viewer.
type DashboardMerger struct {
	mu      sync.Mutex
	streams map[models.Role]map[string]bool
	latest  map[string]*models.ShoppingList
}

func NewDashboardMerger() *DashboardMerger {
	return &DashboardMerger{
		streams: map[models.Role]map[string]bool{
			models.RoleOwner:  {},
			models.RoleEditor: {},
			models.RoleViewer: {},
		},
		latest: map[string]*models.ShoppingList{},
	}
}

// Apply replaces one stream's result set and returns the merged state.
func (m *DashboardMerger) Apply(role models.Role, lists []*models.ShoppingList) []AccessibleList {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := map[string]bool{}
	for _, l := range lists {
		ids[l.ID] = true
		m.latest[l.ID] = l
	}
	m.streams[role] = ids

	// Drop payloads for lists no stream reports anymore.
	for id := range m.latest {
		if !m.streams[models.RoleOwner][id] &&
			!m.streams[models.RoleEditor][id] &&
			!m.streams[models.RoleViewer][id] {
			delete(m.latest, id)
		}
	}

	out := make([]AccessibleList, 0, len(m.latest))
	for id, list := range m.latest {
		out = append(out, AccessibleList{List: list, Role: m.roleOf(id)})
	}
	return out
}

func (m *DashboardMerger) roleOf(id string) models.Role {
	for _, role := range []models.Role{models.RoleOwner, models.RoleEditor, models.RoleViewer} {
		if m.streams[role][id] {
			return role
		}
	}
	return models.RoleNone
}
