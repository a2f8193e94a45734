package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cartmate/backend/models"
	"cartmate/backend/store"
)

// setupStore points the package-level document store at a fresh in-memory
// instance for the duration of one test.
func setupStore(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	prev := store.Docs
	store.Docs = mem
	t.Cleanup(func() { store.Docs = prev })
	return mem
}

func seedList(t *testing.T, mem *store.Memory, list *models.ShoppingList) string {
	t.Helper()
	id, err := mem.Create(context.Background(), models.ListsCollection, list)
	if err != nil {
		t.Fatalf("Failed to seed list: %v", err)
	}
	return id
}

func fetchSeededList(t *testing.T, mem *store.Memory, id string) *models.ShoppingList {
	t.Helper()
	doc, err := mem.Get(context.Background(), models.ListsCollection, id)
	if err != nil {
		t.Fatalf("Failed to fetch list %s: %v", id, err)
	}
	list, err := models.ListFromDoc(doc)
	if err != nil {
		t.Fatalf("Failed to decode list %s: %v", id, err)
	}
	return list
}

// countingStore wraps a Store and counts mutating calls, so tests can assert
// that denied operations never reach the store.
type countingStore struct {
	store.Store
	writes int
}

func (c *countingStore) Create(ctx context.Context, collection string, data interface{}) (string, error) {
	c.writes++
	return c.Store.Create(ctx, collection, data)
}

func (c *countingStore) Set(ctx context.Context, collection, id string, data interface{}) error {
	c.writes++
	return c.Store.Set(ctx, collection, id, data)
}

func (c *countingStore) Update(ctx context.Context, collection, id string, updates []store.Update) error {
	c.writes++
	return c.Store.Update(ctx, collection, id, updates)
}

func (c *countingStore) Delete(ctx context.Context, collection, id string) error {
	c.writes++
	return c.Store.Delete(ctx, collection, id)
}

func baseList(owner string) *models.ShoppingList {
	now := time.Now().Add(-48 * time.Hour)
	return &models.ShoppingList{
		Name:      "Groceries",
		Items:     []models.Item{},
		Owner:     owner,
		Editors:   []string{"editor-1"},
		Viewers:   []string{"viewer-1"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateList(t *testing.T) {
	mem := setupStore(t)

	list, err := CreateList(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	if list.ID == "" {
		t.Error("Expected a generated list id")
	}
	if list.Owner != "owner-1" {
		t.Errorf("Expected owner 'owner-1', got %q", list.Owner)
	}

	stored := fetchSeededList(t, mem, list.ID)
	if len(stored.Items) != 0 || len(stored.Editors) != 0 || len(stored.Viewers) != 0 {
		t.Error("Expected a new list to start empty")
	}
	if stored.Pinned {
		t.Error("Expected a new list to be unpinned")
	}
}

func TestUpdateListInfo(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))
	before := fetchSeededList(t, mem, id).UpdatedAt

	name := "Weekly shop"
	if err := UpdateListInfo(context.Background(), "editor-1", id, &name, nil); err != nil {
		t.Fatalf("UpdateListInfo failed: %v", err)
	}

	stored := fetchSeededList(t, mem, id)
	if stored.Name != "Weekly shop" {
		t.Errorf("Expected renamed list, got %q", stored.Name)
	}
	if !stored.UpdatedAt.After(before) {
		t.Error("Expected rename to bump updatedAt")
	}
}

func TestUpdateListInfoNothingToUpdate(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))

	err := UpdateListInfo(context.Background(), "owner-1", id, nil, nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestAddItem(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))

	item, err := AddItem(context.Background(), "owner-1", id, "  Milk  ")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.Name != "Milk" {
		t.Errorf("Expected trimmed name 'Milk', got %q", item.Name)
	}
	if item.Amount != 1 || item.Purchased || item.Price != nil {
		t.Errorf("Expected default item state, got %+v", item)
	}

	stored := fetchSeededList(t, mem, id)
	if len(stored.Items) != 1 || stored.Items[0].ID != item.ID {
		t.Errorf("Expected stored list to contain the new item, got %+v", stored.Items)
	}
}

func TestAddItemEmptyName(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))

	_, err := AddItem(context.Background(), "owner-1", id, "   ")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestEditItemPurchaseCoupling(t *testing.T) {
	mem := setupStore(t)
	list := baseList("owner-1")
	list.Items = []models.Item{{ID: "item-1", Name: "Milk", Amount: 1}}
	id := seedList(t, mem, list)

	purchased := true
	item, err := EditItem(context.Background(), "owner-1", id, "item-1", ItemUpdate{Purchased: &purchased})
	if err != nil {
		t.Fatalf("EditItem failed: %v", err)
	}
	if !item.Purchased || item.PurchaseDate == nil {
		t.Fatal("Expected purchasing an item to stamp its purchase date")
	}

	// Unpurchasing removes the date entirely.
	purchased = false
	item, err = EditItem(context.Background(), "owner-1", id, "item-1", ItemUpdate{Purchased: &purchased})
	if err != nil {
		t.Fatalf("EditItem failed: %v", err)
	}
	if item.Purchased || item.PurchaseDate != nil {
		t.Error("Expected unpurchasing to clear the purchase date")
	}

	stored := fetchSeededList(t, mem, id)
	if stored.Items[0].PurchaseDate != nil {
		t.Error("Expected stored item to have no purchase date")
	}
}

func TestEditItemPartialUpdate(t *testing.T) {
	mem := setupStore(t)
	list := baseList("owner-1")
	list.Items = []models.Item{{ID: "item-1", Name: "Milk", Store: "Corner shop", Amount: 1}}
	id := seedList(t, mem, list)

	price := 2.50
	amount := 3
	item, err := EditItem(context.Background(), "editor-1", id, "item-1", ItemUpdate{Price: &price, Amount: &amount})
	if err != nil {
		t.Fatalf("EditItem failed: %v", err)
	}
	if item.Price == nil || *item.Price != 2.50 || item.Amount != 3 {
		t.Errorf("Expected price and amount updated, got %+v", item)
	}
	if item.Name != "Milk" || item.Store != "Corner shop" {
		t.Errorf("Expected untouched fields preserved, got %+v", item)
	}
}

func TestEditItemValidation(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))

	badPrice := -1.0
	if _, err := EditItem(context.Background(), "owner-1", id, "item-1", ItemUpdate{Price: &badPrice}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for negative price, got %v", err)
	}

	badAmount := 0
	if _, err := EditItem(context.Background(), "owner-1", id, "item-1", ItemUpdate{Amount: &badAmount}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for zero amount, got %v", err)
	}
}

func TestEditItemNotFound(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))

	name := "Eggs"
	if _, err := EditItem(context.Background(), "owner-1", id, "missing", ItemUpdate{Name: &name}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected item not found, got %v", err)
	}
}

func TestRemoveItem(t *testing.T) {
	mem := setupStore(t)
	list := baseList("owner-1")
	list.Items = []models.Item{
		{ID: "item-1", Name: "Milk", Amount: 1},
		{ID: "item-2", Name: "Eggs", Amount: 2},
	}
	id := seedList(t, mem, list)

	if err := RemoveItem(context.Background(), "editor-1", id, "item-1"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}

	stored := fetchSeededList(t, mem, id)
	if len(stored.Items) != 1 || stored.Items[0].ID != "item-2" {
		t.Errorf("Expected only item-2 to remain, got %+v", stored.Items)
	}

	if err := RemoveItem(context.Background(), "editor-1", id, "item-1"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Expected item not found on second removal, got %v", err)
	}
}

func TestSetPinnedBumpsUpdatedAt(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))
	before := fetchSeededList(t, mem, id).UpdatedAt

	if err := SetPinned(context.Background(), "owner-1", id, true); err != nil {
		t.Fatalf("SetPinned failed: %v", err)
	}

	stored := fetchSeededList(t, mem, id)
	if !stored.Pinned {
		t.Error("Expected list to be pinned")
	}
	if !stored.UpdatedAt.After(before) {
		t.Error("Expected pinning to bump updatedAt")
	}
}

func TestDeleteListOwnerOnly(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))

	if err := DeleteList(context.Background(), "editor-1", id); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected permission denied for editor, got %v", err)
	}

	if err := DeleteList(context.Background(), "owner-1", id); err != nil {
		t.Fatalf("DeleteList failed: %v", err)
	}
	if _, err := mem.Get(context.Background(), models.ListsCollection, id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected list to be gone, got %v", err)
	}
}

func TestShareList(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))
	if err := mem.Set(context.Background(), models.UsersCollection, "friend-1", models.User{Email: "friend@example.com"}); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	if err := ShareList(context.Background(), "owner-1", id, "friend@example.com", "editor"); err != nil {
		t.Fatalf("ShareList failed: %v", err)
	}

	stored := fetchSeededList(t, mem, id)
	found := false
	for _, e := range stored.Editors {
		if e == "friend-1" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected friend-1 in editors, got %+v", stored.Editors)
	}

	// Sharing again with the same role leaves the membership unchanged.
	if err := ShareList(context.Background(), "owner-1", id, "friend@example.com", "editor"); err != nil {
		t.Fatalf("ShareList failed: %v", err)
	}
	stored = fetchSeededList(t, mem, id)
	count := 0
	for _, e := range stored.Editors {
		if e == "friend-1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected friend-1 exactly once in editors, got %+v", stored.Editors)
	}
}

func TestShareListUnknownEmailLeavesListUnchanged(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))
	before := fetchSeededList(t, mem, id)

	err := ShareList(context.Background(), "owner-1", id, "ghost@example.com", "viewer")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Expected user not found, got %v", err)
	}

	after := fetchSeededList(t, mem, id)
	if len(after.Editors) != len(before.Editors) || len(after.Viewers) != len(before.Viewers) {
		t.Error("Expected membership to be unchanged after a failed share")
	}
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("Expected updatedAt to be unchanged after a failed share")
	}
}

func TestShareListValidation(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))
	if err := mem.Set(context.Background(), models.UsersCollection, "owner-1", models.User{Email: "owner@example.com"}); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	if err := ShareList(context.Background(), "owner-1", id, "x@example.com", "admin"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for bad permission, got %v", err)
	}
	if err := ShareList(context.Background(), "owner-1", id, "  ", "viewer"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for empty email, got %v", err)
	}
	if err := ShareList(context.Background(), "owner-1", id, "owner@example.com", "viewer"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected validation error for sharing with the owner, got %v", err)
	}
	if err := ShareList(context.Background(), "editor-1", id, "owner@example.com", "viewer"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("Expected permission denied for non-owner, got %v", err)
	}
}

func TestViewerMutationsRejectedBeforeAnyWrite(t *testing.T) {
	mem := setupStore(t)
	list := baseList("owner-1")
	list.Items = []models.Item{{ID: "item-1", Name: "Milk", Amount: 1}}
	id := seedList(t, mem, list)

	counting := &countingStore{Store: mem}
	store.Docs = counting

	name := "Renamed"
	purchased := true
	attempts := []struct {
		name string
		call func() error
	}{
		{"rename", func() error { return UpdateListInfo(context.Background(), "viewer-1", id, &name, nil) }},
		{"add item", func() error { _, err := AddItem(context.Background(), "viewer-1", id, "Eggs"); return err }},
		{"edit item", func() error {
			_, err := EditItem(context.Background(), "viewer-1", id, "item-1", ItemUpdate{Purchased: &purchased})
			return err
		}},
		{"remove item", func() error { return RemoveItem(context.Background(), "viewer-1", id, "item-1") }},
		{"pin", func() error { return SetPinned(context.Background(), "viewer-1", id, true) }},
		{"share", func() error { return ShareList(context.Background(), "viewer-1", id, "x@example.com", "viewer") }},
		{"delete", func() error { return DeleteList(context.Background(), "viewer-1", id) }},
	}

	for _, attempt := range attempts {
		t.Run(attempt.name, func(t *testing.T) {
			if err := attempt.call(); !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("Expected permission denied, got %v", err)
			}
		})
	}

	if counting.writes != 0 {
		t.Errorf("Expected no writes to reach the store, got %d", counting.writes)
	}
}

func TestGetList(t *testing.T) {
	mem := setupStore(t)
	id := seedList(t, mem, baseList("owner-1"))

	list, role, err := GetList(context.Background(), "viewer-1", id)
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	if role != models.RoleViewer {
		t.Errorf("Expected viewer role, got %q", role)
	}
	if list.ID != id {
		t.Errorf("Expected list id %s, got %s", id, list.ID)
	}

	// A stranger still gets the list back with RoleNone; denial is rendered
	// by the caller.
	_, role, err = GetList(context.Background(), "stranger-1", id)
	if err != nil {
		t.Fatalf("GetList failed: %v", err)
	}
	if role != models.RoleNone {
		t.Errorf("Expected no role, got %q", role)
	}

	if _, _, err := GetList(context.Background(), "owner-1", "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestFetchAccessible(t *testing.T) {
	mem := setupStore(t)

	owned := baseList("me")
	owned.Editors, owned.Viewers = []string{}, []string{}
	ownedID := seedList(t, mem, owned)

	edited := baseList("other-1")
	edited.Editors = []string{"me"}
	editedID := seedList(t, mem, edited)

	viewed := baseList("other-2")
	viewed.Editors = []string{}
	viewed.Viewers = []string{"me"}
	viewedID := seedList(t, mem, viewed)

	unrelated := baseList("other-3")
	unrelated.Editors, unrelated.Viewers = []string{}, []string{}
	seedList(t, mem, unrelated)

	lists, err := FetchAccessible(context.Background(), "me")
	if err != nil {
		t.Fatalf("FetchAccessible failed: %v", err)
	}
	if len(lists) != 3 {
		t.Fatalf("Expected 3 accessible lists, got %d", len(lists))
	}

	rolesByID := map[string]models.Role{}
	for _, al := range lists {
		rolesByID[al.List.ID] = al.Role
	}
	if rolesByID[ownedID] != models.RoleOwner {
		t.Errorf("Expected owner role for %s, got %q", ownedID, rolesByID[ownedID])
	}
	if rolesByID[editedID] != models.RoleEditor {
		t.Errorf("Expected editor role for %s, got %q", editedID, rolesByID[editedID])
	}
	if rolesByID[viewedID] != models.RoleViewer {
		t.Errorf("Expected viewer role for %s, got %q", viewedID, rolesByID[viewedID])
	}
}
