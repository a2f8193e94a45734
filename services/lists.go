package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cartmate/backend/models"
	"cartmate/backend/store"
)

var (
	// ErrPermissionDenied means the resolved role is insufficient for the
	// requested operation. It is raised before any write is attempted.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUserNotFound means a share target email has no user document.
	ErrUserNotFound = errors.New("user not found")

	// ErrItemNotFound means the referenced item is not in the list.
	ErrItemNotFound = errors.New("item not found")

	// ErrValidation marks request payloads rejected before any store call.
	ErrValidation = errors.New("invalid request")
)

// ItemUpdate is a partial edit of an item. Nil fields are left untouched.
type ItemUpdate struct {
	Name      *string  `json:"name,omitempty"`
	Store     *string  `json:"store,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Amount    *int     `json:"amount,omitempty"`
	Purchased *bool    `json:"purchased,omitempty"`
}

// CreateList creates an empty list owned by the caller.
func CreateList(ctx context.Context, ownerID string) (*models.ShoppingList, error) {
	now := time.Now()
	list := &models.ShoppingList{
		Name:        "",
		Description: "",
		Items:       []models.Item{},
		Owner:       ownerID,
		Editors:     []string{},
		Viewers:     []string{},
		Pinned:      false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := store.Docs.Create(ctx, models.ListsCollection, list)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	list.ID = id
	return list, nil
}

// GetList fetches a list and resolves the caller's role on it. A RoleNone
// result is returned without error; the caller renders it as a denied state.
func GetList(ctx context.Context, userID, listID string) (*models.ShoppingList, models.Role, error) {
	list, err := fetchList(ctx, listID)
	if err != nil {
		return nil, models.RoleNone, err
	}
	return list, ResolveRole(list, userID), nil
}

// UpdateListInfo renames a list and/or changes its description.
func UpdateListInfo(ctx context.Context, userID, listID string, name, description *string) error {
	if name == nil && description == nil {
		return fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if _, err := requireEditor(ctx, userID, listID); err != nil {
		return err
	}
	updates := []store.Update{{Path: "updatedAt", Value: store.ServerTimestamp}}
	if name != nil {
		updates = append(updates, store.Update{Path: "name", Value: *name})
	}
	if description != nil {
		updates = append(updates, store.Update{Path: "description", Value: *description})
	}
	return store.Docs.Update(ctx, models.ListsCollection, listID, updates)
}

// AddItem appends a new unpurchased item with amount 1.
func AddItem(ctx context.Context, userID, listID, name string) (*models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if _, err := requireEditor(ctx, userID, listID); err != nil {
		return nil, err
	}
	item := models.Item{
		ID:        uuid.New().String(),
		Name:      name,
		Purchased: false,
		Amount:    1,
	}
	err := store.Docs.Update(ctx, models.ListsCollection, listID, []store.Update{
		{Path: "items", Value: store.ArrayUnion(item)},
		{Path: "updatedAt", Value: store.ServerTimestamp},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %w", err)
	}
	return &item, nil
}

// EditItem merges a partial update into one item. Toggling purchased keeps
// purchaseDate strictly coupled: false→true stamps it, true→false removes it.
func EditItem(ctx context.Context, userID, listID, itemID string, upd ItemUpdate) (*models.Item, error) {
	if upd.Price != nil && *upd.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if upd.Amount != nil && *upd.Amount < 1 {
		return nil, fmt.Errorf("%w: amount must be a positive integer", ErrValidation)
	}

	list, err := requireEditor(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	item := list.FindItem(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}

	if upd.Name != nil {
		item.Name = *upd.Name
	}
	if upd.Store != nil {
		item.Store = *upd.Store
	}
	if upd.Price != nil {
		item.Price = upd.Price
	}
	if upd.Amount != nil {
		item.Amount = *upd.Amount
	}
	if upd.Purchased != nil {
		if *upd.Purchased && item.PurchaseDate == nil {
			now := time.Now()
			item.PurchaseDate = &now
		} else if !*upd.Purchased {
			item.PurchaseDate = nil
		}
		item.Purchased = *upd.Purchased
	}

	err = store.Docs.Update(ctx, models.ListsCollection, listID, []store.Update{
		{Path: "items", Value: list.Items},
		{Path: "updatedAt", Value: store.ServerTimestamp},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

// RemoveItem removes an item by identity match.
func RemoveItem(ctx context.Context, userID, listID, itemID string) error {
	list, err := requireEditor(ctx, userID, listID)
	if err != nil {
		return err
	}
	item := list.FindItem(itemID)
	if item == nil {
		return ErrItemNotFound
	}
	err = store.Docs.Update(ctx, models.ListsCollection, listID, []store.Update{
		{Path: "items", Value: store.ArrayRemove(*item)},
		{Path: "updatedAt", Value: store.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	return nil
}

// SetPinned pins or unpins a list.
func SetPinned(ctx context.Context, userID, listID string, pinned bool) error {
	if _, err := requireEditor(ctx, userID, listID); err != nil {
		return err
	}
	return store.Docs.Update(ctx, models.ListsCollection, listID, []store.Update{
		{Path: "pinned", Value: pinned},
		{Path: "updatedAt", Value: store.ServerTimestamp},
	})
}

// DeleteList removes a list and, with it, every item it contains. Owner only.
func DeleteList(ctx context.Context, userID, listID string) error {
	list, err := fetchList(ctx, listID)
	if err != nil {
		return err
	}
	if !CanManage(ResolveRole(list, userID)) {
		return ErrPermissionDenied
	}
	return store.Docs.Delete(ctx, models.ListsCollection, listID)
}

// ShareList looks up a user by email and adds them to the list's editors or
// viewers. Owner only. The lookup and the membership write are two separate
// document operations; a failure between them leaves the list unmodified.
func ShareList(ctx context.Context, userID, listID, email, permission string) error {
	if permission != "editor" && permission != "viewer" {
		return fmt.Errorf("%w: permission must be editor or viewer", ErrValidation)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	list, err := fetchList(ctx, listID)
	if err != nil {
		return err
	}
	if !CanManage(ResolveRole(list, userID)) {
		return ErrPermissionDenied
	}

	docs, err := store.Docs.Query(ctx, models.UsersCollection, []store.Filter{
		{Path: "email", Op: "==", Value: email},
	})
	if err != nil {
		return fmt.Errorf("failed to look up user by email: %w", err)
	}
	if len(docs) == 0 {
		return ErrUserNotFound
	}
	targetID := docs[0].ID
	if targetID == list.Owner {
		return fmt.Errorf("%w: the owner already has full access", ErrValidation)
	}

	field := "viewers"
	if permission == "editor" {
		field = "editors"
	}
	err = store.Docs.Update(ctx, models.ListsCollection, listID, []store.Update{
		{Path: field, Value: store.ArrayUnion(targetID)},
		{Path: "updatedAt", Value: store.ServerTimestamp},
	})
	if err != nil {
		return fmt.Errorf("failed to share list: %w", err)
	}
	return nil
}

// FetchAccessible runs the three membership queries concurrently and merges
// them by list id, owner role winning over editor over viewer.
func FetchAccessible(ctx context.Context, userID string) ([]AccessibleList, error) {
	results := make([][]store.Document, 3)
	roles := []models.Role{models.RoleOwner, models.RoleEditor, models.RoleViewer}
	filters := [][]store.Filter{
		{{Path: "owner", Op: "==", Value: userID}},
		{{Path: "editors", Op: "array-contains", Value: userID}},
		{{Path: "viewers", Op: "array-contains", Value: userID}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range filters {
		i := i
		g.Go(func() error {
			docs, err := store.Docs.Query(gctx, models.ListsCollection, filters[i])
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch accessible lists: %w", err)
	}

	seen := map[string]bool{}
	var out []AccessibleList
	for i, docs := range results {
		for _, doc := range docs {
			if seen[doc.ID] {
				continue
			}
			list, err := models.ListFromDoc(doc)
			if err != nil {
				return nil, err
			}
			seen[doc.ID] = true
			out = append(out, AccessibleList{List: list, Role: roles[i]})
		}
	}
	return out, nil
}

func fetchList(ctx context.Context, listID string) (*models.ShoppingList, error) {
	doc, err := store.Docs.Get(ctx, models.ListsCollection, listID)
	if err != nil {
		return nil, err
	}
	return models.ListFromDoc(doc)
}

// requireEditor fetches the list and rejects callers below editor before any
// write is attempted.
func requireEditor(ctx context.Context, userID, listID string) (*models.ShoppingList, error) {
	list, err := fetchList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !CanEdit(ResolveRole(list, userID)) {
		return nil, ErrPermissionDenied
	}
	return list, nil
}
