package models

import (
	"fmt"
	"time"

	"cartmate/backend/store"
)

// Item is a single purchasable entry in a shopping list. PurchaseDate is set
// exactly when Purchased flips to true and removed when it flips back.
type Item struct {
	ID           string     `firestore:"id" json:"id"`
	Name         string     `firestore:"name" json:"name"`
	Purchased    bool       `firestore:"purchased" json:"purchased"`
	Price        *float64   `firestore:"price,omitempty" json:"price,omitempty"`
	Store        string     `firestore:"store,omitempty" json:"store,omitempty"`
	Amount       int        `firestore:"amount" json:"amount"`
	PurchaseDate *time.Time `firestore:"purchaseDate,omitempty" json:"purchaseDate,omitempty"`
}

// ShoppingList is the document stored at shoppingLists/{id}. Items keep their
// insertion order. The owner is never also listed in Editors or Viewers.
type ShoppingList struct {
	ID          string    `firestore:"-" json:"id"`
	Name        string    `firestore:"name" json:"name"`
	Description string    `firestore:"description" json:"description"`
	Items       []Item    `firestore:"items" json:"items"`
	Owner       string    `firestore:"owner" json:"owner"`
	Editors     []string  `firestore:"editors" json:"editors"`
	Viewers     []string  `firestore:"viewers" json:"viewers"`
	Pinned      bool      `firestore:"pinned" json:"pinned"`
	CreatedAt   time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// ListFromDoc decodes and normalizes a store document into a typed list.
// All reads go through here so untyped payloads never reach the aggregation
// or grouping code.
func ListFromDoc(doc store.Document) (*ShoppingList, error) {
	var l ShoppingList
	if err := doc.DataTo(&l); err != nil {
		return nil, fmt.Errorf("malformed shopping list %s: %w", doc.ID, err)
	}
	l.ID = doc.ID
	l.Normalize()
	return &l, nil
}

// Normalize coerces loosely-typed document payloads into the shapes the rest
// of the code assumes.
func (l *ShoppingList) Normalize() {
	if l.Items == nil {
		l.Items = []Item{}
	}
	if l.Editors == nil {
		l.Editors = []string{}
	}
	if l.Viewers == nil {
		l.Viewers = []string{}
	}
	for i := range l.Items {
		if l.Items[i].Amount < 1 {
			l.Items[i].Amount = 1
		}
		if !l.Items[i].Purchased {
			l.Items[i].PurchaseDate = nil
		}
	}
}

// FindItem returns the item with the given id, or nil.
func (l *ShoppingList) FindItem(itemID string) *Item {
	for i := range l.Items {
		if l.Items[i].ID == itemID {
			return &l.Items[i]
		}
	}
	return nil
}
