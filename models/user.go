package models

import (
	"fmt"

	"cartmate/backend/store"
)

// User is the profile document stored at users/{uid}. MonthlyBudget always
// mirrors the MonthlyBudgets entry for the current month once one is set.
type User struct {
	ID             string             `firestore:"-" json:"id"`
	DisplayName    string             `firestore:"displayName" json:"displayName"`
	FirstName      string             `firestore:"firstName" json:"firstName"`
	LastName       string             `firestore:"lastName" json:"lastName"`
	Email          string             `firestore:"email" json:"email"`
	PhoneNumber    string             `firestore:"phoneNumber" json:"phoneNumber"`
	PhotoURL       string             `firestore:"photoURL" json:"photoURL"`
	DarkMode       bool               `firestore:"darkMode" json:"darkMode"`
	MonthlyBudget  float64            `firestore:"monthlyBudget" json:"monthlyBudget"`
	MonthlyBudgets map[string]float64 `firestore:"monthlyBudgets" json:"monthlyBudgets"`
}

// UserFromDoc decodes a store document into a typed user profile.
func UserFromDoc(doc store.Document) (*User, error) {
	var u User
	if err := doc.DataTo(&u); err != nil {
		return nil, fmt.Errorf("malformed user %s: %w", doc.ID, err)
	}
	u.ID = doc.ID
	if u.MonthlyBudgets == nil {
		u.MonthlyBudgets = map[string]float64{}
	}
	return &u, nil
}
