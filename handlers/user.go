package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cartmate/backend/middleware"
	"cartmate/backend/models"
	"cartmate/backend/services"
	"cartmate/backend/store"
)

// GetProfile returns the caller's profile document.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}

	doc, err := store.Docs.Get(r.Context(), models.UsersCollection, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	user, err := models.UserFromDoc(doc)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile replaces the caller's editable profile fields. Budget fields
// are managed separately and are never touched here.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}

	var body struct {
		DisplayName string `json:"displayName"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		PhotoURL    string `json:"photoURL"`
		DarkMode    *bool  `json:"darkMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.DisplayName == "" || body.Email == "" {
		writeError(w, http.StatusBadRequest, "displayName and email are required")
		return
	}

	updates := []store.Update{
		{Path: "displayName", Value: body.DisplayName},
		{Path: "firstName", Value: body.FirstName},
		{Path: "lastName", Value: body.LastName},
		{Path: "email", Value: body.Email},
		{Path: "phoneNumber", Value: body.PhoneNumber},
		{Path: "photoURL", Value: body.PhotoURL},
	}
	if body.DarkMode != nil {
		updates = append(updates, store.Update{Path: "darkMode", Value: *body.DarkMode})
	}

	if err := store.Docs.Update(r.Context(), models.UsersCollection, userID, updates); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// SyncUser creates the caller's profile document at signup. The document is
// only created when missing, so repeat sign-ins (e.g. via a federated
// provider) are a no-op.
func SyncUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}

	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		PhoneNumber string `json:"phoneNumber"`
		PhotoURL    string `json:"photoURL"`
		DarkMode    bool   `json:"darkMode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" || body.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "email and displayName are required")
		return
	}

	doc, err := store.Docs.Get(r.Context(), models.UsersCollection, userID)
	if err == nil {
		existing, decodeErr := models.UserFromDoc(doc)
		if decodeErr != nil {
			writeServiceError(w, decodeErr)
			return
		}
		writeJSON(w, http.StatusOK, existing)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		writeServiceError(w, err)
		return
	}

	user := &models.User{
		DisplayName:    body.DisplayName,
		FirstName:      body.FirstName,
		LastName:       body.LastName,
		Email:          body.Email,
		PhoneNumber:    body.PhoneNumber,
		PhotoURL:       body.PhotoURL,
		DarkMode:       body.DarkMode,
		MonthlyBudget:  0,
		MonthlyBudgets: map[string]float64{},
	}
	if err := store.Docs.Set(r.Context(), models.UsersCollection, userID, user); err != nil {
		writeServiceError(w, err)
		return
	}
	user.ID = userID
	writeJSON(w, http.StatusCreated, user)
}

// UpdateBudget sets the caller's current monthly budget. The flat budget
// value and the current month's entry in the budget history are written in
// one document update so they can never drift apart.
func UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Amount < 0 {
		writeError(w, http.StatusBadRequest, "budget must not be negative")
		return
	}

	now := time.Now()
	monthKey := services.MonthKey(now.Year(), now.Month())
	err := store.Docs.Update(r.Context(), models.UsersCollection, userID, []store.Update{
		{Path: "monthlyBudget", Value: body.Amount},
		{Path: "monthlyBudgets." + monthKey, Value: body.Amount},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"monthlyBudget": body.Amount,
		"monthKey":      monthKey,
	})
}
