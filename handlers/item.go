package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"cartmate/backend/middleware"
	"cartmate/backend/services"
)

// AddItem appends a new item to a list.
func AddItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	listID := mux.Vars(r)["id"]

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := services.AddItem(r.Context(), userID, listID, body.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem merges a partial update into one item.
func UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	vars := mux.Vars(r)

	var upd services.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := services.EditItem(r.Context(), userID, vars["id"], vars["itemId"], upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// RemoveItem deletes one item from a list.
func RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	vars := mux.Vars(r)

	if err := services.RemoveItem(r.Context(), userID, vars["id"], vars["itemId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
