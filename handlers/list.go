package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"cartmate/backend/middleware"
	"cartmate/backend/services"
)

// CreateList creates a new empty list owned by the caller.
func CreateList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}

	list, err := services.CreateList(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

// GetLists returns the caller's dashboard: every accessible list, grouped by
// pin status and recency, with an optional search filter.
func GetLists(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}

	accessible, err := services.FetchAccessible(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	search := r.URL.Query().Get("search")
	groups := services.GroupLists(accessible, search, time.Now())
	if groups == nil {
		groups = []services.ListGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// GetList returns a single list with the caller's resolved role and total.
// A caller with no access gets a denied view, not an error payload.
func GetList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	listID := mux.Vars(r)["id"]

	list, role, err := services.GetList(r.Context(), userID, listID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !services.CanView(role) {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"role":  string(role),
			"error": "you do not have permission to view this list",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"list":  list,
		"role":  role,
		"total": services.ListTotal(list),
	})
}

// UpdateList renames a list and/or updates its description.
func UpdateList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	listID := mux.Vars(r)["id"]

	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := services.UpdateListInfo(r.Context(), userID, listID, body.Name, body.Description); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteList removes a list and all of its items. Owner only.
func DeleteList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	listID := mux.Vars(r)["id"]

	if err := services.DeleteList(r.Context(), userID, listID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// PinList pins or unpins a list.
func PinList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	listID := mux.Vars(r)["id"]

	var body struct {
		Pinned bool `json:"pinned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := services.SetPinned(r.Context(), userID, listID, body.Pinned); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"pinned": body.Pinned})
}

// ShareList grants editor or viewer access to the user with the given email.
// Owner only. An unknown email reports "user not found" without mutating the
// list.
func ShareList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	listID := mux.Vars(r)["id"]

	var body struct {
		Email      string `json:"email"`
		Permission string `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := services.ShareList(r.Context(), userID, listID, body.Email, body.Permission); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "shared"})
}
