package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"cartmate/backend/middleware"
	"cartmate/backend/models"
	"cartmate/backend/services"
	"cartmate/backend/store"
)

type dashboardView struct {
	Groups        []services.ListGroup `json:"groups"`
	MonthlyBudget float64              `json:"monthlyBudget"`
}

type listView struct {
	List  *models.ShoppingList `json:"list,omitempty"`
	Role  models.Role          `json:"role"`
	Total float64              `json:"total"`
}

// WatchLists streams the caller's dashboard as server-sent events. It holds
// three standing query subscriptions (owned, edited, viewed) plus one on the
// caller's profile document, merges them by list id, and sends a fresh view
// on every change. All subscriptions are released when the client
// disconnects; the request context scopes their lifetime.
func WatchLists(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	search := r.URL.Query().Get("search")

	ownedCh, err := store.Docs.Watch(ctx, models.ListsCollection, []store.Filter{
		{Path: "owner", Op: "==", Value: userID},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	editedCh, err := store.Docs.Watch(ctx, models.ListsCollection, []store.Filter{
		{Path: "editors", Op: "array-contains", Value: userID},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	viewedCh, err := store.Docs.Watch(ctx, models.ListsCollection, []store.Filter{
		{Path: "viewers", Op: "array-contains", Value: userID},
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	profileCh, err := store.Docs.WatchDoc(ctx, models.UsersCollection, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setStreamHeaders(w)

	merger := services.NewDashboardMerger()
	var merged []services.AccessibleList
	var budget float64

	for {
		select {
		case <-ctx.Done():
			return
		case docs, ok := <-ownedCh:
			if !ok {
				return
			}
			merged = merger.Apply(models.RoleOwner, decodeLists(docs))
		case docs, ok := <-editedCh:
			if !ok {
				return
			}
			merged = merger.Apply(models.RoleEditor, decodeLists(docs))
		case docs, ok := <-viewedCh:
			if !ok {
				return
			}
			merged = merger.Apply(models.RoleViewer, decodeLists(docs))
		case doc, ok := <-profileCh:
			if !ok {
				return
			}
			if doc.Exists {
				if user, err := models.UserFromDoc(doc); err == nil {
					budget = user.MonthlyBudget
				}
			}
		}

		groups := services.GroupLists(merged, search, time.Now())
		if groups == nil {
			groups = []services.ListGroup{}
		}
		sendEvent(w, dashboardView{Groups: groups, MonthlyBudget: budget})
		flusher.Flush()
	}
}

// WatchList streams a single list as server-sent events. Deletion ends the
// stream with a "deleted" event; a caller whose access is revoked keeps the
// stream but only receives denied views from then on.
func WatchList(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "no user ID found")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	listID := mux.Vars(r)["id"]

	ctx := r.Context()
	ch, err := store.Docs.WatchDoc(ctx, models.ListsCollection, listID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	setStreamHeaders(w)

	for {
		select {
		case <-ctx.Done():
			return
		case doc, ok := <-ch:
			if !ok {
				return
			}
			if !doc.Exists {
				sendNamedEvent(w, "deleted", map[string]string{"id": listID})
				flusher.Flush()
				return
			}
			list, err := models.ListFromDoc(doc)
			if err != nil {
				logrus.WithError(err).Warn("skipping malformed list snapshot")
				continue
			}
			role := services.ResolveRole(list, userID)
			view := listView{Role: role}
			if services.CanView(role) {
				view.List = list
				view.Total = services.ListTotal(list)
			}
			sendEvent(w, view)
			flusher.Flush()
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func sendEvent(w http.ResponseWriter, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("failed to encode stream event")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

func sendNamedEvent(w http.ResponseWriter, name string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		logrus.WithError(err).Error("failed to encode stream event")
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload)
}

func decodeLists(docs []store.Document) []*models.ShoppingList {
	lists := make([]*models.ShoppingList, 0, len(docs))
	for _, doc := range docs {
		list, err := models.ListFromDoc(doc)
		if err != nil {
			logrus.WithError(err).Warn("skipping malformed list snapshot")
			continue
		}
		lists = append(lists, list)
	}
	return lists
}
