package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"cartmate/backend/models"
)

func newWatchRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/lists/watch", WatchLists).Methods("GET")
	r.HandleFunc("/lists/{id}/watch", WatchList).Methods("GET")
	return r
}

// runStream serves the request on its own goroutine and returns the recorded
// body once the handler exits.
func runStream(t *testing.T, router *mux.Router, req *http.Request) string {
	t.Helper()
	rr := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(rr, req)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stream handler did not exit")
	}
	return rr.Body.String()
}

func TestWatchListDeleted(t *testing.T) {
	mem := SetupTestStore()
	router := newWatchRouter()
	id := seedTestList(t, mem, ownedTestList())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := NewAuthenticatedRequest("GET", "/lists/"+id+"/watch", nil).WithContext(ctx)
	req = MockAuthContext(req, TestUserID)

	// Delete the list shortly after the stream starts: the handler must end
	// the stream with a deleted event on its own.
	go func() {
		time.Sleep(50 * time.Millisecond)
		mem.Delete(context.Background(), models.ListsCollection, id)
	}()

	body := runStream(t, router, req)
	if !strings.Contains(body, "event: deleted") {
		t.Errorf("Expected a deleted event, got %q", body)
	}
}

func TestWatchListInitialSnapshot(t *testing.T) {
	mem := SetupTestStore()
	router := newWatchRouter()
	id := seedTestList(t, mem, ownedTestList())

	ctx, cancel := context.WithCancel(context.Background())
	req := NewAuthenticatedRequest("GET", "/lists/"+id+"/watch", nil).WithContext(ctx)
	req = MockAuthContext(req, TestUserID)

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	body := runStream(t, router, req)
	if !strings.Contains(body, `"role":"owner"`) {
		t.Errorf("Expected an initial snapshot with the owner role, got %q", body)
	}
	if !strings.Contains(body, `"name":"Groceries"`) {
		t.Errorf("Expected the list payload in the stream, got %q", body)
	}
}

func TestWatchListsInitialDashboard(t *testing.T) {
	mem := SetupTestStore()
	router := newWatchRouter()
	seedTestList(t, mem, ownedTestList())

	ctx, cancel := context.WithCancel(context.Background())
	req := NewAuthenticatedRequest("GET", "/lists/watch", nil).WithContext(ctx)
	req = MockAuthContext(req, TestUserID)

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	body := runStream(t, router, req)
	if !strings.Contains(body, `"label":"Today"`) {
		t.Errorf("Expected a Today group in the dashboard stream, got %q", body)
	}
	if !strings.Contains(body, `"name":"Groceries"`) {
		t.Errorf("Expected the seeded list in the dashboard stream, got %q", body)
	}
}
