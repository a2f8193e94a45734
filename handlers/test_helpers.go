package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"cartmate/backend/middleware"
	"cartmate/backend/store"
)

// TestUserID is the authenticated user used across handler tests.
const TestUserID = "test-user-id"

// SetupTestStore points the global document store at a fresh in-memory
// instance and returns it for seeding.
func SetupTestStore() *store.Memory {
	mem := store.NewMemory()
	store.Docs = mem
	return mem
}

// MockAuthContext adds a mock user ID to the request context for testing.
func MockAuthContext(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

// NewAuthenticatedRequest creates a new HTTP request with a mock
// authenticated user.
func NewAuthenticatedRequest(method, url string, body interface{}) *http.Request {
	var req *http.Request

	if body != nil {
		buf, _ := json.Marshal(body)
		req = httptest.NewRequest(method, url, bytes.NewBuffer(buf))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	return MockAuthContext(req, TestUserID)
}
