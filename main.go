package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"cartmate/backend/config"
	"cartmate/backend/handlers"
	"cartmate/backend/middleware"
	"cartmate/backend/pkg/logger"
	"cartmate/backend/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	logger.Setup(cfg.LogLevel)

	ctx := context.Background()

	// Pick the document store backend.
	switch cfg.Store {
	case "firestore":
		fs, err := store.NewFirestore(ctx, cfg.ProjectID)
		if err != nil {
			logrus.Fatal(err)
		}
		defer fs.Close()
		store.Docs = fs
		logrus.Infof("using Firestore document store (project %s)", cfg.ProjectID)
	case "memory":
		store.Docs = store.NewMemory()
		logrus.Warn("using in-memory document store, data will not survive restarts")
	}

	// Initialize Firebase Admin SDK for token verification.
	if err := middleware.InitializeFirebase(cfg.ProjectID); err != nil {
		logrus.WithError(err).Warn("failed to initialize Firebase, auth token verification will be disabled")
	}

	r := mux.NewRouter()
	r.Use(middleware.EnableCORS)

	// Register routes with both direct paths and /api prefix to keep older
	// clients working.
	registerRoutes(r)
	apiRouter := r.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter)

	// Serve the built frontend from the "dist" directory.
	fs := http.FileServer(http.Dir("./dist"))
	r.PathPrefix("/assets/").Handler(http.StripPrefix("", fs))
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/assets/") {
			logrus.Debugf("serving index.html for path: %s", r.URL.Path)
		}
		http.ServeFile(w, r, "./dist/index.html")
	}).Methods("GET")

	srv := &http.Server{
		Handler:     r,
		Addr:        ":" + cfg.Port,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the /lists/watch streams stay open until the
		// client disconnects.
	}

	logrus.Infof("starting server on port %s", cfg.Port)
	logrus.Fatal(srv.ListenAndServe())
}

// registerRoutes sets up all API routes
func registerRoutes(r *mux.Router) {
	// Public routes (no auth required)
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET", "OPTIONS")

	// Create a subrouter for authenticated routes
	protectedRouter := r.PathPrefix("").Subrouter()
	protectedRouter.Use(middleware.AuthMiddleware)

	// Shopping list routes
	protectedRouter.HandleFunc("/lists", handlers.GetLists).Methods("GET")
	protectedRouter.HandleFunc("/lists", handlers.CreateList).Methods("POST")
	protectedRouter.HandleFunc("/lists/watch", handlers.WatchLists).Methods("GET")
	protectedRouter.HandleFunc("/lists/{id}", handlers.GetList).Methods("GET")
	protectedRouter.HandleFunc("/lists/{id}", handlers.UpdateList).Methods("PUT")
	protectedRouter.HandleFunc("/lists/{id}", handlers.DeleteList).Methods("DELETE")
	protectedRouter.HandleFunc("/lists/{id}/watch", handlers.WatchList).Methods("GET")
	protectedRouter.HandleFunc("/lists/{id}/pin", handlers.PinList).Methods("PUT")
	protectedRouter.HandleFunc("/lists/{id}/share", handlers.ShareList).Methods("POST")

	// Item routes
	protectedRouter.HandleFunc("/lists/{id}/items", handlers.AddItem).Methods("POST")
	protectedRouter.HandleFunc("/lists/{id}/items/{itemId}", handlers.UpdateItem).Methods("PUT")
	protectedRouter.HandleFunc("/lists/{id}/items/{itemId}", handlers.RemoveItem).Methods("DELETE")

	// Spending report
	protectedRouter.HandleFunc("/spending", handlers.GetSpending).Methods("GET")

	// User routes
	protectedRouter.HandleFunc("/users/me", handlers.GetProfile).Methods("GET")
	protectedRouter.HandleFunc("/users/me", handlers.UpdateProfile).Methods("PUT")
	protectedRouter.HandleFunc("/users/me/budget", handlers.UpdateBudget).Methods("PUT")
	protectedRouter.HandleFunc("/users/sync", handlers.SyncUser).Methods("POST")
}
