package routes

import (
	"github.com/gorilla/mux"

	"itin/handlers"
	"itin/middleware"
	"itin/websocket"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly  = []string{"GET", "OPTIONS"}
	MethodsPostOnly = []string{"POST", "OPTIONS"}
	MethodsPutOnly  = []string{"PUT", "OPTIONS"}
)

// Route grouping constants
const (
	PathAPI    = "/api"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router) {
	// ====================
	// HEALTH CHECK (Public)
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)

	// ====================
	// AUTHENTICATION ROUTES (Public - No auth required)
	// ====================
	r.HandleFunc("/api/auth/login", handlers.Login).Methods(MethodsPostOnly...)

	// Guest self-registration is public: visitors have no account yet.
	r.HandleFunc("/api/guests/register", handlers.RegisterGuestDevice).Methods(MethodsPostOnly...)

	// ====================
	// WEBSOCKET (Guest update feed)
	// ====================
	r.HandleFunc("/ws/guests", websocket.HandleGuestSocket)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)

	// ====================
	// CURRENT USER
	// ====================
	apiRouter.HandleFunc("/user/me", handlers.Me).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/users", handlers.ListUsers).Methods(MethodsGetOnly...)

	// ====================
	// LOCATIONS
	// ====================
	apiRouter.HandleFunc("/locations", handlers.ListLocations).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/locations", handlers.CreateLocation).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/locations/tree", handlers.LocationTree).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/locations/{id}", handlers.GetLocation).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/locations/{id}", handlers.UpdateLocation).Methods(MethodsPutOnly...)

	// ====================
	// GROUPS
	// ====================
	apiRouter.HandleFunc("/groups", handlers.ListGroups).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/groups", handlers.CreateGroup).Methods(MethodsPostOnly...)

	// ====================
	// ASSETS
	// ====================
	apiRouter.HandleFunc("/assets", handlers.ListAssets).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets", handlers.CreateAsset).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/bulk", handlers.BulkAssetUpdate).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}", handlers.GetAsset).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/assets/{id}", handlers.UpdateAsset).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/assets/{id}/ports", handlers.CreatePort).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}/interfaces", handlers.CreateInterface).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/assets/{id}/approval-requests", handlers.CreateApprovalRequest).Methods(MethodsPostOnly...)

	// ====================
	// INTERFACES
	// ====================
	apiRouter.HandleFunc("/interfaces/bulk", handlers.BulkInterfaceUpdate).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/interfaces/{id}", handlers.UpdateInterface).Methods(MethodsPutOnly...)

	// ====================
	// NETWORKS
	// ====================
	apiRouter.HandleFunc("/networks", handlers.ListNetworks).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/networks", handlers.CreateNetwork).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/networks/{id}/addresses", handlers.CreateIPAddress).Methods(MethodsPostOnly...)

	// ====================
	// APPROVAL REQUESTS
	// ====================
	apiRouter.HandleFunc("/approval-requests/{id}/review", handlers.ReviewApprovalRequest).Methods(MethodsPostOnly...)

	// ====================
	// GUEST DEVICES
	// ====================
	apiRouter.HandleFunc("/guests/pending", handlers.ListPendingGuests).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/guests/{id}/approve", handlers.ApproveGuest).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/guests/{id}/reject", handlers.RejectGuest).Methods(MethodsPostOnly...)

	// ====================
	// BACKGROUND TASKS
	// ====================
	apiRouter.HandleFunc("/tasks", handlers.ListTasks).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/tasks/enqueue", handlers.EnqueueTask).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/tasks/runs", handlers.ListTaskRuns).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/tasks/runs/{id}", handlers.GetTaskRun).Methods(MethodsGetOnly...)
}
