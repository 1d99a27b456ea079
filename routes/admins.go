package routes

import (
	"net/http"
	"time"

	"questa/controllers/admins"
	"questa/controllers/auth"
	"questa/middleware"
	"questa/services"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// SetAdminRoutes registers the admin review surface.
func SetAdminRoutes(api *mux.Router, db *gorm.DB, ledger *services.Ledger) {
	// Rate limiter for admin login: 5 attempts per IP per minute
	adminLoginLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Public admin routes
	api.Handle("/admin/login", adminLoginLimiter.Middleware(http.HandlerFunc(auth.AdminLoginHandler))).Methods(http.MethodPost)

	// Protected admin routes
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware)

	// Task management
	adminRouter.Handle("/tasks", http.HandlerFunc(admins.ListTasks)).Methods(http.MethodGet)
	adminRouter.Handle("/tasks", http.HandlerFunc(admins.CreateTask)).Methods(http.MethodPost)
	adminRouter.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(admins.UpdateTask)).Methods(http.MethodPut)
	adminRouter.Handle("/tasks/{id:[0-9]+}", http.HandlerFunc(admins.DeleteTask)).Methods(http.MethodDelete)

	// Submission review
	submissionController := admins.NewSubmissionController(db, ledger)
	adminRouter.Handle("/submissions", http.HandlerFunc(submissionController.List)).Methods(http.MethodGet)
	adminRouter.Handle("/submissions/{id:[0-9]+}/approve", http.HandlerFunc(submissionController.Approve)).Methods(http.MethodPost)
	adminRouter.Handle("/submissions/{id:[0-9]+}/reject", http.HandlerFunc(submissionController.Reject)).Methods(http.MethodPost)

	// Withdrawal review
	withdrawalController := admins.NewWithdrawalController(db, ledger)
	adminRouter.Handle("/withdrawals", http.HandlerFunc(withdrawalController.List)).Methods(http.MethodGet)
	adminRouter.Handle("/withdrawals/{id:[0-9]+}/approve", http.HandlerFunc(withdrawalController.Approve)).Methods(http.MethodPost)
	adminRouter.Handle("/withdrawals/{id:[0-9]+}/reject", http.HandlerFunc(withdrawalController.Reject)).Methods(http.MethodPost)

	// User management
	userController := admins.NewUserController(db, ledger)
	adminRouter.Handle("/users", http.HandlerFunc(userController.List)).Methods(http.MethodGet)
	adminRouter.Handle("/users/{id:[0-9]+}/balance", http.HandlerFunc(userController.AdjustBalance)).Methods(http.MethodPost)
	adminRouter.Handle("/users/{id:[0-9]+}/audit", http.HandlerFunc(userController.Audit)).Methods(http.MethodGet)
}
