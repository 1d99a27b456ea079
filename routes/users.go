package routes

import (
	"net/http"
	"time"

	"questa/controllers/auth"
	"questa/controllers/users"
	"questa/middleware"
	"questa/services"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// SetUserRoutes registers the authentication and user-facing routes.
func SetUserRoutes(api *mux.Router, db *gorm.DB, resolver *services.StatusResolver, timers *services.TimerCache, ledger *services.Ledger) {
	// Rate limiter login/register: 60 per IP per 5 minutes
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// Rate limiter for authenticated traffic: 120 per IP per minute
	userLimiter := middleware.NewIPRateLimiter(120, time.Minute)

	// Register & Login
	api.Handle("/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/logout", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler)))).Methods(http.MethodPost)

	// User info
	api.Handle("/users/info", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.InfoHandler)))).Methods(http.MethodGet)

	// Tasks
	taskController := users.NewTaskController(db, resolver, timers)
	api.Handle("/users/tasks", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(taskController.List)))).Methods(http.MethodGet)
	api.Handle("/users/tasks/{id:[0-9]+}/start", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(taskController.Start)))).Methods(http.MethodPost)
	api.Handle("/users/tasks/{id:[0-9]+}/restart", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(taskController.Restart)))).Methods(http.MethodPost)
	api.Handle("/users/tasks/{id:[0-9]+}/submit", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(taskController.SubmitProof)))).Methods(http.MethodPost)

	// Withdrawals
	withdrawalController := users.NewWithdrawalController(db, ledger)
	api.Handle("/users/withdrawal", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(withdrawalController.Submit)))).Methods(http.MethodPost)
	api.Handle("/users/withdrawal", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(withdrawalController.List)))).Methods(http.MethodGet)

	// Transaction history
	historyController := users.NewHistoryController(db)
	api.Handle("/users/transaction", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(historyController.List)))).Methods(http.MethodGet)

	// Notifications
	api.Handle("/users/notifications", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.NotificationListHandler)))).Methods(http.MethodGet)
	api.Handle("/users/notifications/{id:[0-9]+}/read", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.NotificationReadHandler)))).Methods(http.MethodPost)
}
