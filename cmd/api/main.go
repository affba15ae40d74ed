package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"approvalCPT/cmd/app"
	"approvalCPT/internal/config"
	handlers "approvalCPT/internal/handler"
	"approvalCPT/internal/middleware"
	"approvalCPT/internal/models"
)

func main() {
	cfg := config.LoadConfig()

	if cfg.JWTSecretKey == "" {
		log.Fatal("JWT_SECRET_KEY не установлен в .env файле")
	}

	db, _, services := app.App(cfg)
	defer db.CloseDB()

	handler := handlers.NewHandlers(db, services, cfg)

	adminOnly := middleware.RoleMiddleware(models.RoleSuperAdmin, models.RoleAdmin)
	clientOnly := middleware.RoleMiddleware(models.RoleClient)
	superAdminOnly := middleware.RoleMiddleware(models.RoleSuperAdmin)

	router := mux.NewRouter()
	router.HandleFunc("/health", handler.HealthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", handler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", handler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", handler.RefreshToken).Methods(http.MethodPost)

	api.HandleFunc("/me", handler.GetCurrentUser).Methods(http.MethodGet)
	api.HandleFunc("/me", handler.UpdateCurrentUser).Methods(http.MethodPut)
	api.HandleFunc("/me/password", handler.ChangePassword).Methods(http.MethodPost)

	api.HandleFunc("/dashboard", handler.GetDashboard).Methods(http.MethodGet)
	api.HandleFunc("/calendar", handler.GetCalendar).Methods(http.MethodGet)

	api.HandleFunc("/posts", handler.GetPosts).Methods(http.MethodGet)
	api.Handle("/posts", adminOnly(http.HandlerFunc(handler.CreatePost))).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", handler.GetPost).Methods(http.MethodGet)
	api.Handle("/posts/{id}", adminOnly(http.HandlerFunc(handler.UpdatePost))).Methods(http.MethodPut)
	api.Handle("/posts/{id}", adminOnly(http.HandlerFunc(handler.DeletePost))).Methods(http.MethodDelete)
	api.Handle("/posts/{id}/pending", adminOnly(http.HandlerFunc(handler.MarkPending))).Methods(http.MethodPost)
	api.Handle("/posts/{id}/review", clientOnly(http.HandlerFunc(handler.ReviewPost))).Methods(http.MethodPost)
	api.Handle("/posts/{id}/rating", clientOnly(http.HandlerFunc(handler.RatePost))).Methods(http.MethodPost)
	api.Handle("/posts/{id}/image", adminOnly(http.HandlerFunc(handler.UploadPostImage))).Methods(http.MethodPost)

	api.Handle("/feed", clientOnly(http.HandlerFunc(handler.GetFeed))).Methods(http.MethodGet)
	api.Handle("/history", clientOnly(http.HandlerFunc(handler.GetHistory))).Methods(http.MethodGet)
	api.Handle("/analytics", clientOnly(http.HandlerFunc(handler.GetClientAnalytics))).Methods(http.MethodGet)

	api.HandleFunc("/requests", handler.GetRequests).Methods(http.MethodGet)
	api.Handle("/requests", clientOnly(http.HandlerFunc(handler.CreateRequest))).Methods(http.MethodPost)
	api.Handle("/requests/{id}/open", adminOnly(http.HandlerFunc(handler.OpenRequest))).Methods(http.MethodPost)

	api.HandleFunc("/notifications/unread", handler.GetUnreadNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{id}/read", handler.MarkNotificationRead).Methods(http.MethodPost)

	api.Handle("/clients", adminOnly(http.HandlerFunc(handler.GetClients))).Methods(http.MethodGet)
	api.Handle("/clients/{id}/admins", superAdminOnly(http.HandlerFunc(handler.AssignAdmins))).Methods(http.MethodPost)

	api.Handle("/reports/rejections", adminOnly(http.HandlerFunc(handler.GetRejectionReport))).Methods(http.MethodGet)
	api.Handle("/reports/rejections/export", adminOnly(http.HandlerFunc(handler.ExportRejectionReport))).Methods(http.MethodPost)
	api.Handle("/reports/exports", adminOnly(http.HandlerFunc(handler.GetReportExports))).Methods(http.MethodGet)
	api.Handle("/reports/activity", adminOnly(http.HandlerFunc(handler.GetClientActivityReport))).Methods(http.MethodGet)

	handlerChain := middleware.Chain(
		router,
		middleware.AuthMiddleware(cfg),
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware,
	)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	fmt.Printf("Сервер запущен на %s\n", addr)
	fmt.Printf("База данных: %s\n", cfg.DB.DbNAME)

	if err := http.ListenAndServe(addr, handlerChain); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
