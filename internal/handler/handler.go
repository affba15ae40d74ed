package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"approvalCPT/internal/config"
	"approvalCPT/internal/database"
	"approvalCPT/internal/policy"
	"approvalCPT/internal/service"
)

type Handlers struct {
	AuthService         service.AuthService
	UserService         service.UserService
	PostService         service.PostService
	RequestService      service.RequestService
	NotificationService service.NotificationService
	ReportService       service.ReportService
	DB                  *database.DB
	Cfg                 *config.Config
	Validate            *validator.Validate
}

func NewHandlers(db *database.DB, services *service.Service, config *config.Config) *Handlers {
	return &Handlers{
		AuthService:         services.Auth,
		UserService:         services.User,
		PostService:         services.Post,
		RequestService:      services.Request,
		NotificationService: services.Notification,
		ReportService:       services.Report,
		DB:                  db,
		Cfg:                 config,
		Validate:            validator.New(),
	}
}

// actorFromContext собирает актора из данных, положенных в контекст
// JWT-мидлварью.
func actorFromContext(r *http.Request) (policy.Actor, bool) {
	userID, ok1 := r.Context().Value("userID").(string)
	role, ok2 := r.Context().Value("role").(string)
	if !ok1 || !ok2 {
		return policy.Actor{}, false
	}
	return policy.Actor{UserID: userID, Role: role}, true
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.HealthCheck(); err != nil {
		WriteError(w, "База данных недоступна", http.StatusServiceUnavailable)
		return
	}
	WriteSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}
