package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"approvalCPT/internal/service"
)

// GetCurrentUser отдает профиль текущего пользователя (с данными компании
// для клиентов).
func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	profile, err := h.UserService.GetProfile(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, profile, http.StatusOK)
}

func (h *Handlers) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	var req service.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные", http.StatusBadRequest)
		return
	}

	profile, err := h.UserService.UpdateProfile(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, profile, http.StatusOK)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	var req service.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные", http.StatusBadRequest)
		return
	}

	if err := h.UserService.ChangePassword(r.Context(), actor, req); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, MessageResponse{Message: "Пароль успешно изменен"}, http.StatusOK)
}

// GetClients - экран назначений: клиенты с их админами; супер-админ
// дополнительно получает список назначаемых админов.
func (h *Handlers) GetClients(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	directory, err := h.UserService.ListClients(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, directory, http.StatusOK)
}

// AssignAdmins - супер-админ переназначает админов клиента.
func (h *Handlers) AssignAdmins(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	clientID := mux.Vars(r)["id"]

	var req struct {
		AdminIDs []string `json:"adminIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.UserService.AssignAdmins(r.Context(), actor, clientID, req.AdminIDs); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, MessageResponse{Message: "Назначения админов обновлены"}, http.StatusOK)
}
