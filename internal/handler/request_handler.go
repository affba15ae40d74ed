package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
	"approvalCPT/internal/service"
)

type RequestsResponse struct {
	Requests []models.PostRequest            `json:"requests"`
	Counts   map[lifecycle.RequestStatus]int `json:"counts"`
}

func (h *Handlers) GetRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	status := lifecycle.RequestStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		WriteError(w, "Неизвестный статус: "+string(status), http.StatusBadRequest)
		return
	}

	requests, counts, err := h.RequestService.ListRequests(r.Context(), actor, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, RequestsResponse{Requests: requests, Counts: counts}, http.StatusOK)
}

// CreateRequest - клиент просит агентство подготовить пост.
func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	var req service.CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные", http.StatusBadRequest)
		return
	}

	request, err := h.RequestService.CreateRequest(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, request, http.StatusCreated)
}

// OpenRequest - админ открывает заявку: статус становится VIEWED,
// в ответе данные для предзаполнения черновика.
func (h *Handlers) OpenRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	prefill, err := h.RequestService.OpenRequest(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, prefill, http.StatusOK)
}
