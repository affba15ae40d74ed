package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handlers) GetUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	unread, err := h.NotificationService.ListUnread(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, unread, http.StatusOK)
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	notification, err := h.NotificationService.MarkRead(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, notification, http.StatusOK)
}
