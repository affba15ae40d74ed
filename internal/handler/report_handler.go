package handlers

import (
	"fmt"
	"net/http"
	"strconv"
)

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	dashboard, err := h.ReportService.Dashboard(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, dashboard, http.StatusOK)
}

func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	events, err := h.ReportService.Calendar(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, events, http.StatusOK)
}

// GetFeed - лента опубликованного для клиента, постранично.
func (h *Handlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	feed, err := h.ReportService.PublishedFeed(r.Context(), actor, page)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, feed, http.StatusOK)
}

// GetHistory - история постов клиента со счетчиками по статусам.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	posts, counts, err := h.PostService.ListPosts(r.Context(), actor, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, PostsResponse{Posts: posts, Counts: counts}, http.StatusOK)
}

func (h *Handlers) GetClientAnalytics(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	analytics, err := h.ReportService.ClientAnalytics(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, analytics, http.StatusOK)
}

func (h *Handlers) GetRejectionReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	report, err := h.ReportService.RejectionReport(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, report, http.StatusOK)
}

// ExportRejectionReport выгружает CSV в MinIO и сразу отдает файл.
func (h *Handlers) ExportRejectionReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	content, fileName, err := h.ReportService.ExportRejectionCSV(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// GetReportExports - сохраненные файлы отчетов со ссылками на скачивание.
func (h *Handlers) GetReportExports(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	exports, err := h.ReportService.ListExports(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, exports, http.StatusOK)
}

func (h *Handlers) GetClientActivityReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	report, err := h.ReportService.ClientActivityReport(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, report, http.StatusOK)
}
