package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"approvalCPT/internal/lifecycle"
	"approvalCPT/internal/models"
	"approvalCPT/internal/service"
)

type PostsResponse struct {
	Posts  []models.Post                `json:"posts"`
	Counts map[lifecycle.PostStatus]int `json:"counts"`
}

type ImageResponse struct {
	PostID   string `json:"postId"`
	ImageUrl string `json:"imageUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

// GetPosts - ролевой список постов с фильтром ?status= и счетчиками.
func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	status := lifecycle.PostStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		WriteError(w, "Неизвестный статус: "+string(status), http.StatusBadRequest)
		return
	}

	posts, counts, err := h.PostService.ListPosts(r.Context(), actor, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, PostsResponse{Posts: posts, Counts: counts}, http.StatusOK)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	var req service.CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные", http.StatusBadRequest)
		return
	}

	post, err := h.PostService.CreatePost(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, post, http.StatusCreated)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	detail, err := h.PostService.GetPost(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, detail, http.StatusOK)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	var req service.UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Неверные данные", http.StatusBadRequest)
		return
	}

	post, err := h.PostService.UpdatePost(r.Context(), actor, mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, post, http.StatusOK)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	if err := h.PostService.DeletePost(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, MessageResponse{Message: "Пост успешно удален"}, http.StatusOK)
}

// MarkPending переводит черновик на согласование клиенту.
func (h *Handlers) MarkPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	if err := h.PostService.MarkPending(r.Context(), actor, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, MessageResponse{Message: "Пост отправлен на согласование"}, http.StatusOK)
}

// ReviewPost - единая точка решения клиента: approve или reject.
// Отклонение без комментария отбивается еще в сервисе.
func (h *Handlers) ReviewPost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	postID := mux.Vars(r)["id"]

	var req struct {
		Action  string `json:"action" validate:"required,oneof=approve reject"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Действие должно быть approve или reject", http.StatusBadRequest)
		return
	}

	var err error
	if req.Action == "approve" {
		err = h.PostService.ApprovePost(r.Context(), actor, postID, req.Comment)
	} else {
		err = h.PostService.RejectPost(r.Context(), actor, postID, req.Comment)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, MessageResponse{Message: "Решение сохранено"}, http.StatusOK)
}

func (h *Handlers) RatePost(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	var req struct {
		Score   int    `json:"score" validate:"required,min=1,max=5"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, "Оценка должна быть от 1 до 5", http.StatusBadRequest)
		return
	}

	rating, err := h.PostService.RatePost(r.Context(), actor, mux.Vars(r)["id"], req.Score, req.Comment)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, rating, http.StatusCreated)
}

func (h *Handlers) UploadPostImage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r)
	if !ok {
		WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
		return
	}

	postID := mux.Vars(r)["id"]

	// ограничение размера из конфига
	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		if err.Error() == "http: request body too large" {
			WriteError(w, fmt.Sprintf("Файл слишком большой (макс. %d MB)",
				h.Cfg.MaxUploadSize/(1024*1024)), http.StatusBadRequest)
		} else {
			WriteError(w, "Ошибка при обработке файла", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteError(w, "Не удалось получить файл", http.StatusBadRequest)
		return
	}
	defer file.Close()

	allowedTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedTypes[contentType] {
		WriteError(w, "Неподдерживаемый тип файла. Разрешены: JPEG, PNG, GIF, WebP", http.StatusBadRequest)
		return
	}

	imageURL, err := h.PostService.AttachImage(r.Context(), actor, postID, header.Filename, file, header.Size)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteSuccess(w, ImageResponse{
		PostID:   postID,
		ImageUrl: imageURL,
		FileName: header.Filename,
		FileSize: header.Size,
		MimeType: contentType,
	}, http.StatusCreated)
}
