package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

const maxCommentLength = 2000

// CommentHandler implements comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Views    ViewBuilder
	NowFunc  func() time.Time
}

// Create handles POST /api/v1/videos/{id}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	content, ok := validCommentContent(ctx, w, req.Content)
	if !ok {
		return
	}

	videoID := r.PathValue("id")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondDomainError(ctx, w, "load commented video", err)
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		AuthorID:  userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondDomainError(ctx, w, "create comment", err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment)
}

// List handles GET /api/v1/videos/{id}/comments.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.UserID(ctx)

	query := r.URL.Query()
	feed, err := h.Views.Comments(ctx, r.PathValue("id"), viewerID,
		intParam(query.Get("page")), intParam(query.Get("pageSize")))
	if err != nil {
		respondDomainError(ctx, w, "load comments", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, feed)
}

// Update handles PATCH /api/v1/comments/{id}, restricted to the author.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	comment, ok := h.requireOwnComment(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	content, ok := validCommentContent(ctx, w, req.Content)
	if !ok {
		return
	}

	if err := h.Comments.UpdateContent(ctx, comment.ID, content); err != nil {
		respondDomainError(ctx, w, "update comment", err)
		return
	}

	comment.Content = content
	respondJSON(ctx, w, http.StatusOK, comment)
}

// Delete handles DELETE /api/v1/comments/{id}, restricted to the author.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, ok := h.requireOwnComment(w, r)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondDomainError(ctx, w, "delete comment", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h CommentHandler) requireOwnComment(w http.ResponseWriter, r *http.Request) (models.Comment, bool) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.Comment{}, false
	}

	comment, err := h.Comments.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "load comment", err)
		return models.Comment{}, false
	}
	if comment.AuthorID != userID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the comment author"})
		return models.Comment{}, false
	}
	return comment, true
}

func validCommentContent(ctx context.Context, w http.ResponseWriter, raw string) (string, bool) {
	content := strings.TrimSpace(raw)
	if content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return "", false
	}
	if len(content) > maxCommentLength {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is too long"})
		return "", false
	}
	return content, true
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
