package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

const maxImageUploadBytes = 10 << 20

// UserHandler implements account profile and channel endpoints.
type UserHandler struct {
	Users    UserStore
	Views    ViewBuilder
	Media    MediaStore
	Releaser MediaReleaser
}

// Me handles GET /api/v1/users/me.
func (h UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondDomainError(ctx, w, "load current user", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user)
}

// UpdateMe handles PATCH /api/v1/users/me, replacing full name and email.
func (h UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid account payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "fullName and email are required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("invalid email in account update", "email", req.Email, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid email address"})
		return
	}

	if err := h.Users.UpdateAccount(ctx, userID, req.FullName, req.Email); err != nil {
		respondDomainError(ctx, w, "update account", err)
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondDomainError(ctx, w, "load updated user", err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

// UploadAvatar handles PUT /api/v1/users/me/avatar.
func (h UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "avatar", h.Users.UpdateAvatar)
}

// UploadCoverImage handles PUT /api/v1/users/me/cover.
func (h UserHandler) UploadCoverImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "cover", h.Users.UpdateCoverImage)
}

type mediaSwap func(ctx context.Context, id string, ref models.MediaRef) (models.MediaRef, error)

// Channel handles GET /api/v1/channels/{username}.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.UserID(ctx)

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	profile, err := h.Views.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		respondDomainError(ctx, w, "load channel profile", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, profile)
}

// History handles GET /api/v1/users/me/history.
func (h UserHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	cards, err := h.Views.WatchHistory(ctx, userID)
	if err != nil {
		respondDomainError(ctx, w, "load watch history", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Items: cards})
}

// LikedVideos handles GET /api/v1/users/me/likes.
func (h UserHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	cards, err := h.Views.LikedVideos(ctx, userID)
	if err != nil {
		respondDomainError(ctx, w, "load liked videos", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, videoListResponse{Items: cards})
}

func (h UserHandler) uploadImage(w http.ResponseWriter, r *http.Request, field string, swap mediaSwap) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadBytes)
	file, header, err := r.FormFile(field)
	if err != nil {
		logger.Warn("missing upload file", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s file is required", field)})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%ss/%s/%s%s", field, userID, uuid.NewString(), path.Ext(header.Filename))
	ref, err := h.Media.Put(ctx, key, file)
	if err != nil {
		logger.Error("upload image", "field", field, "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "upload failed"})
		return
	}

	previous, err := swap(ctx, userID, ref)
	if err != nil {
		// The record swap failed, so the fresh object is the orphan.
		if relErr := h.Releaser.Release(ctx, ref); relErr != nil {
			logger.Error("release orphaned upload", "storeId", ref.StoreID, "error", relErr)
		}
		respondDomainError(ctx, w, "store image reference", err)
		return
	}
	if err := h.Releaser.Release(ctx, previous); err != nil {
		logger.Error("release replaced image", "storeId", previous.StoreID, "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]models.MediaRef{field: ref})
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type videoListResponse struct {
	Items []models.VideoCard `json:"items"`
}
