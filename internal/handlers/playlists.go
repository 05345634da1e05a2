package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Views     ViewBuilder
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondDomainError(ctx, w, "create playlist", err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, playlist)
}

// Get handles GET /api/v1/playlists/{id}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.Views.Playlist(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "load playlist", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, view)
}

// ListByUser handles GET /api/v1/users/{id}/playlists.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlists, err := h.Playlists.ListByOwner(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "list playlists", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlistListResponse{Items: playlists})
}

// Update handles PATCH /api/v1/playlists/{id}, restricted to the owner.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	playlist, ok := h.requireOwnPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	if err := h.Playlists.Update(ctx, playlist.ID, req.Name, strings.TrimSpace(req.Description)); err != nil {
		respondDomainError(ctx, w, "update playlist", err)
		return
	}

	playlist.Name = req.Name
	playlist.Description = strings.TrimSpace(req.Description)
	respondJSON(ctx, w, http.StatusOK, playlist)
}

// Delete handles DELETE /api/v1/playlists/{id}, restricted to the owner.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.requireOwnPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondDomainError(ctx, w, "delete playlist", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddVideo handles POST /api/v1/playlists/{id}/videos/{videoId}. Adding a
// video twice is a no-op reported as added=false.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.requireOwnPlaylist(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondDomainError(ctx, w, "load playlist video", err)
		return
	}

	added, err := h.Playlists.AddVideo(ctx, playlist.ID, videoID)
	if err != nil {
		respondDomainError(ctx, w, "add playlist video", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"added": added})
}

// RemoveVideo handles DELETE /api/v1/playlists/{id}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.requireOwnPlaylist(w, r)
	if !ok {
		return
	}

	removed, err := h.Playlists.RemoveVideo(ctx, playlist.ID, r.PathValue("videoId"))
	if err != nil {
		respondDomainError(ctx, w, "remove playlist video", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h PlaylistHandler) requireOwnPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.Playlist{}, false
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "load playlist", err)
		return models.Playlist{}, false
	}
	if playlist.OwnerID != userID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the playlist owner"})
		return models.Playlist{}, false
	}
	return playlist, true
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type playlistListResponse struct {
	Items []models.Playlist `json:"items"`
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
