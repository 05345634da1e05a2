package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const maxVideoUploadBytes = 1 << 30

// VideoHandler implements video publishing and retrieval endpoints.
type VideoHandler struct {
	Videos   VideoStore
	Views    ViewBuilder
	History  VisitRecorder
	Media    MediaStore
	Releaser MediaReleaser
	Prober   DurationProber
	NowFunc  func() time.Time
}

// Upload handles POST /api/v1/videos. The upload is probed for its duration
// before the record is written, so a file ffprobe cannot read is rejected.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxVideoUploadBytes)

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	videoFile, videoHeader, err := r.FormFile("video")
	if err != nil {
		logger.Warn("missing video file", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}
	defer videoFile.Close()

	videoID := uuid.NewString()
	now := h.now()

	duration, mediaRef, err := h.ingestVideoFile(r, videoID, videoFile, videoHeader)
	if err != nil {
		logger.Error("ingest video file", "videoId", videoID, "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "could not process video file"})
		return
	}

	var thumbRef models.MediaRef
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		key := fmt.Sprintf("videos/%s/thumb-%s%s", videoID, uuid.NewString(), path.Ext(thumbHeader.Filename))
		thumbRef, err = h.Media.Put(ctx, key, thumbFile)
		if err != nil {
			logger.Error("upload thumbnail", "videoId", videoID, "error", err)
			h.release(ctx, mediaRef)
			respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "upload failed"})
			return
		}
	}

	video := models.Video{
		ID:          videoID,
		OwnerID:     userID,
		Title:       title,
		Description: description,
		Media:       mediaRef,
		Thumbnail:   thumbRef,
		Duration:    duration,
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		h.release(ctx, mediaRef)
		h.release(ctx, thumbRef)
		respondDomainError(ctx, w, "create video record", err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video)
}

// Detail handles GET /api/v1/videos/{id}. A successful load counts a view and,
// for signed-in viewers, lands in watch history; both writes are best effort.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	viewerID, _ := middleware.UserID(ctx)

	videoID := r.PathValue("id")
	detail, err := h.Views.VideoDetail(ctx, videoID, viewerID)
	if err != nil {
		respondDomainError(ctx, w, "load video detail", err)
		return
	}

	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		logger.Error("increment views", "videoId", videoID, "error", err)
	} else {
		detail.Views++
	}
	if viewerID != "" {
		if err := h.History.RecordVisit(ctx, viewerID, videoID, h.now()); err != nil {
			logger.Error("record watch history", "videoId", videoID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, detail)
}

// Feed handles GET /api/v1/videos.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filters := repositories.VideoFilters{
		Query:    strings.TrimSpace(query.Get("query")),
		OwnerID:  strings.TrimSpace(query.Get("owner")),
		Sort:     strings.TrimSpace(query.Get("sort")),
		Dir:      strings.TrimSpace(query.Get("dir")),
		Page:     intParam(query.Get("page")),
		PageSize: intParam(query.Get("pageSize")),
	}

	feed, err := h.Views.Feed(ctx, filters)
	if err != nil {
		respondDomainError(ctx, w, "load video feed", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, feed)
}

// Update handles PATCH /api/v1/videos/{id}, restricted to the owner.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.requireOwnedVideo(w, r)
	if !ok {
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid video payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title must not be empty"})
			return
		}
		video.Title = title
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}

	if err := h.Videos.Update(ctx, video); err != nil {
		respondDomainError(ctx, w, "update video", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video)
}

// UpdateThumbnail handles PUT /api/v1/videos/{id}/thumbnail.
func (h VideoHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, ok := h.requireOwnedVideo(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUploadBytes)
	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		logger.Warn("missing thumbnail file", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "thumbnail file is required"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("videos/%s/thumb-%s%s", video.ID, uuid.NewString(), path.Ext(header.Filename))
	ref, err := h.Media.Put(ctx, key, file)
	if err != nil {
		logger.Error("upload thumbnail", "videoId", video.ID, "error", err)
		respondJSON(ctx, w, http.StatusBadGateway, map[string]string{"error": "upload failed"})
		return
	}

	previous := video.Thumbnail
	video.Thumbnail = ref
	if err := h.Videos.Update(ctx, video); err != nil {
		h.release(ctx, ref)
		respondDomainError(ctx, w, "update video thumbnail", err)
		return
	}
	h.release(ctx, previous)

	respondJSON(ctx, w, http.StatusOK, video)
}

// TogglePublish handles PATCH /api/v1/videos/{id}/publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.requireOwnedVideo(w, r)
	if !ok {
		return
	}

	video.Published = !video.Published
	if err := h.Videos.SetPublished(ctx, video.ID, video.Published); err != nil {
		respondDomainError(ctx, w, "toggle publish state", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"published": video.Published})
}

// Delete handles DELETE /api/v1/videos/{id}. The record goes first; the media
// objects follow asynchronously once the delete has committed.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.requireOwnedVideo(w, r)
	if !ok {
		return
	}

	deleted, err := h.Videos.Delete(ctx, video.ID)
	if err != nil {
		respondDomainError(ctx, w, "delete video", err)
		return
	}

	h.release(ctx, deleted.Media)
	h.release(ctx, deleted.Thumbnail)

	w.WriteHeader(http.StatusNoContent)
}

// ingestVideoFile spools the upload to a temporary file, probes its duration,
// and streams it into the object store.
func (h VideoHandler) ingestVideoFile(r *http.Request, videoID string, file multipart.File, header *multipart.FileHeader) (float64, models.MediaRef, error) {
	ctx := r.Context()

	tmp, err := os.CreateTemp("", "clipstream-upload-*")
	if err != nil {
		return 0, models.MediaRef{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		return 0, models.MediaRef{}, fmt.Errorf("spool upload: %w", err)
	}

	duration, err := h.Prober.Duration(ctx, tmp.Name())
	if err != nil {
		return 0, models.MediaRef{}, fmt.Errorf("probe duration: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, models.MediaRef{}, fmt.Errorf("rewind upload: %w", err)
	}

	key := fmt.Sprintf("videos/%s/%s%s", videoID, uuid.NewString(), path.Ext(header.Filename))
	ref, err := h.Media.Put(ctx, key, tmp)
	if err != nil {
		return 0, models.MediaRef{}, fmt.Errorf("store upload: %w", err)
	}
	return duration, ref, nil
}

// requireOwnedVideo loads the path video and enforces that the requester owns
// it, writing the error response itself when the check fails.
func (h VideoHandler) requireOwnedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.Video{}, false
	}

	video, err := h.Videos.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "load video", err)
		return models.Video{}, false
	}
	if video.OwnerID != userID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the video owner"})
		return models.Video{}, false
	}
	return video, true
}

func (h VideoHandler) release(ctx context.Context, ref models.MediaRef) {
	if ref.StoreID == "" {
		return
	}
	if err := h.Releaser.Release(ctx, ref); err != nil {
		logging.FromContext(ctx).Error("release media object", "storeId", ref.StoreID, "error", err)
	}
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
