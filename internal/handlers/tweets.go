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

const maxTweetLength = 280

// TweetHandler implements channel post endpoints.
type TweetHandler struct {
	Tweets  TweetStore
	Views   ViewBuilder
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid tweet payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	content, ok := validTweetContent(ctx, w, req.Content)
	if !ok {
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		AuthorID:  userID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondDomainError(ctx, w, "create tweet", err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, tweet)
}

// ListByUser handles GET /api/v1/users/{id}/tweets.
func (h TweetHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.UserID(ctx)

	tweets, err := h.Views.UserTweets(ctx, r.PathValue("id"), viewerID)
	if err != nil {
		respondDomainError(ctx, w, "load user tweets", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, tweetListResponse{Items: tweets})
}

// Update handles PATCH /api/v1/tweets/{id}, restricted to the author.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	tweet, ok := h.requireOwnTweet(w, r)
	if !ok {
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid tweet payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	content, ok := validTweetContent(ctx, w, req.Content)
	if !ok {
		return
	}

	if err := h.Tweets.UpdateContent(ctx, tweet.ID, content); err != nil {
		respondDomainError(ctx, w, "update tweet", err)
		return
	}

	tweet.Content = content
	respondJSON(ctx, w, http.StatusOK, tweet)
}

// Delete handles DELETE /api/v1/tweets/{id}, restricted to the author.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, ok := h.requireOwnTweet(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondDomainError(ctx, w, "delete tweet", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h TweetHandler) requireOwnTweet(w http.ResponseWriter, r *http.Request) (models.Tweet, bool) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return models.Tweet{}, false
	}

	tweet, err := h.Tweets.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "load tweet", err)
		return models.Tweet{}, false
	}
	if tweet.AuthorID != userID {
		respondJSON(ctx, w, http.StatusForbidden, map[string]string{"error": "not the tweet author"})
		return models.Tweet{}, false
	}
	return tweet, true
}

func validTweetContent(ctx context.Context, w http.ResponseWriter, raw string) (string, bool) {
	content := strings.TrimSpace(raw)
	if content == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return "", false
	}
	if len(content) > maxTweetLength {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "content is too long"})
		return "", false
	}
	return content, true
}

type tweetRequest struct {
	Content string `json:"content"`
}

type tweetListResponse struct {
	Items []models.TweetView `json:"items"`
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
