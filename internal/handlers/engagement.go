package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

// EngagementHandler implements the like and subscription toggle endpoints plus
// the subscription listings.
type EngagementHandler struct {
	Toggler EdgeToggler
	Edges   SubscriptionLister
	Users   UserStore
}

// ToggleVideoLike handles POST /api/v1/videos/{id}/like.
func (h EngagementHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.LikeVideo)
}

// ToggleCommentLike handles POST /api/v1/comments/{id}/like.
func (h EngagementHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.LikeComment)
}

// ToggleTweetLike handles POST /api/v1/tweets/{id}/like.
func (h EngagementHandler) ToggleTweetLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.LikeTweet)
}

// ToggleSubscription handles POST /api/v1/channels/{id}/subscribe.
func (h EngagementHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	result, err := h.Toggler.ToggleSubscription(ctx, userID, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "toggle subscription", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

// Subscribers handles GET /api/v1/channels/{id}/subscribers.
func (h EngagementHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := h.Edges.ListSubscriberIDs(ctx, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "list subscribers", err)
		return
	}

	h.respondUserList(w, r, ids)
}

// Subscriptions handles GET /api/v1/users/me/subscriptions.
func (h EngagementHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	ids, err := h.Edges.ListSubscribedChannelIDs(ctx, userID)
	if err != nil {
		respondDomainError(ctx, w, "list subscriptions", err)
		return
	}

	h.respondUserList(w, r, ids)
}

func (h EngagementHandler) toggleLike(w http.ResponseWriter, r *http.Request, kind models.LikeKind) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	result, err := h.Toggler.ToggleLike(ctx, userID, kind, r.PathValue("id"))
	if err != nil {
		respondDomainError(ctx, w, "toggle like", err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, result)
}

func (h EngagementHandler) respondUserList(w http.ResponseWriter, r *http.Request, ids []string) {
	ctx := r.Context()

	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		respondDomainError(ctx, w, "load users", err)
		return
	}

	items := make([]models.OwnerSummary, 0, len(users))
	for _, u := range users {
		items = append(items, models.OwnerSummary{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
			Avatar:   u.Avatar,
		})
	}
	respondJSON(ctx, w, http.StatusOK, userListResponse{Items: items})
}

type userListResponse struct {
	Items []models.OwnerSummary `json:"items"`
}
