package repositories

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// FindByLogin resolves the identifier as a case-folded username or email.
	FindByLogin(ctx context.Context, identifier string) (models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// UpdateAvatar replaces the avatar reference and returns the previous one
	// so the caller can release the stored object.
	UpdateAvatar(ctx context.Context, id string, ref models.MediaRef) (models.MediaRef, error)
	UpdateCoverImage(ctx context.Context, id string, ref models.MediaRef) (models.MediaRef, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// VideoFilters describes the selection applied to the published-video listing.
type VideoFilters struct {
	Query    string
	OwnerID  string
	Sort     string // createdAt, views, or duration
	Dir      string // asc or desc
	Page     int
	PageSize int
}

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool) error
	// Delete removes the video along with its comments and all dependent
	// likes, returning the deleted record so its media can be released.
	Delete(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	ListPublished(ctx context.Context, filters VideoFilters) ([]models.Video, int64, error)
	// ListByIDs returns videos in the order of the supplied ids, skipping
	// ids that no longer resolve.
	ListByIDs(ctx context.Context, ids []string) ([]models.Video, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) error
	// Delete removes the comment and its dependent likes.
	Delete(ctx context.Context, id string) error
	ListByVideo(ctx context.Context, videoID string, page, pageSize int) ([]models.Comment, int64, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// TweetRepository defines the data access contract for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) error
	// Delete removes the tweet and its dependent likes.
	Delete(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, authorID string) ([]models.Tweet, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// PlaylistRepository defines the data access contract for playlists.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, id, name, description string) error
	Delete(ctx context.Context, id string) error
	// AddVideo reports false when the video is already in the playlist.
	AddVideo(ctx context.Context, playlistID, videoID string) (bool, error)
	RemoveVideo(ctx context.Context, playlistID, videoID string) (bool, error)
	VideoIDs(ctx context.Context, playlistID string) ([]string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
}

// EngagementRepository persists like and subscription edges. Insert and delete
// report whether a row was actually written so the toggle engine can decide
// the outcome without a separate existence check.
type EngagementRepository interface {
	InsertLike(ctx context.Context, like models.Like) (bool, error)
	DeleteLike(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (bool, error)
	InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error)
	DeleteSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)

	CountLikes(ctx context.Context, kind models.LikeKind, targetID string) (int64, error)
	IsLiked(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (bool, error)
	LikeCounts(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error)
	LikedSet(ctx context.Context, likerID string, kind models.LikeKind, targetIDs []string) (map[string]bool, error)
	// ListLikedVideoIDs returns video ids liked by the user, newest like first.
	ListLikedVideoIDs(ctx context.Context, likerID string) ([]string, error)

	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscriberIDs(ctx context.Context, channelID string) ([]string, error)
	ListSubscribedChannelIDs(ctx context.Context, subscriberID string) ([]string, error)
}

// HistoryRepository records which videos a user has watched.
type HistoryRepository interface {
	// RecordVisit upserts the visit so repeated views keep a single entry
	// carrying the most recent timestamp.
	RecordVisit(ctx context.Context, userID, videoID string, at time.Time) error
	// VideoIDs returns watched video ids, most recent visit first.
	VideoIDs(ctx context.Context, userID string) ([]string, error)
}
