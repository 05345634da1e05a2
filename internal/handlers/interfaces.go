package handlers

import (
	"context"
	"io"
	"time"

	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the account handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id string, ref models.MediaRef) (models.MediaRef, error)
	UpdateCoverImage(ctx context.Context, id string, ref models.MediaRef) (models.MediaRef, error)
}

// SessionManager drives the token lifecycle for the auth handlers.
type SessionManager interface {
	Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error)
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// VideoStore captures persistence for video records.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool) error
	Delete(ctx context.Context, id string) (models.Video, error)
	IncrementViews(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, id, name, description string) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) (bool, error)
	RemoveVideo(ctx context.Context, playlistID, videoID string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
}

// EdgeToggler flips like and subscription edges.
type EdgeToggler interface {
	ToggleLike(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (engagement.Result, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (engagement.Result, error)
}

// SubscriptionLister lists the members of a channel's subscription edges.
type SubscriptionLister interface {
	ListSubscriberIDs(ctx context.Context, channelID string) ([]string, error)
	ListSubscribedChannelIDs(ctx context.Context, subscriberID string) ([]string, error)
}

// ViewBuilder assembles the composite read models served by the API.
type ViewBuilder interface {
	VideoDetail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	Feed(ctx context.Context, filters repositories.VideoFilters) (models.VideoFeed, error)
	Comments(ctx context.Context, videoID, viewerID string, page, pageSize int) (models.CommentFeed, error)
	LikedVideos(ctx context.Context, userID string) ([]models.VideoCard, error)
	WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error)
	UserTweets(ctx context.Context, authorID, viewerID string) ([]models.TweetView, error)
	Playlist(ctx context.Context, playlistID string) (models.PlaylistView, error)
}

// VisitRecorder tracks watch history.
type VisitRecorder interface {
	RecordVisit(ctx context.Context, userID, videoID string, at time.Time) error
}

// MediaStore uploads media objects.
type MediaStore interface {
	Put(ctx context.Context, key string, r io.Reader) (models.MediaRef, error)
}

// MediaReleaser schedules deletion of replaced media objects.
type MediaReleaser interface {
	Release(ctx context.Context, ref models.MediaRef) error
}

// DurationProber extracts the duration of an uploaded media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}
