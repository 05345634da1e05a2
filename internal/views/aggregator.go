// Package views assembles read models by joining records from the
// repositories at request time. Counts and flags are derived on read, so a
// view may trail a concurrent toggle by one request; nothing here writes.
package views

import (
	"context"
	"fmt"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserReader is the slice of the user repository the aggregator reads from.
type UserReader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

// VideoReader is the slice of the video repository the aggregator reads from.
type VideoReader interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	Exists(ctx context.Context, id string) (bool, error)
	ListPublished(ctx context.Context, filters repositories.VideoFilters) ([]models.Video, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Video, error)
}

// CommentReader lists a video's comments.
type CommentReader interface {
	ListByVideo(ctx context.Context, videoID string, page, pageSize int) ([]models.Comment, int64, error)
}

// TweetReader lists a user's tweets.
type TweetReader interface {
	ListByAuthor(ctx context.Context, authorID string) ([]models.Tweet, error)
}

// PlaylistReader resolves playlists and their video order.
type PlaylistReader interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	VideoIDs(ctx context.Context, playlistID string) ([]string, error)
}

// EngagementReader exposes the derived counts and flags over like and
// subscription edges.
type EngagementReader interface {
	CountLikes(ctx context.Context, kind models.LikeKind, targetID string) (int64, error)
	IsLiked(ctx context.Context, likerID string, kind models.LikeKind, targetID string) (bool, error)
	LikeCounts(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error)
	LikedSet(ctx context.Context, likerID string, kind models.LikeKind, targetIDs []string) (map[string]bool, error)
	ListLikedVideoIDs(ctx context.Context, likerID string) ([]string, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// HistoryReader lists a user's watched video ids.
type HistoryReader interface {
	VideoIDs(ctx context.Context, userID string) ([]string, error)
}

// Aggregator builds the composite read models served by the API.
type Aggregator struct {
	users      UserReader
	videos     VideoReader
	comments   CommentReader
	tweets     TweetReader
	playlists  PlaylistReader
	engagement EngagementReader
	history    HistoryReader
}

// NewAggregator wires the aggregator to its backing repositories.
func NewAggregator(
	users UserReader,
	videos VideoReader,
	comments CommentReader,
	tweets TweetReader,
	playlists PlaylistReader,
	engagement EngagementReader,
	history HistoryReader,
) *Aggregator {
	return &Aggregator{
		users:      users,
		videos:     videos,
		comments:   comments,
		tweets:     tweets,
		playlists:  playlists,
		engagement: engagement,
		history:    history,
	}
}

// VideoDetail assembles the full single-video view: the record, its owner as
// a channel summary, like state, and the first page of comments. Unpublished
// videos are visible only to their owner; everyone else sees not-found.
// viewerID may be empty for anonymous requests.
func (a *Aggregator) VideoDetail(ctx context.Context, videoID, viewerID string) (models.VideoDetail, error) {
	video, err := a.videos.FindByID(ctx, videoID)
	if err != nil {
		return models.VideoDetail{}, fmt.Errorf("load video: %w", err)
	}
	if !video.Published && video.OwnerID != viewerID {
		return models.VideoDetail{}, fmt.Errorf("load video: %w", repositories.ErrNotFound)
	}

	owner, err := a.channelSummary(ctx, video.OwnerID, viewerID)
	if err != nil {
		return models.VideoDetail{}, err
	}

	likeCount, err := a.engagement.CountLikes(ctx, models.LikeVideo, videoID)
	if err != nil {
		return models.VideoDetail{}, fmt.Errorf("count video likes: %w", err)
	}
	liked, err := a.isLiked(ctx, viewerID, models.LikeVideo, videoID)
	if err != nil {
		return models.VideoDetail{}, err
	}

	comments, err := a.Comments(ctx, videoID, viewerID, 1, defaultPageSize)
	if err != nil {
		return models.VideoDetail{}, err
	}

	return models.VideoDetail{
		Video:           video,
		Owner:           owner,
		LikeCount:       likeCount,
		IsLikedByViewer: liked,
		Comments:        comments,
	}, nil
}

// ChannelProfile assembles the public profile of the channel behind username.
func (a *Aggregator) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	user, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("load channel: %w", err)
	}

	subscribers, err := a.engagement.CountSubscribers(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscribers: %w", err)
	}
	subscribedTo, err := a.engagement.CountSubscriptions(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscriptions: %w", err)
	}
	subscribed, err := a.isSubscribed(ctx, viewerID, user.ID)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	return models.ChannelProfile{
		ID:                   user.ID,
		Username:             user.Username,
		FullName:             user.FullName,
		Avatar:               user.Avatar,
		CoverImage:           user.CoverImage,
		SubscriberCount:      subscribers,
		SubscribedToCount:    subscribedTo,
		IsSubscribedByViewer: subscribed,
	}, nil
}

// Feed returns one page of the published-video listing with owners attached.
func (a *Aggregator) Feed(ctx context.Context, filters repositories.VideoFilters) (models.VideoFeed, error) {
	normalizeFilters(&filters)

	videos, total, err := a.videos.ListPublished(ctx, filters)
	if err != nil {
		return models.VideoFeed{}, fmt.Errorf("list videos: %w", err)
	}

	cards, err := a.videoCards(ctx, videos)
	if err != nil {
		return models.VideoFeed{}, err
	}

	return models.VideoFeed{
		Items:    cards,
		Page:     filters.Page,
		PageSize: filters.PageSize,
		Total:    total,
	}, nil
}

// Comments returns one page of a video's comments, newest first, annotated
// with authors and the viewer's like state.
func (a *Aggregator) Comments(ctx context.Context, videoID, viewerID string, page, pageSize int) (models.CommentFeed, error) {
	page, pageSize = normalizePage(page, pageSize)

	exists, err := a.videos.Exists(ctx, videoID)
	if err != nil {
		return models.CommentFeed{}, fmt.Errorf("check video: %w", err)
	}
	if !exists {
		return models.CommentFeed{}, fmt.Errorf("load comments: %w", repositories.ErrNotFound)
	}

	comments, total, err := a.comments.ListByVideo(ctx, videoID, page, pageSize)
	if err != nil {
		return models.CommentFeed{}, fmt.Errorf("list comments: %w", err)
	}

	authorIDs := make([]string, 0, len(comments))
	commentIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
		commentIDs = append(commentIDs, c.ID)
	}

	owners, err := a.ownerSummaries(ctx, authorIDs)
	if err != nil {
		return models.CommentFeed{}, err
	}
	likeCounts, err := a.engagement.LikeCounts(ctx, models.LikeComment, commentIDs)
	if err != nil {
		return models.CommentFeed{}, fmt.Errorf("count comment likes: %w", err)
	}
	likedSet, err := a.engagement.LikedSet(ctx, viewerID, models.LikeComment, commentIDs)
	if err != nil {
		return models.CommentFeed{}, fmt.Errorf("load viewer likes: %w", err)
	}

	items := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		items = append(items, models.CommentView{
			Comment:         c,
			Owner:           owners[c.AuthorID],
			LikeCount:       likeCounts[c.ID],
			IsLikedByViewer: likedSet[c.ID],
		})
	}

	return models.CommentFeed{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

// LikedVideos returns the videos the user has liked, newest like first.
// Videos deleted or unpublished since the like are silently dropped.
func (a *Aggregator) LikedVideos(ctx context.Context, userID string) ([]models.VideoCard, error) {
	ids, err := a.engagement.ListLikedVideoIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list liked videos: %w", err)
	}
	return a.cardsByIDs(ctx, ids)
}

// WatchHistory returns the user's watched videos, most recent visit first.
func (a *Aggregator) WatchHistory(ctx context.Context, userID string) ([]models.VideoCard, error) {
	ids, err := a.history.VideoIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	return a.cardsByIDs(ctx, ids)
}

// UserTweets returns a user's tweets, newest first, with like annotations.
func (a *Aggregator) UserTweets(ctx context.Context, authorID, viewerID string) ([]models.TweetView, error) {
	author, err := a.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("load author: %w", err)
	}

	tweets, err := a.tweets.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}

	tweetIDs := make([]string, 0, len(tweets))
	for _, tw := range tweets {
		tweetIDs = append(tweetIDs, tw.ID)
	}
	likeCounts, err := a.engagement.LikeCounts(ctx, models.LikeTweet, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("count tweet likes: %w", err)
	}
	likedSet, err := a.engagement.LikedSet(ctx, viewerID, models.LikeTweet, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("load viewer likes: %w", err)
	}

	owner := summarize(author)
	items := make([]models.TweetView, 0, len(tweets))
	for _, tw := range tweets {
		items = append(items, models.TweetView{
			Tweet:           tw,
			Owner:           owner,
			LikeCount:       likeCounts[tw.ID],
			IsLikedByViewer: likedSet[tw.ID],
		})
	}
	return items, nil
}

// Playlist assembles a playlist with its videos resolved into cards in
// playlist order.
func (a *Aggregator) Playlist(ctx context.Context, playlistID string) (models.PlaylistView, error) {
	playlist, err := a.playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.PlaylistView{}, fmt.Errorf("load playlist: %w", err)
	}

	owner, err := a.users.FindByID(ctx, playlist.OwnerID)
	if err != nil {
		return models.PlaylistView{}, fmt.Errorf("load playlist owner: %w", err)
	}

	ids, err := a.playlists.VideoIDs(ctx, playlistID)
	if err != nil {
		return models.PlaylistView{}, fmt.Errorf("list playlist videos: %w", err)
	}
	cards, err := a.cardsByIDs(ctx, ids)
	if err != nil {
		return models.PlaylistView{}, err
	}

	return models.PlaylistView{Playlist: playlist, Owner: summarize(owner), Videos: cards}, nil
}

func (a *Aggregator) channelSummary(ctx context.Context, channelID, viewerID string) (models.ChannelSummary, error) {
	user, err := a.users.FindByID(ctx, channelID)
	if err != nil {
		return models.ChannelSummary{}, fmt.Errorf("load channel owner: %w", err)
	}
	subscribers, err := a.engagement.CountSubscribers(ctx, channelID)
	if err != nil {
		return models.ChannelSummary{}, fmt.Errorf("count subscribers: %w", err)
	}
	subscribed, err := a.isSubscribed(ctx, viewerID, channelID)
	if err != nil {
		return models.ChannelSummary{}, err
	}
	return models.ChannelSummary{
		OwnerSummary:         summarize(user),
		SubscriberCount:      subscribers,
		IsSubscribedByViewer: subscribed,
	}, nil
}

// cardsByIDs resolves ids into video cards preserving order; ids that no
// longer resolve are dropped.
func (a *Aggregator) cardsByIDs(ctx context.Context, ids []string) ([]models.VideoCard, error) {
	if len(ids) == 0 {
		return []models.VideoCard{}, nil
	}
	videos, err := a.videos.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load videos: %w", err)
	}
	return a.videoCards(ctx, videos)
}

func (a *Aggregator) videoCards(ctx context.Context, videos []models.Video) ([]models.VideoCard, error) {
	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		ownerIDs = append(ownerIDs, v.OwnerID)
	}
	owners, err := a.ownerSummaries(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	cards := make([]models.VideoCard, 0, len(videos))
	for _, v := range videos {
		cards = append(cards, models.VideoCard{Video: v, Owner: owners[v.OwnerID]})
	}
	return cards, nil
}

func (a *Aggregator) ownerSummaries(ctx context.Context, ids []string) (map[string]models.OwnerSummary, error) {
	summaries := make(map[string]models.OwnerSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}
	users, err := a.users.ListByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	for _, u := range users {
		summaries[u.ID] = summarize(u)
	}
	return summaries, nil
}

func (a *Aggregator) isLiked(ctx context.Context, viewerID string, kind models.LikeKind, targetID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}
	liked, err := a.engagement.IsLiked(ctx, viewerID, kind, targetID)
	if err != nil {
		return false, fmt.Errorf("load viewer like: %w", err)
	}
	return liked, nil
}

func (a *Aggregator) isSubscribed(ctx context.Context, viewerID, channelID string) (bool, error) {
	if viewerID == "" || viewerID == channelID {
		return false, nil
	}
	subscribed, err := a.engagement.IsSubscribed(ctx, viewerID, channelID)
	if err != nil {
		return false, fmt.Errorf("load viewer subscription: %w", err)
	}
	return subscribed, nil
}

func summarize(user models.User) models.OwnerSummary {
	return models.OwnerSummary{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Avatar:   user.Avatar,
	}
}

func normalizeFilters(filters *repositories.VideoFilters) {
	filters.Page, filters.PageSize = normalizePage(filters.Page, filters.PageSize)
	if filters.Sort == "" {
		filters.Sort = "createdAt"
	}
	if filters.Dir == "" {
		filters.Dir = "desc"
	}
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
