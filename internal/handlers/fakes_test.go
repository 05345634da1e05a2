package handlers

import (
	"context"
	"io"
	"time"

	"github.com/clipstream/backend/internal/engagement"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// inMemoryUserStore backs both the handlers and the session manager in tests.
type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByLogin(_ context.Context, identifier string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == identifier || user.Email == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) ListByIDs(_ context.Context, ids []string) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *inMemoryUserStore) UpdateAccount(_ context.Context, id, fullName, email string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.FullName = fullName
	user.Email = email
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[id] = user
	return nil
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, id string, ref models.MediaRef) (models.MediaRef, error) {
	user, ok := s.users[id]
	if !ok {
		return models.MediaRef{}, repositories.ErrNotFound
	}
	previous := user.Avatar
	user.Avatar = ref
	s.users[id] = user
	return previous, nil
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, id string, ref models.MediaRef) (models.MediaRef, error) {
	user, ok := s.users[id]
	if !ok {
		return models.MediaRef{}, repositories.ErrNotFound
	}
	previous := user.CoverImage
	user.CoverImage = ref
	s.users[id] = user
	return previous, nil
}

type inMemoryVideoStore struct {
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	stored, ok := s.videos[video.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Title = video.Title
	stored.Description = video.Description
	stored.Thumbnail = video.Thumbnail
	s.videos[video.ID] = stored
	return nil
}

func (s *inMemoryVideoStore) SetPublished(_ context.Context, id string, published bool) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Published = published
	s.videos[id] = video
	return nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	delete(s.videos, id)
	return video, nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

type inMemoryCommentStore struct {
	comments map[string]models.Comment
}

func newInMemoryCommentStore() *inMemoryCommentStore {
	return &inMemoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *inMemoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *inMemoryCommentStore) UpdateContent(_ context.Context, id, content string) error {
	comment, ok := s.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type inMemoryTweetStore struct {
	tweets map[string]models.Tweet
}

func newInMemoryTweetStore() *inMemoryTweetStore {
	return &inMemoryTweetStore{tweets: make(map[string]models.Tweet)}
}

func (s *inMemoryTweetStore) Create(_ context.Context, tweet models.Tweet) error {
	s.tweets[tweet.ID] = tweet
	return nil
}

func (s *inMemoryTweetStore) FindByID(_ context.Context, id string) (models.Tweet, error) {
	tweet, ok := s.tweets[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return tweet, nil
}

func (s *inMemoryTweetStore) UpdateContent(_ context.Context, id, content string) error {
	tweet, ok := s.tweets[id]
	if !ok {
		return repositories.ErrNotFound
	}
	tweet.Content = content
	s.tweets[id] = tweet
	return nil
}

func (s *inMemoryTweetStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tweets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tweets, id)
	return nil
}

type inMemoryPlaylistStore struct {
	playlists map[string]models.Playlist
	members   map[string]map[string]bool
}

func newInMemoryPlaylistStore() *inMemoryPlaylistStore {
	return &inMemoryPlaylistStore{
		playlists: make(map[string]models.Playlist),
		members:   make(map[string]map[string]bool),
	}
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *inMemoryPlaylistStore) Update(_ context.Context, id, name, description string) error {
	playlist, ok := s.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	playlist.Name = name
	playlist.Description = description
	s.playlists[id] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	delete(s.members, id)
	return nil
}

func (s *inMemoryPlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) (bool, error) {
	if s.members[playlistID] == nil {
		s.members[playlistID] = make(map[string]bool)
	}
	if s.members[playlistID][videoID] {
		return false, nil
	}
	s.members[playlistID][videoID] = true
	return true, nil
}

func (s *inMemoryPlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) (bool, error) {
	if !s.members[playlistID][videoID] {
		return false, nil
	}
	delete(s.members[playlistID], videoID)
	return true, nil
}

func (s *inMemoryPlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	out := make([]models.Playlist, 0)
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, playlist)
		}
	}
	return out, nil
}

// stubToggler records toggle calls and replies with a scripted result.
type stubToggler struct {
	result engagement.Result
	err    error

	lastKind   models.LikeKind
	lastTarget string
	lastLiker  string
}

func (s *stubToggler) ToggleLike(_ context.Context, likerID string, kind models.LikeKind, targetID string) (engagement.Result, error) {
	s.lastLiker, s.lastKind, s.lastTarget = likerID, kind, targetID
	return s.result, s.err
}

func (s *stubToggler) ToggleSubscription(_ context.Context, subscriberID, channelID string) (engagement.Result, error) {
	s.lastLiker, s.lastTarget = subscriberID, channelID
	return s.result, s.err
}

type stubEdges struct {
	subscribers map[string][]string
	channels    map[string][]string
}

func (s *stubEdges) ListSubscriberIDs(_ context.Context, channelID string) ([]string, error) {
	return s.subscribers[channelID], nil
}

func (s *stubEdges) ListSubscribedChannelIDs(_ context.Context, subscriberID string) ([]string, error) {
	return s.channels[subscriberID], nil
}

// stubViews replies with canned view models.
type stubViews struct {
	detail  models.VideoDetail
	profile models.ChannelProfile
	feed    models.VideoFeed
	cards   []models.VideoCard
	err     error
}

func (s *stubViews) VideoDetail(_ context.Context, _, _ string) (models.VideoDetail, error) {
	return s.detail, s.err
}

func (s *stubViews) ChannelProfile(_ context.Context, _, _ string) (models.ChannelProfile, error) {
	return s.profile, s.err
}

func (s *stubViews) Feed(_ context.Context, _ repositories.VideoFilters) (models.VideoFeed, error) {
	return s.feed, s.err
}

func (s *stubViews) Comments(_ context.Context, _, _ string, page, pageSize int) (models.CommentFeed, error) {
	return models.CommentFeed{Page: page, PageSize: pageSize}, s.err
}

func (s *stubViews) LikedVideos(_ context.Context, _ string) ([]models.VideoCard, error) {
	return s.cards, s.err
}

func (s *stubViews) WatchHistory(_ context.Context, _ string) ([]models.VideoCard, error) {
	return s.cards, s.err
}

func (s *stubViews) UserTweets(_ context.Context, _, _ string) ([]models.TweetView, error) {
	return nil, s.err
}

func (s *stubViews) Playlist(_ context.Context, _ string) (models.PlaylistView, error) {
	return models.PlaylistView{}, s.err
}

type recordedVisit struct {
	userID  string
	videoID string
	at      time.Time
}

type stubHistory struct {
	visits []recordedVisit
}

func (s *stubHistory) RecordVisit(_ context.Context, userID, videoID string, at time.Time) error {
	s.visits = append(s.visits, recordedVisit{userID: userID, videoID: videoID, at: at})
	return nil
}

type stubMedia struct {
	uploads map[string][]byte
	err     error
}

func (s *stubMedia) Put(_ context.Context, key string, r io.Reader) (models.MediaRef, error) {
	if s.err != nil {
		return models.MediaRef{}, s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.MediaRef{}, err
	}
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
	}
	s.uploads[key] = data
	return models.MediaRef{URL: "https://cdn.example.com/" + key, StoreID: key}, nil
}

type stubReleaser struct {
	released []string
}

func (s *stubReleaser) Release(_ context.Context, ref models.MediaRef) error {
	if ref.StoreID != "" {
		s.released = append(s.released, ref.StoreID)
	}
	return nil
}

type stubProber struct {
	duration float64
	err      error
}

func (s *stubProber) Duration(_ context.Context, _ string) (float64, error) {
	return s.duration, s.err
}
