package views

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

func testClock(offset int) time.Time {
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(offset) * time.Minute)
}

type fixture struct {
	users      fakeUsers
	videos     fakeVideos
	comments   fakeComments
	tweets     fakeTweets
	playlists  *fakePlaylists
	engagement *fakeEngagement
	history    fakeHistory
}

func newFixture() *fixture {
	return &fixture{
		users:      fakeUsers{},
		videos:     fakeVideos{},
		playlists:  &fakePlaylists{playlists: map[string]models.Playlist{}, videos: map[string][]string{}},
		engagement: &fakeEngagement{},
		history:    fakeHistory{},
	}
}

func (f *fixture) aggregator() *Aggregator {
	return NewAggregator(f.users, f.videos, f.comments, f.tweets, f.playlists, f.engagement, f.history)
}

func (f *fixture) addUser(id, username string) {
	f.users[id] = models.User{ID: id, Username: username, FullName: "Full " + username,
		Avatar: models.MediaRef{URL: "https://cdn.example.com/" + id + ".png"}}
}

func (f *fixture) addVideo(id, ownerID string, published bool, createdAt time.Time) {
	f.videos[id] = models.Video{ID: id, OwnerID: ownerID, Title: "Video " + id,
		Published: published, CreatedAt: createdAt}
}

func TestVideoDetailAssembly(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	f.addUser("viewer-1", "viewer")
	f.addUser("commenter-1", "commenter")
	f.addVideo("video-1", "owner-1", true, testClock(0))

	f.engagement.likes = []models.Like{
		{LikerID: "viewer-1", Kind: models.LikeVideo, TargetID: "video-1"},
		{LikerID: "commenter-1", Kind: models.LikeVideo, TargetID: "video-1"},
		{LikerID: "viewer-1", Kind: models.LikeComment, TargetID: "comment-1"},
	}
	f.engagement.subs = []models.Subscription{
		{SubscriberID: "viewer-1", ChannelID: "owner-1"},
		{SubscriberID: "commenter-1", ChannelID: "owner-1"},
	}
	f.comments = fakeComments{
		{ID: "comment-1", VideoID: "video-1", AuthorID: "commenter-1", Content: "first"},
	}

	detail, err := f.aggregator().VideoDetail(context.Background(), "video-1", "viewer-1")
	if err != nil {
		t.Fatalf("VideoDetail returned error: %v", err)
	}

	if detail.ID != "video-1" {
		t.Fatalf("detail.ID = %q, want video-1", detail.ID)
	}
	if detail.LikeCount != 2 {
		t.Fatalf("detail.LikeCount = %d, want 2", detail.LikeCount)
	}
	if !detail.IsLikedByViewer {
		t.Fatal("detail.IsLikedByViewer should be true")
	}
	if detail.Owner.Username != "creator" {
		t.Fatalf("detail.Owner.Username = %q, want creator", detail.Owner.Username)
	}
	if detail.Owner.SubscriberCount != 2 {
		t.Fatalf("detail.Owner.SubscriberCount = %d, want 2", detail.Owner.SubscriberCount)
	}
	if !detail.Owner.IsSubscribedByViewer {
		t.Fatal("detail.Owner.IsSubscribedByViewer should be true")
	}

	if detail.Comments.Total != 1 || len(detail.Comments.Items) != 1 {
		t.Fatalf("detail.Comments = %+v, want one comment", detail.Comments)
	}
	comment := detail.Comments.Items[0]
	if comment.Owner.Username != "commenter" {
		t.Fatalf("comment.Owner.Username = %q, want commenter", comment.Owner.Username)
	}
	if comment.LikeCount != 1 || !comment.IsLikedByViewer {
		t.Fatalf("comment annotations = {count %d, liked %v}, want {1, true}", comment.LikeCount, comment.IsLikedByViewer)
	}
}

func TestVideoDetailAnonymousViewer(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	f.addVideo("video-1", "owner-1", true, testClock(0))
	f.engagement.likes = []models.Like{{LikerID: "someone", Kind: models.LikeVideo, TargetID: "video-1"}}

	detail, err := f.aggregator().VideoDetail(context.Background(), "video-1", "")
	if err != nil {
		t.Fatalf("VideoDetail returned error: %v", err)
	}
	if detail.IsLikedByViewer {
		t.Fatal("anonymous viewer should never appear as having liked")
	}
	if detail.Owner.IsSubscribedByViewer {
		t.Fatal("anonymous viewer should never appear as subscribed")
	}
	if detail.LikeCount != 1 {
		t.Fatalf("detail.LikeCount = %d, want 1", detail.LikeCount)
	}
}

func TestVideoDetailUnpublishedVisibility(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	f.addUser("viewer-1", "viewer")
	f.addVideo("video-1", "owner-1", false, testClock(0))

	if _, err := f.aggregator().VideoDetail(context.Background(), "video-1", "owner-1"); err != nil {
		t.Fatalf("owner should see own unpublished video, got error: %v", err)
	}

	_, err := f.aggregator().VideoDetail(context.Background(), "video-1", "viewer-1")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("non-owner error = %v, want ErrNotFound", err)
	}

	_, err = f.aggregator().VideoDetail(context.Background(), "video-1", "")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("anonymous error = %v, want ErrNotFound", err)
	}
}

func TestVideoDetailUnknownVideo(t *testing.T) {
	f := newFixture()

	_, err := f.aggregator().VideoDetail(context.Background(), "missing", "")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("VideoDetail error = %v, want ErrNotFound", err)
	}
}

func TestChannelProfile(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	f.addUser("viewer-1", "viewer")
	f.addUser("viewer-2", "other")
	f.engagement.subs = []models.Subscription{
		{SubscriberID: "viewer-1", ChannelID: "owner-1"},
		{SubscriberID: "viewer-2", ChannelID: "owner-1"},
		{SubscriberID: "owner-1", ChannelID: "viewer-2"},
	}

	profile, err := f.aggregator().ChannelProfile(context.Background(), "creator", "viewer-1")
	if err != nil {
		t.Fatalf("ChannelProfile returned error: %v", err)
	}
	if profile.SubscriberCount != 2 {
		t.Fatalf("SubscriberCount = %d, want 2", profile.SubscriberCount)
	}
	if profile.SubscribedToCount != 1 {
		t.Fatalf("SubscribedToCount = %d, want 1", profile.SubscribedToCount)
	}
	if !profile.IsSubscribedByViewer {
		t.Fatal("IsSubscribedByViewer should be true")
	}

	// Viewing one's own channel never reports a self subscription.
	own, err := f.aggregator().ChannelProfile(context.Background(), "creator", "owner-1")
	if err != nil {
		t.Fatalf("ChannelProfile returned error: %v", err)
	}
	if own.IsSubscribedByViewer {
		t.Fatal("own profile should not report a self subscription")
	}
}

func TestChannelProfileUnknownUsername(t *testing.T) {
	f := newFixture()

	_, err := f.aggregator().ChannelProfile(context.Background(), "ghost", "")
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("ChannelProfile error = %v, want ErrNotFound", err)
	}
}

func TestFeedPaginationAndOwners(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	for i := 0; i < 5; i++ {
		f.addVideo(fmt.Sprintf("video-%d", i), "owner-1", true, testClock(i))
	}
	f.addVideo("video-draft", "owner-1", false, testClock(10))

	feed, err := f.aggregator().Feed(context.Background(), repositories.VideoFilters{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if feed.Total != 5 {
		t.Fatalf("feed.Total = %d, want 5 (drafts excluded)", feed.Total)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("len(feed.Items) = %d, want 2", len(feed.Items))
	}
	// Default ordering is newest first.
	if feed.Items[0].ID != "video-4" || feed.Items[1].ID != "video-3" {
		t.Fatalf("feed page 1 = [%s %s], want [video-4 video-3]", feed.Items[0].ID, feed.Items[1].ID)
	}
	if feed.Items[0].Owner.Username != "creator" {
		t.Fatalf("feed owner = %q, want creator", feed.Items[0].Owner.Username)
	}

	last, err := f.aggregator().Feed(context.Background(), repositories.VideoFilters{Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(last.Items) != 1 || last.Items[0].ID != "video-0" {
		t.Fatalf("feed page 3 = %+v, want only video-0", last.Items)
	}

	empty, err := f.aggregator().Feed(context.Background(), repositories.VideoFilters{Page: 9, PageSize: 2})
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(empty.Items) != 0 || empty.Total != 5 {
		t.Fatalf("past-the-end page = %+v, want empty items with total 5", empty)
	}
}

func TestFeedDefaultsApplied(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	f.addVideo("video-1", "owner-1", true, testClock(0))

	feed, err := f.aggregator().Feed(context.Background(), repositories.VideoFilters{})
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if feed.Page != 1 || feed.PageSize != defaultPageSize {
		t.Fatalf("feed page/pageSize = %d/%d, want 1/%d", feed.Page, feed.PageSize, defaultPageSize)
	}

	capped, err := f.aggregator().Feed(context.Background(), repositories.VideoFilters{PageSize: 1000})
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if capped.PageSize != maxPageSize {
		t.Fatalf("feed.PageSize = %d, want capped to %d", capped.PageSize, maxPageSize)
	}
}

func TestCommentsUnknownVideo(t *testing.T) {
	f := newFixture()

	_, err := f.aggregator().Comments(context.Background(), "missing", "", 1, 20)
	if !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("Comments error = %v, want ErrNotFound", err)
	}
}

func TestLikedVideosDropsUnresolvable(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	f.addUser("viewer-1", "viewer")
	f.addVideo("video-1", "owner-1", true, testClock(0))
	f.addVideo("video-2", "owner-1", true, testClock(1))
	f.engagement.likes = []models.Like{
		{LikerID: "viewer-1", Kind: models.LikeVideo, TargetID: "video-2"},
		{LikerID: "viewer-1", Kind: models.LikeVideo, TargetID: "video-gone"},
		{LikerID: "viewer-1", Kind: models.LikeVideo, TargetID: "video-1"},
	}

	cards, err := f.aggregator().LikedVideos(context.Background(), "viewer-1")
	if err != nil {
		t.Fatalf("LikedVideos returned error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("len(cards) = %d, want 2 (deleted video dropped)", len(cards))
	}
	if cards[0].ID != "video-2" || cards[1].ID != "video-1" {
		t.Fatalf("cards = [%s %s], want newest like first", cards[0].ID, cards[1].ID)
	}
}

func TestWatchHistoryOrder(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "creator")
	f.addUser("viewer-1", "viewer")
	f.addVideo("video-1", "owner-1", true, testClock(0))
	f.addVideo("video-2", "owner-1", true, testClock(1))
	f.history["viewer-1"] = []string{"video-1", "video-2"}

	cards, err := f.aggregator().WatchHistory(context.Background(), "viewer-1")
	if err != nil {
		t.Fatalf("WatchHistory returned error: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "video-1" || cards[1].ID != "video-2" {
		t.Fatalf("cards = %+v, want history order preserved", cards)
	}

	none, err := f.aggregator().WatchHistory(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("WatchHistory returned error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("len(none) = %d, want empty history", len(none))
	}
}

func TestUserTweets(t *testing.T) {
	f := newFixture()
	f.addUser("author-1", "poster")
	f.addUser("viewer-1", "viewer")
	f.tweets = fakeTweets{
		{ID: "tweet-1", AuthorID: "author-1", Content: "hello"},
		{ID: "tweet-2", AuthorID: "author-1", Content: "again"},
		{ID: "tweet-3", AuthorID: "someone-else", Content: "noise"},
	}
	f.engagement.likes = []models.Like{
		{LikerID: "viewer-1", Kind: models.LikeTweet, TargetID: "tweet-1"},
	}

	tweets, err := f.aggregator().UserTweets(context.Background(), "author-1", "viewer-1")
	if err != nil {
		t.Fatalf("UserTweets returned error: %v", err)
	}
	if len(tweets) != 2 {
		t.Fatalf("len(tweets) = %d, want 2", len(tweets))
	}
	if tweets[0].LikeCount != 1 || !tweets[0].IsLikedByViewer {
		t.Fatalf("tweet annotations = %+v, want liked once by viewer", tweets[0])
	}
	if tweets[0].Owner.Username != "poster" {
		t.Fatalf("tweet owner = %q, want poster", tweets[0].Owner.Username)
	}
}

func TestPlaylistAssembly(t *testing.T) {
	f := newFixture()
	f.addUser("owner-1", "curator")
	f.addVideo("video-1", "owner-1", true, testClock(0))
	f.addVideo("video-2", "owner-1", true, testClock(1))
	f.playlists.playlists["playlist-1"] = models.Playlist{ID: "playlist-1", OwnerID: "owner-1", Name: "favorites"}
	f.playlists.videos["playlist-1"] = []string{"video-2", "video-1"}

	view, err := f.aggregator().Playlist(context.Background(), "playlist-1")
	if err != nil {
		t.Fatalf("Playlist returned error: %v", err)
	}
	if view.Name != "favorites" || view.Owner.Username != "curator" {
		t.Fatalf("view = %+v, want favorites by curator", view)
	}
	if len(view.Videos) != 2 || view.Videos[0].ID != "video-2" {
		t.Fatalf("view.Videos = %+v, want playlist order preserved", view.Videos)
	}
}
