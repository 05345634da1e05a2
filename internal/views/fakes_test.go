package views

import (
	"context"
	"sort"
	"strings"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type fakeUsers map[string]models.User

func (f fakeUsers) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := f[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (f fakeUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range f {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (f fakeUsers) ListByIDs(_ context.Context, ids []string) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := f[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

type fakeVideos map[string]models.Video

func (f fakeVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := f[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (f fakeVideos) Exists(_ context.Context, id string) (bool, error) {
	_, ok := f[id]
	return ok, nil
}

func (f fakeVideos) ListPublished(_ context.Context, filters repositories.VideoFilters) ([]models.Video, int64, error) {
	matched := make([]models.Video, 0, len(f))
	for _, v := range f {
		if !v.Published {
			continue
		}
		if filters.OwnerID != "" && v.OwnerID != filters.OwnerID {
			continue
		}
		if filters.Query != "" && !strings.Contains(strings.ToLower(v.Title), strings.ToLower(filters.Query)) {
			continue
		}
		matched = append(matched, v)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filters.Dir == "asc" {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := int64(len(matched))
	start := (filters.Page - 1) * filters.PageSize
	if start >= len(matched) {
		return []models.Video{}, total, nil
	}
	end := start + filters.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f fakeVideos) ListByIDs(_ context.Context, ids []string) ([]models.Video, error) {
	out := make([]models.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := f[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// fakeComments holds comments newest first, the order ListByVideo serves them.
type fakeComments []models.Comment

func (f fakeComments) ListByVideo(_ context.Context, videoID string, page, pageSize int) ([]models.Comment, int64, error) {
	matched := make([]models.Comment, 0, len(f))
	for _, c := range f {
		if c.VideoID == videoID {
			matched = append(matched, c)
		}
	}

	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []models.Comment{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type fakeTweets []models.Tweet

func (f fakeTweets) ListByAuthor(_ context.Context, authorID string) ([]models.Tweet, error) {
	out := make([]models.Tweet, 0, len(f))
	for _, tw := range f {
		if tw.AuthorID == authorID {
			out = append(out, tw)
		}
	}
	return out, nil
}

type fakePlaylists struct {
	playlists map[string]models.Playlist
	videos    map[string][]string
}

func (f *fakePlaylists) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := f.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (f *fakePlaylists) VideoIDs(_ context.Context, playlistID string) ([]string, error) {
	return f.videos[playlistID], nil
}

// fakeEngagement holds likes newest first, the order ListLikedVideoIDs serves
// them.
type fakeEngagement struct {
	likes []models.Like
	subs  []models.Subscription
}

func (f *fakeEngagement) CountLikes(_ context.Context, kind models.LikeKind, targetID string) (int64, error) {
	var n int64
	for _, l := range f.likes {
		if l.Kind == kind && l.TargetID == targetID {
			n++
		}
	}
	return n, nil
}

func (f *fakeEngagement) IsLiked(_ context.Context, likerID string, kind models.LikeKind, targetID string) (bool, error) {
	for _, l := range f.likes {
		if l.LikerID == likerID && l.Kind == kind && l.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEngagement) LikeCounts(ctx context.Context, kind models.LikeKind, targetIDs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(targetIDs))
	for _, id := range targetIDs {
		n, _ := f.CountLikes(ctx, kind, id)
		if n > 0 {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeEngagement) LikedSet(ctx context.Context, likerID string, kind models.LikeKind, targetIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(targetIDs))
	if likerID == "" {
		return out, nil
	}
	for _, id := range targetIDs {
		if liked, _ := f.IsLiked(ctx, likerID, kind, id); liked {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeEngagement) ListLikedVideoIDs(_ context.Context, likerID string) ([]string, error) {
	var out []string
	for _, l := range f.likes {
		if l.LikerID == likerID && l.Kind == models.LikeVideo {
			out = append(out, l.TargetID)
		}
	}
	return out, nil
}

func (f *fakeEngagement) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	var n int64
	for _, s := range f.subs {
		if s.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (f *fakeEngagement) CountSubscriptions(_ context.Context, subscriberID string) (int64, error) {
	var n int64
	for _, s := range f.subs {
		if s.SubscriberID == subscriberID {
			n++
		}
	}
	return n, nil
}

func (f *fakeEngagement) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	for _, s := range f.subs {
		if s.SubscriberID == subscriberID && s.ChannelID == channelID {
			return true, nil
		}
	}
	return false, nil
}

// fakeHistory holds watched video ids most recent first.
type fakeHistory map[string][]string

func (f fakeHistory) VideoIDs(_ context.Context, userID string) ([]string, error) {
	return f[userID], nil
}
