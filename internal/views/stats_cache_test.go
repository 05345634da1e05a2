package views

import (
	"context"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

func TestCachingEngagementServesStaleCounts(t *testing.T) {
	base := &fakeEngagement{likes: []models.Like{
		{LikerID: "user-1", Kind: models.LikeVideo, TargetID: "video-1"},
	}}
	cache := NewCachingEngagement(base, time.Hour)
	ctx := context.Background()

	count, err := cache.CountLikes(ctx, models.LikeVideo, "video-1")
	if err != nil {
		t.Fatalf("CountLikes returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountLikes = %d, want 1", count)
	}

	// A new like lands; the cached counter keeps serving the old value.
	base.likes = append(base.likes, models.Like{LikerID: "user-2", Kind: models.LikeVideo, TargetID: "video-1"})

	count, err = cache.CountLikes(ctx, models.LikeVideo, "video-1")
	if err != nil {
		t.Fatalf("CountLikes returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountLikes = %d, want cached 1", count)
	}
}

func TestCachingEngagementKeysAreIndependent(t *testing.T) {
	base := &fakeEngagement{likes: []models.Like{
		{LikerID: "user-1", Kind: models.LikeVideo, TargetID: "shared-id"},
	}}
	cache := NewCachingEngagement(base, time.Hour)
	ctx := context.Background()

	videoLikes, err := cache.CountLikes(ctx, models.LikeVideo, "shared-id")
	if err != nil {
		t.Fatalf("CountLikes returned error: %v", err)
	}
	commentLikes, err := cache.CountLikes(ctx, models.LikeComment, "shared-id")
	if err != nil {
		t.Fatalf("CountLikes returned error: %v", err)
	}
	if videoLikes != 1 || commentLikes != 0 {
		t.Fatalf("counts = {video %d, comment %d}, want {1, 0}", videoLikes, commentLikes)
	}
}

func TestCachingEngagementPassesFlagsThrough(t *testing.T) {
	base := &fakeEngagement{}
	cache := NewCachingEngagement(base, time.Hour)
	ctx := context.Background()

	liked, err := cache.IsLiked(ctx, "user-1", models.LikeVideo, "video-1")
	if err != nil {
		t.Fatalf("IsLiked returned error: %v", err)
	}
	if liked {
		t.Fatal("IsLiked should be false on empty store")
	}

	base.likes = append(base.likes, models.Like{LikerID: "user-1", Kind: models.LikeVideo, TargetID: "video-1"})
	liked, err = cache.IsLiked(ctx, "user-1", models.LikeVideo, "video-1")
	if err != nil {
		t.Fatalf("IsLiked returned error: %v", err)
	}
	if !liked {
		t.Fatal("IsLiked must not be cached")
	}
}
