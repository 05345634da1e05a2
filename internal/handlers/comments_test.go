package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

func newCommentHandler() (CommentHandler, *inMemoryCommentStore, *inMemoryVideoStore, *stubViews) {
	comments := newInMemoryCommentStore()
	videos := newInMemoryVideoStore()
	views := &stubViews{}
	handler := CommentHandler{
		Comments: comments,
		Videos:   videos,
		Views:    views,
		NowFunc:  func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	return handler, comments, videos, views
}

func TestCommentHandlerCreate(t *testing.T) {
	handler, comments, videos, _ := newCommentHandler()
	videos.videos["vid-1"] = models.Video{ID: "vid-1", OwnerID: "user-2"}

	payload, _ := json.Marshal(commentRequest{Content: "  nice video  "})
	req := authedRequest(http.MethodPost, "/api/v1/videos/vid-1/comments", bytes.NewReader(payload), "user-1")
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created models.Comment
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Content != "nice video" {
		t.Fatalf("content = %q, want trimmed content", created.Content)
	}
	if created.AuthorID != "user-1" || created.VideoID != "vid-1" {
		t.Fatalf("unexpected comment attribution: %+v", created)
	}
	if _, ok := comments.comments[created.ID]; !ok {
		t.Fatal("comment was not stored")
	}
}

func TestCommentHandlerCreateUnknownVideo(t *testing.T) {
	handler, comments, _, _ := newCommentHandler()

	payload, _ := json.Marshal(commentRequest{Content: "hello"})
	req := authedRequest(http.MethodPost, "/api/v1/videos/ghost/comments", bytes.NewReader(payload), "user-1")
	req.SetPathValue("id", "ghost")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if len(comments.comments) != 0 {
		t.Fatal("no comment should be stored for an unknown video")
	}
}

func TestCommentHandlerCreateValidation(t *testing.T) {
	handler, _, videos, _ := newCommentHandler()
	videos.videos["vid-1"] = models.Video{ID: "vid-1"}

	cases := []struct {
		name    string
		content string
	}{
		{"empty", "   "},
		{"too long", strings.Repeat("x", maxCommentLength+1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, _ := json.Marshal(commentRequest{Content: tc.content})
			req := authedRequest(http.MethodPost, "/api/v1/videos/vid-1/comments", bytes.NewReader(payload), "user-1")
			req.SetPathValue("id", "vid-1")
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCommentHandlerList(t *testing.T) {
	handler, _, _, _ := newCommentHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/vid-1/comments?page=2&pageSize=5", nil)
	req.SetPathValue("id", "vid-1")
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var feed models.CommentFeed
	if err := json.NewDecoder(rec.Body).Decode(&feed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if feed.Page != 2 || feed.PageSize != 5 {
		t.Fatalf("feed page = %d size = %d, want 2/5", feed.Page, feed.PageSize)
	}
}

func TestCommentHandlerUpdateAuthorOnly(t *testing.T) {
	handler, comments, _, _ := newCommentHandler()
	comments.comments["c-1"] = models.Comment{ID: "c-1", AuthorID: "user-2", Content: "original"}

	payload, _ := json.Marshal(commentRequest{Content: "edited"})
	req := authedRequest(http.MethodPatch, "/api/v1/comments/c-1", bytes.NewReader(payload), "user-1")
	req.SetPathValue("id", "c-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if comments.comments["c-1"].Content != "original" {
		t.Fatal("content must not change for a non-author")
	}
}

func TestCommentHandlerUpdate(t *testing.T) {
	handler, comments, _, _ := newCommentHandler()
	comments.comments["c-1"] = models.Comment{ID: "c-1", AuthorID: "user-1", Content: "original"}

	payload, _ := json.Marshal(commentRequest{Content: "edited"})
	req := authedRequest(http.MethodPatch, "/api/v1/comments/c-1", bytes.NewReader(payload), "user-1")
	req.SetPathValue("id", "c-1")
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if comments.comments["c-1"].Content != "edited" {
		t.Fatalf("stored content = %q, want edited", comments.comments["c-1"].Content)
	}
}

func TestCommentHandlerDelete(t *testing.T) {
	handler, comments, _, _ := newCommentHandler()
	comments.comments["c-1"] = models.Comment{ID: "c-1", AuthorID: "user-1"}

	req := authedRequest(http.MethodDelete, "/api/v1/comments/c-1", nil, "user-1")
	req.SetPathValue("id", "c-1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if len(comments.comments) != 0 {
		t.Fatal("comment should be deleted")
	}
}
