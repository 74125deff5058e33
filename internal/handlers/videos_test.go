package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

const (
	ownerID  = "0c2a2e3e-1111-4a8b-9c27-000000000001"
	viewerID = "0c2a2e3e-1111-4a8b-9c27-000000000002"
	videoID  = "0c2a2e3e-2222-4a8b-9c27-000000000001"
)

func seedVideo(env *testEnv) models.Video {
	video := models.Video{
		ID:           videoID,
		OwnerID:      ownerID,
		Title:        "City timelapse",
		Description:  "Downtown at dusk.",
		VideoURL:     "https://media.test/videos/timelapse.mp4",
		ThumbnailURL: "https://media.test/thumbnails/timelapse.jpg",
		Published:    true,
		CreatedAt:    time.Now().Add(-time.Hour),
	}
	env.videos.videos[video.ID] = video
	return video
}

func TestWatchIncrementsViews(t *testing.T) {
	env := newTestEnv(t)
	seedVideo(env)

	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+videoID, nil)
		req.Header.Set("X-User-ID", viewerID)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
		}

		var resp struct {
			Data models.Video `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Data.Views != int64(i) {
			t.Fatalf("expected %d views after fetch %d, got %d", i, i, resp.Data.Views)
		}
	}
}

func TestWatchRecordsViewerHistory(t *testing.T) {
	env := newTestEnv(t)
	seedVideo(env)
	env.users.users[viewerID] = models.User{ID: viewerID, Username: "ben"}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+videoID, nil)
	req.Header.Set("X-User-ID", viewerID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(env.users.watches) != 1 || env.users.watches[0].VideoID != videoID {
		t.Fatalf("expected one watch record for the video, got %+v", env.users.watches)
	}
}

func TestUpdateVideoRejectsNonOwner(t *testing.T) {
	env := newTestEnv(t)
	original := seedVideo(env)

	body, _ := json.Marshal(map[string]string{"title": "Hijacked"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+videoID, bytes.NewReader(body))
	req.Header.Set("X-User-ID", viewerID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}
	if env.videos.videos[videoID].Title != original.Title {
		t.Fatal("video must not change when the caller is not the owner")
	}
}

func TestUpdateVideoByOwner(t *testing.T) {
	env := newTestEnv(t)
	seedVideo(env)

	published := false
	body, _ := json.Marshal(updateVideoRequest{Published: &published})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+videoID, bytes.NewReader(body))
	req.Header.Set("X-User-ID", ownerID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if env.videos.videos[videoID].Published {
		t.Fatal("expected video to be unpublished")
	}
}

func TestDeleteVideoRemovesRemoteAssets(t *testing.T) {
	env := newTestEnv(t)
	video := seedVideo(env)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+videoID, nil)
	req.Header.Set("X-User-ID", ownerID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if _, ok := env.videos.videos[videoID]; ok {
		t.Fatal("expected video row to be deleted")
	}

	deleted := map[string]bool{}
	for _, url := range env.media.deleted {
		deleted[url] = true
	}
	if !deleted[video.VideoURL] || !deleted[video.ThumbnailURL] {
		t.Fatalf("expected both remote assets to be removed, got %v", env.media.deleted)
	}
}

func TestListVideosRequiresOwnerFilter(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/", nil)
	req.Header.Set("X-User-ID", viewerID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestListVideosPaginates(t *testing.T) {
	env := newTestEnv(t)
	base := time.Now()
	ids := []string{
		"0c2a2e3e-2222-4a8b-9c27-00000000000a",
		"0c2a2e3e-2222-4a8b-9c27-00000000000b",
		"0c2a2e3e-2222-4a8b-9c27-00000000000c",
	}
	for i, id := range ids {
		env.videos.videos[id] = models.Video{ID: id, OwnerID: ownerID, Title: "v", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/?userId="+ownerID+"&page=1&limit=2", nil)
	req.Header.Set("X-User-ID", viewerID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Data videoListResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data.Videos) != 2 || resp.Data.Total != 3 || resp.Data.TotalPages != 2 {
		t.Fatalf("unexpected page shape: %+v", resp.Data)
	}
	// newest first
	if resp.Data.Videos[0].ID != ids[2] {
		t.Fatalf("expected newest video first, got %s", resp.Data.Videos[0].ID)
	}
}
