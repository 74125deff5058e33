package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// VideoHandler serves the video catalogue: uploads, playback metadata,
// owner edits and removal.
type VideoHandler struct {
	Videos  VideoStore
	Users   UserStore
	Media   MediaRelay
	TempDir string
	NowFunc func() time.Time
}

type videoListResponse struct {
	Videos     []models.Video `json:"videos"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int64          `json:"total"`
	TotalPages int64          `json:"totalPages"`
}

// List handles GET /api/v1/videos. The userId query parameter is required;
// results are paginated newest first.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if _, err := uuid.Parse(ownerID); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "a valid userId query parameter is required")
		return
	}

	page, limit := pagination(r)
	videos, total, err := h.Videos.ListByOwner(ctx, ownerID, page, limit)
	if err != nil {
		logging.FromContext(ctx).Error("video list failed", "ownerId", ownerID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list videos")
		return
	}

	respond(ctx, w, http.StatusOK, videoListResponse{
		Videos:     videos,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	}, "videos fetched successfully")
}

// Upload handles POST /api/v1/videos. The multipart body carries title,
// description, an optional duration and the videoFile and thumbnail files.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, http.StatusBadRequest, "title and description are required")
		return
	}

	duration := 0.0
	if raw := strings.TrimSpace(r.FormValue("duration")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			respondError(ctx, w, http.StatusBadRequest, "duration must be a non-negative number")
			return
		}
		duration = parsed
	}

	videoPath, err := stageUpload(r, "videoFile", h.TempDir)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}
	thumbPath, err := stageUpload(r, "thumbnail", h.TempDir)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}

	videoURL, err := h.Media.UploadFile(ctx, videoPath, "videos")
	if err != nil {
		logger.Error("video upload relay failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}
	thumbURL, err := h.Media.UploadFile(ctx, thumbPath, "thumbnails")
	if err != nil {
		logger.Error("thumbnail upload relay failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      userID,
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbURL,
		Duration:     duration,
		Published:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("video create failed", "userId", userID, "error", err)
		respondError(ctx, w, storeStatus(err), "failed to publish video")
		return
	}

	respond(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Watch handles GET /api/v1/videos/{videoId}. Every successful fetch bumps
// the view counter and records the watch against the viewer's history.
func (h VideoHandler) Watch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}

	views, err := h.Videos.IncrementViews(ctx, videoID)
	if err != nil {
		logger.Warn("view increment failed", "videoId", videoID, "error", err)
	} else {
		video.Views = views
	}

	if err := h.Users.RecordWatch(ctx, userID, videoID, h.now()); err != nil {
		logger.Warn("watch history record failed", "videoId", videoID, "userId", userID, "error", err)
	}

	respond(ctx, w, http.StatusOK, video, "video fetched successfully")
}

type updateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Published   *bool   `json:"isPublished"`
}

// Update handles PATCH /api/v1/videos/{videoId}. Only the owner may edit.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	var req updateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}
	if video.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this video")
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondError(ctx, w, http.StatusBadRequest, "title cannot be blank")
			return
		}
		video.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			respondError(ctx, w, http.StatusBadRequest, "description cannot be blank")
			return
		}
		video.Description = description
	}
	if req.Published != nil {
		video.Published = *req.Published
	}
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to update video")
		return
	}

	respond(ctx, w, http.StatusOK, video, "video updated successfully")
}

// UpdateThumbnail handles PATCH /api/v1/videos/{videoId}/thumbnail.
func (h VideoHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}
	if video.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this video")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	localPath, err := stageUpload(r, "thumbnail", h.TempDir)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "thumbnail is required")
		return
	}

	thumbURL, err := h.Media.UploadFile(ctx, localPath, "thumbnails")
	if err != nil {
		logger.Error("thumbnail upload relay failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	previous := video.ThumbnailURL
	video.ThumbnailURL = thumbURL
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to update thumbnail")
		return
	}

	if previous != "" {
		if err := h.Media.Delete(ctx, previous); err != nil {
			logger.Warn("failed to remove replaced thumbnail", "url", previous, "error", err)
		}
	}

	respond(ctx, w, http.StatusOK, video, "thumbnail updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}. The database row goes
// first; the remote assets are removed concurrently afterwards.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}
	if video.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can delete this video")
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to delete video")
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, asset := range []string{video.VideoURL, video.ThumbnailURL} {
		group.Go(func() error {
			return h.Media.Delete(groupCtx, asset)
		})
	}
	if err := group.Wait(); err != nil {
		logger.Error("remote asset cleanup failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "video deleted but asset cleanup failed")
		return
	}

	respond(ctx, w, http.StatusOK, nil, "video deleted successfully")
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
