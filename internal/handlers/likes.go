package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// LikeHandler implements the like toggles for videos and comments.
type LikeHandler struct {
	Likes    LikeStore
	Videos   VideoStore
	Comments CommentStore
	NowFunc  func() time.Time
}

type toggleResponse struct {
	Liked bool `json:"liked"`
}

// ToggleVideo handles POST /api/v1/likes/toggle/video/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}

	existing, err := h.Likes.FindByVideo(ctx, userID, videoID)
	switch {
	case err == nil:
		if err := h.Likes.Delete(ctx, existing.ID); err != nil {
			respondError(ctx, w, storeStatus(err), "failed to remove like")
			return
		}
		respond(ctx, w, http.StatusOK, toggleResponse{Liked: false}, "like removed")
	case errors.Is(err, repositories.ErrNotFound):
		like := models.Like{
			ID:        uuid.NewString(),
			UserID:    userID,
			VideoID:   videoID,
			CreatedAt: h.now(),
		}
		if err := h.Likes.Create(ctx, like); err != nil {
			// a concurrent toggle created it first; report the liked state
			if errors.Is(err, repositories.ErrConflict) {
				respond(ctx, w, http.StatusOK, toggleResponse{Liked: true}, "like added")
				return
			}
			respondError(ctx, w, storeStatus(err), "failed to add like")
			return
		}
		respond(ctx, w, http.StatusOK, toggleResponse{Liked: true}, "like added")
	default:
		logging.FromContext(ctx).Error("like lookup failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to toggle like")
	}
}

// ToggleComment handles POST /api/v1/likes/toggle/comment/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	commentID, ok := pathID(ctx, w, r, "commentId")
	if !ok {
		return
	}

	if _, err := h.Comments.FindByID(ctx, commentID); err != nil {
		respondError(ctx, w, storeStatus(err), "comment not found")
		return
	}

	existing, err := h.Likes.FindByComment(ctx, userID, commentID)
	switch {
	case err == nil:
		if err := h.Likes.Delete(ctx, existing.ID); err != nil {
			respondError(ctx, w, storeStatus(err), "failed to remove like")
			return
		}
		respond(ctx, w, http.StatusOK, toggleResponse{Liked: false}, "like removed")
	case errors.Is(err, repositories.ErrNotFound):
		like := models.Like{
			ID:        uuid.NewString(),
			UserID:    userID,
			CommentID: commentID,
			CreatedAt: h.now(),
		}
		if err := h.Likes.Create(ctx, like); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				respond(ctx, w, http.StatusOK, toggleResponse{Liked: true}, "like added")
				return
			}
			respondError(ctx, w, storeStatus(err), "failed to add like")
			return
		}
		respond(ctx, w, http.StatusOK, toggleResponse{Liked: true}, "like added")
	default:
		logging.FromContext(ctx).Error("like lookup failed", "commentId", commentID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to toggle like")
	}
}

func (h LikeHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
