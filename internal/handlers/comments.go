package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// CommentHandler serves the comment threads attached to videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

type commentListResponse struct {
	Comments   []models.Comment `json:"comments"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Total      int64            `json:"total"`
	TotalPages int64            `json:"totalPages"`
}

// Create handles POST /api/v1/comments/video/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content cannot be blank")
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   userID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		logging.FromContext(ctx).Error("comment create failed", "videoId", videoID, "error", err)
		respondError(ctx, w, storeStatus(err), "failed to add comment")
		return
	}

	respond(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// ListByVideo handles GET /api/v1/comments/video/{videoId}, newest first.
func (h CommentHandler) ListByVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}

	page, limit := pagination(r)
	comments, total, err := h.Comments.ListByVideo(ctx, videoID, page, limit)
	if err != nil {
		logging.FromContext(ctx).Error("comment list failed", "videoId", videoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list comments")
		return
	}

	respond(ctx, w, http.StatusOK, commentListResponse{
		Comments:   comments,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	}, "comments fetched successfully")
}

// Mine handles GET /api/v1/comments/mine: every comment the caller wrote.
func (h CommentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}

	comments, err := h.Comments.ListByOwner(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("own comment list failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list comments")
		return
	}

	respond(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// Update handles PATCH /api/v1/comments/{commentId}. Only the author may edit.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	commentID, ok := pathID(ctx, w, r, "commentId")
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content cannot be blank")
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "comment not found")
		return
	}
	if comment.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the author can modify this comment")
		return
	}

	comment.Content = req.Content
	comment.UpdatedAt = h.now()

	if err := h.Comments.UpdateContent(ctx, commentID, comment.Content, comment.UpdatedAt); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to update comment")
		return
	}

	respond(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	commentID, ok := pathID(ctx, w, r, "commentId")
	if !ok {
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "comment not found")
		return
	}
	if comment.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the author can delete this comment")
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to delete comment")
		return
	}

	respond(ctx, w, http.StatusOK, nil, "comment deleted successfully")
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
