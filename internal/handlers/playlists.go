package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// PlaylistHandler implements user-curated playlists.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	NowFunc   func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logging.FromContext(ctx).Error("playlist create failed", "userId", userID, "error", err)
		respondError(ctx, w, storeStatus(err), "failed to create playlist")
		return
	}

	respond(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// ListByUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := pathID(ctx, w, r, "userId")
	if !ok {
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("playlist list failed", "ownerId", ownerID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list playlists")
		return
	}

	respond(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	playlistID, ok := pathID(ctx, w, r, "playlistId")
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		respondError(ctx, w, http.StatusBadRequest, "name and description are required")
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "playlist not found")
		return
	}
	if playlist.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this playlist")
		return
	}

	playlist.Name = req.Name
	playlist.Description = req.Description
	playlist.UpdatedAt = h.now()

	if err := h.Playlists.Update(ctx, playlistID, playlist.Name, playlist.Description, playlist.UpdatedAt); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to update playlist")
		return
	}

	respond(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	playlistID, ok := pathID(ctx, w, r, "playlistId")
	if !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "playlist not found")
		return
	}
	if playlist.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can delete this playlist")
		return
	}

	if err := h.Playlists.Delete(ctx, playlistID); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to delete playlist")
		return
	}

	respond(ctx, w, http.StatusOK, nil, "playlist deleted successfully")
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}.
// Adding a video already in the playlist leaves it unchanged.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	playlistID, ok := pathID(ctx, w, r, "playlistId")
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "playlist not found")
		return
	}
	if playlist.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this playlist")
		return
	}

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondError(ctx, w, storeStatus(err), "video not found")
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to add video to playlist")
		return
	}

	if !slices.Contains(playlist.VideoIDs, videoID) {
		playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	}
	respond(ctx, w, http.StatusOK, playlist, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	playlistID, ok := pathID(ctx, w, r, "playlistId")
	if !ok {
		return
	}
	videoID, ok := pathID(ctx, w, r, "videoId")
	if !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "playlist not found")
		return
	}
	if playlist.OwnerID != userID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can modify this playlist")
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video is not in this playlist")
			return
		}
		respondError(ctx, w, storeStatus(err), "failed to remove video from playlist")
		return
	}

	playlist.VideoIDs = slices.DeleteFunc(playlist.VideoIDs, func(id string) bool { return id == videoID })
	respond(ctx, w, http.StatusOK, playlist, "video removed from playlist")
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
