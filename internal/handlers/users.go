package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/cache"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/repositories"
)

// UserHandler serves the authenticated profile surface: account details,
// media updates, channel pages and watch history.
type UserHandler struct {
	Users    UserStore
	Media    MediaRelay
	TempDir  string
	Profiles cache.Cache
	CacheTTL time.Duration
	NowFunc  func() time.Time
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	respond(ctx, w, http.StatusOK, user, "current user fetched")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// UpdateAccount handles PATCH /api/v1/users/update-account. Both fields are
// required; the email must still be unique across accounts.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, http.StatusBadRequest, "fullName and email are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "unable to load account")
		return
	}

	user.FullName = req.FullName
	user.Email = req.Email
	user.UpdatedAt = h.now()

	if err := h.Users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already in use")
			return
		}
		respondError(ctx, w, storeStatus(err), "failed to update account")
		return
	}

	respond(ctx, w, http.StatusOK, user.Sanitized(), "account details updated")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage")
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string) {
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

	localPath, err := stageUpload(r, field, h.TempDir)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}

	prefix := "avatars"
	if field == "coverImage" {
		prefix = "covers"
	}

	assetURL, err := h.Media.UploadFile(ctx, localPath, prefix)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, field+" file is required")
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		respondError(ctx, w, storeStatus(err), "unable to load account")
		return
	}

	previous := user.AvatarURL
	if field == "coverImage" {
		previous = user.CoverImageURL
		user.CoverImageURL = assetURL
	} else {
		user.AvatarURL = assetURL
	}
	user.UpdatedAt = h.now()

	if err := h.Users.UpdateProfile(ctx, user); err != nil {
		respondError(ctx, w, storeStatus(err), "failed to update "+field)
		return
	}

	if previous != "" {
		if err := h.Media.Delete(ctx, previous); err != nil {
			logger.Warn("failed to remove replaced image", "field", field, "url", previous, "error", err)
		}
	}

	respond(ctx, w, http.StatusOK, user.Sanitized(), field+" updated successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}. Results are served
// from the profile cache when one is configured.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	viewerID, ok := identity(ctx, w)
	if !ok {
		return
	}

	username := strings.TrimSpace(strings.ToLower(chi.URLParam(r, "username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	cacheKey := "channel:" + username + ":" + viewerID
	if h.Profiles != nil {
		if raw, hit, err := h.Profiles.Get(ctx, cacheKey); err != nil {
			logger.Warn("channel profile cache read failed", "username", username, "error", err)
		} else if hit {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(raw)
			return
		}
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("channel profile lookup failed", "username", username, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load channel")
		return
	}

	body, err := json.Marshal(envelope{Status: http.StatusOK, Data: profile, Message: "channel profile fetched"})
	if err != nil {
		logger.Error("channel profile encode failed", "username", username, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load channel")
		return
	}

	if h.Profiles != nil {
		if err := h.Profiles.Set(ctx, cacheKey, body, h.CacheTTL); err != nil {
			logger.Warn("channel profile cache write failed", "username", username, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}

	history, err := h.Users.WatchHistory(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("watch history lookup failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load watch history")
		return
	}

	respond(ctx, w, http.StatusOK, history, "watch history fetched")
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
