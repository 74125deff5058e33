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

// SubscriptionHandler implements channel subscriptions.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Users         UserStore
	NowFunc       func() time.Time
}

type subscribeResponse struct {
	Subscribed bool `json:"subscribed"`
}

// Toggle handles POST /api/v1/subscriptions/channel/{channelId}. A second
// call for the same channel removes the subscription again.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := identity(ctx, w)
	if !ok {
		return
	}
	channelID, ok := pathID(ctx, w, r, "channelId")
	if !ok {
		return
	}

	if channelID == userID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondError(ctx, w, storeStatus(err), "channel not found")
		return
	}

	existing, err := h.Subscriptions.Find(ctx, userID, channelID)
	switch {
	case err == nil:
		if err := h.Subscriptions.Delete(ctx, existing.ID); err != nil {
			respondError(ctx, w, storeStatus(err), "failed to unsubscribe")
			return
		}
		respond(ctx, w, http.StatusOK, subscribeResponse{Subscribed: false}, "unsubscribed successfully")
	case errors.Is(err, repositories.ErrNotFound):
		sub := models.Subscription{
			ID:           uuid.NewString(),
			SubscriberID: userID,
			ChannelID:    channelID,
			CreatedAt:    h.now(),
		}
		if err := h.Subscriptions.Create(ctx, sub); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				respond(ctx, w, http.StatusOK, subscribeResponse{Subscribed: true}, "subscribed successfully")
				return
			}
			respondError(ctx, w, storeStatus(err), "failed to subscribe")
			return
		}
		respond(ctx, w, http.StatusOK, subscribeResponse{Subscribed: true}, "subscribed successfully")
	default:
		logging.FromContext(ctx).Error("subscription lookup failed", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to toggle subscription")
	}
}

// Subscribers handles GET /api/v1/subscriptions/channel/{channelId}/subscribers.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, ok := pathID(ctx, w, r, "channelId")
	if !ok {
		return
	}

	if _, err := h.Users.FindByID(ctx, channelID); err != nil {
		respondError(ctx, w, storeStatus(err), "channel not found")
		return
	}

	subscribers, err := h.Subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		logging.FromContext(ctx).Error("subscriber list failed", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list subscribers")
		return
	}

	respond(ctx, w, http.StatusOK, subscribers, "subscribers fetched successfully")
}

// Channels handles GET /api/v1/subscriptions/user/{subscriberId}/channels.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID, ok := pathID(ctx, w, r, "subscriberId")
	if !ok {
		return
	}

	if _, err := h.Users.FindByID(ctx, subscriberID); err != nil {
		respondError(ctx, w, storeStatus(err), "user not found")
		return
	}

	channels, err := h.Subscriptions.ListChannels(ctx, subscriberID)
	if err != nil {
		logging.FromContext(ctx).Error("channel list failed", "subscriberId", subscriberID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to list channels")
		return
	}

	respond(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}

func (h SubscriptionHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
