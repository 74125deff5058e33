package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipstream/backend/internal/models"
)

func seedChannelAndViewer(env *testEnv) {
	env.users.users[ownerID] = models.User{ID: ownerID, Username: "ava"}
	env.users.users[viewerID] = models.User{ID: viewerID, Username: "ben"}
}

func toggleSubscription(t *testing.T, env *testEnv, userID, channelID string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/channel/"+channelID, nil)
	req.Header.Set("X-User-ID", userID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec.Code
}

func TestSubscriptionToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	seedChannelAndViewer(env)

	if code := toggleSubscription(t, env, viewerID, ownerID); code != http.StatusOK {
		t.Fatalf("subscribe: expected status %d got %d", http.StatusOK, code)
	}
	if len(env.subscriptions.subs) != 1 {
		t.Fatalf("expected one subscription, got %d", len(env.subscriptions.subs))
	}

	if code := toggleSubscription(t, env, viewerID, ownerID); code != http.StatusOK {
		t.Fatalf("unsubscribe: expected status %d got %d", http.StatusOK, code)
	}
	if len(env.subscriptions.subs) != 0 {
		t.Fatalf("expected subscription to be removed, got %d", len(env.subscriptions.subs))
	}
}

func TestSubscribeToOwnChannelRejected(t *testing.T) {
	env := newTestEnv(t)
	seedChannelAndViewer(env)

	if code := toggleSubscription(t, env, ownerID, ownerID); code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, code)
	}
}

func TestSubscribeUnknownChannel(t *testing.T) {
	env := newTestEnv(t)
	env.users.users[viewerID] = models.User{ID: viewerID, Username: "ben"}

	if code := toggleSubscription(t, env, viewerID, ownerID); code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, code)
	}
}

func TestListSubscribers(t *testing.T) {
	env := newTestEnv(t)
	seedChannelAndViewer(env)
	env.subscriptions.subs["sub-1"] = models.Subscription{ID: "sub-1", SubscriberID: viewerID, ChannelID: ownerID}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/channel/"+ownerID+"/subscribers", nil)
	req.Header.Set("X-User-ID", viewerID)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Data []models.ChannelSummary `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Username != "ben" {
		t.Fatalf("expected ben as the only subscriber, got %+v", resp.Data)
	}
}
