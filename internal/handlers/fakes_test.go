package handlers

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type watchRecord struct {
	UserID    string
	VideoID   string
	WatchedAt time.Time
}

type inMemoryUserStore struct {
	users   map[string]models.User
	watches []watchRecord
	profile models.ChannelProfile
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UpdateProfile(_ context.Context, user models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	for _, existing := range s.users {
		if existing.ID != user.ID && existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) ChannelProfile(_ context.Context, username, _ string) (models.ChannelProfile, error) {
	for _, user := range s.users {
		if user.Username == username {
			profile := s.profile
			profile.ID = user.ID
			profile.Username = user.Username
			return profile, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) RecordWatch(_ context.Context, userID, videoID string, watchedAt time.Time) error {
	s.watches = append(s.watches, watchRecord{UserID: userID, VideoID: videoID, WatchedAt: watchedAt})
	return nil
}

func (s *inMemoryUserStore) WatchHistory(_ context.Context, userID string) ([]models.WatchedVideo, error) {
	var out []models.WatchedVideo
	for _, w := range s.watches {
		if w.UserID == userID {
			out = append(out, models.WatchedVideo{Video: models.Video{ID: w.VideoID}, WatchedAt: w.WatchedAt})
		}
	}
	return out, nil
}

type inMemoryVideoStore struct {
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	if _, exists := s.videos[video.ID]; exists {
		return repositories.ErrConflict
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) ListByOwner(_ context.Context, ownerID string, page, limit int) ([]models.Video, int64, error) {
	var matched []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			matched = append(matched, video)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) (int64, error) {
	video, ok := s.videos[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return video.Views, nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

type inMemoryCommentStore struct {
	comments map[string]models.Comment
}

func newInMemoryCommentStore() *inMemoryCommentStore {
	return &inMemoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *inMemoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *inMemoryCommentStore) ListByVideo(_ context.Context, videoID string, page, limit int) ([]models.Comment, int64, error) {
	var matched []models.Comment
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			matched = append(matched, comment)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *inMemoryCommentStore) ListByOwner(_ context.Context, ownerID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, comment := range s.comments {
		if comment.OwnerID == ownerID {
			out = append(out, comment)
		}
	}
	return out, nil
}

func (s *inMemoryCommentStore) UpdateContent(_ context.Context, id, content string, updatedAt time.Time) error {
	comment, ok := s.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.Content = content
	comment.UpdatedAt = updatedAt
	s.comments[id] = comment
	return nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

type inMemoryLikeStore struct {
	likes map[string]models.Like
}

func newInMemoryLikeStore() *inMemoryLikeStore {
	return &inMemoryLikeStore{likes: make(map[string]models.Like)}
}

func (s *inMemoryLikeStore) FindByVideo(_ context.Context, userID, videoID string) (models.Like, error) {
	for _, like := range s.likes {
		if like.UserID == userID && like.VideoID == videoID {
			return like, nil
		}
	}
	return models.Like{}, repositories.ErrNotFound
}

func (s *inMemoryLikeStore) FindByComment(_ context.Context, userID, commentID string) (models.Like, error) {
	for _, like := range s.likes {
		if like.UserID == userID && like.CommentID == commentID {
			return like, nil
		}
	}
	return models.Like{}, repositories.ErrNotFound
}

func (s *inMemoryLikeStore) Create(_ context.Context, like models.Like) error {
	for _, existing := range s.likes {
		if existing.UserID == like.UserID && existing.VideoID == like.VideoID && existing.CommentID == like.CommentID {
			return repositories.ErrConflict
		}
	}
	s.likes[like.ID] = like
	return nil
}

func (s *inMemoryLikeStore) Delete(_ context.Context, id string) error {
	if _, ok := s.likes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.likes, id)
	return nil
}

type inMemorySubscriptionStore struct {
	subs  map[string]models.Subscription
	users *inMemoryUserStore
}

func newInMemorySubscriptionStore(users *inMemoryUserStore) *inMemorySubscriptionStore {
	return &inMemorySubscriptionStore{subs: make(map[string]models.Subscription), users: users}
}

func (s *inMemorySubscriptionStore) Find(_ context.Context, subscriberID, channelID string) (models.Subscription, error) {
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID && sub.ChannelID == channelID {
			return sub, nil
		}
	}
	return models.Subscription{}, repositories.ErrNotFound
}

func (s *inMemorySubscriptionStore) Create(_ context.Context, sub models.Subscription) error {
	for _, existing := range s.subs {
		if existing.SubscriberID == sub.SubscriberID && existing.ChannelID == sub.ChannelID {
			return repositories.ErrConflict
		}
	}
	s.subs[sub.ID] = sub
	return nil
}

func (s *inMemorySubscriptionStore) Delete(_ context.Context, id string) error {
	if _, ok := s.subs[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.subs, id)
	return nil
}

func (s *inMemorySubscriptionStore) ListSubscribers(_ context.Context, channelID string) ([]models.ChannelSummary, error) {
	var out []models.ChannelSummary
	for _, sub := range s.subs {
		if sub.ChannelID == channelID {
			if user, ok := s.users.users[sub.SubscriberID]; ok {
				out = append(out, models.ChannelSummary{ID: user.ID, Username: user.Username})
			}
		}
	}
	return out, nil
}

func (s *inMemorySubscriptionStore) ListChannels(_ context.Context, subscriberID string) ([]models.ChannelSummary, error) {
	var out []models.ChannelSummary
	for _, sub := range s.subs {
		if sub.SubscriberID == subscriberID {
			if user, ok := s.users.users[sub.ChannelID]; ok {
				out = append(out, models.ChannelSummary{ID: user.ID, Username: user.Username})
			}
		}
	}
	return out, nil
}

type inMemoryPlaylistStore struct {
	playlists map[string]models.Playlist
}

func newInMemoryPlaylistStore() *inMemoryPlaylistStore {
	return &inMemoryPlaylistStore{playlists: make(map[string]models.Playlist)}
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *inMemoryPlaylistStore) ListByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	var out []models.Playlist
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			out = append(out, playlist)
		}
	}
	return out, nil
}

func (s *inMemoryPlaylistStore) Update(_ context.Context, id, name, description string, updatedAt time.Time) error {
	playlist, ok := s.playlists[id]
	if !ok {
		return repositories.ErrNotFound
	}
	playlist.Name = name
	playlist.Description = description
	playlist.UpdatedAt = updatedAt
	s.playlists[id] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id string) error {
	if _, ok := s.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *inMemoryPlaylistStore) AddVideo(_ context.Context, playlistID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, id := range playlist.VideoIDs {
		if id == videoID {
			return nil
		}
	}
	playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	s.playlists[playlistID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i, id := range playlist.VideoIDs {
		if id == videoID {
			playlist.VideoIDs = append(playlist.VideoIDs[:i], playlist.VideoIDs[i+1:]...)
			s.playlists[playlistID] = playlist
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeMediaRelay struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeMediaRelay) UploadFile(_ context.Context, localPath, keyPrefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	url := "https://media.test/" + keyPrefix + "/" + localPath
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeMediaRelay) Delete(_ context.Context, assetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, assetURL)
	return nil
}

type fakeTokenService struct {
	refreshOwners map[string]string
	revoked       []string
	issueErr      error
	minted        int
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{refreshOwners: make(map[string]string)}
}

func (f *fakeTokenService) IssuePair(_ context.Context, userID string) (models.TokenPair, error) {
	if f.issueErr != nil {
		return models.TokenPair{}, f.issueErr
	}
	f.minted++
	serial := strconv.Itoa(f.minted)
	pair := models.TokenPair{
		AccessToken:      "access-" + userID + "-" + serial,
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshToken:     "refresh-" + userID + "-" + serial,
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	}
	f.refreshOwners[pair.RefreshToken] = userID
	return pair, nil
}

func (f *fakeTokenService) RotateRefresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	userID, ok := f.refreshOwners[refreshToken]
	if !ok {
		return models.TokenPair{}, auth.ErrStaleRefreshToken
	}
	delete(f.refreshOwners, refreshToken)
	return f.IssuePair(ctx, userID)
}

func (f *fakeTokenService) Revoke(_ context.Context, userID string) error {
	f.revoked = append(f.revoked, userID)
	for token, owner := range f.refreshOwners {
		if owner == userID {
			delete(f.refreshOwners, token)
		}
	}
	return nil
}

// newParamRouter mounts a single handler so chi URL parameters resolve.
func newParamRouter(pattern, method string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)
	return r
}

type testEnv struct {
	users         *inMemoryUserStore
	videos        *inMemoryVideoStore
	comments      *inMemoryCommentStore
	likes         *inMemoryLikeStore
	subscriptions *inMemorySubscriptionStore
	playlists     *inMemoryPlaylistStore
	media         *fakeMediaRelay
	tokens        *fakeTokenService
	router        *chi.Mux
}

// newTestEnv wires the full route tree against in-memory stores. The session
// middleware resolves the caller from the X-User-ID request header and
// rejects requests without one, mirroring the real token check.
func newTestEnv(t interface{ TempDir() string }) *testEnv {
	env := &testEnv{
		users:     newInMemoryUserStore(),
		videos:    newInMemoryVideoStore(),
		comments:  newInMemoryCommentStore(),
		likes:     newInMemoryLikeStore(),
		playlists: newInMemoryPlaylistStore(),
		media:     &fakeMediaRelay{},
		tokens:    newFakeTokenService(),
	}
	env.subscriptions = newInMemorySubscriptionStore(env.users)

	headerIdentity := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			user, err := env.users.FindByID(r.Context(), userID)
			if err != nil {
				user = models.User{ID: userID}
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
		})
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Dependencies{
		Users:         env.users,
		Tokens:        env.tokens,
		Media:         env.media,
		Videos:        env.videos,
		Comments:      env.comments,
		Likes:         env.likes,
		Subscriptions: env.subscriptions,
		Playlists:     env.playlists,
		ProfileTTL:    time.Minute,
		TempDir:       t.TempDir(),
		Session:       headerIdentity,
	})
	env.router = router
	return env
}
