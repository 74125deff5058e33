package handlers

import (
	"context"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// UserStore captures the persistence operations required by the user and
// channel handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdateProfile(ctx context.Context, user models.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	RecordWatch(ctx context.Context, userID, videoID string, watchedAt time.Time) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
}

// TokenService mints, rotates, and revokes the bearer token pairs.
type TokenService interface {
	IssuePair(ctx context.Context, userID string) (models.TokenPair, error)
	RotateRefresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
}

// MediaRelay forwards staged upload files to durable storage and removes
// remote assets that are replaced or deleted.
type MediaRelay interface {
	UploadFile(ctx context.Context, localPath, keyPrefix string) (string, error)
	Delete(ctx context.Context, assetURL string) error
}

// VideoStore captures persistence for video metadata.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, page, limit int) ([]models.Video, int64, error)
	Update(ctx context.Context, video models.Video) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListByVideo(ctx context.Context, videoID string, page, limit int) ([]models.Comment, int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// LikeStore captures persistence for the like toggles.
type LikeStore interface {
	FindByVideo(ctx context.Context, userID, videoID string) (models.Like, error)
	FindByComment(ctx context.Context, userID, commentID string) (models.Like, error)
	Create(ctx context.Context, like models.Like) error
	Delete(ctx context.Context, id string) error
}

// SubscriptionStore captures persistence for channel subscriptions.
type SubscriptionStore interface {
	Find(ctx context.Context, subscriberID, channelID string) (models.Subscription, error)
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, id string) error
	ListSubscribers(ctx context.Context, channelID string) ([]models.ChannelSummary, error)
	ListChannels(ctx context.Context, subscriberID string) ([]models.ChannelSummary, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}
