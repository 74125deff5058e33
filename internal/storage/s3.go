package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/logging"
)

// S3Relay forwards locally staged upload files to an S3-compatible service and
// deletes remote assets when they are replaced or removed.
type S3Relay struct {
	uploader *manager.Uploader
	client   *s3.Client
	bucket   string
	baseURL  string
}

// NewS3Relay configures an uploader and client targeting the provided object store.
func NewS3Relay(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Relay, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 relay: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Relay{
		uploader: uploader,
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// UploadFile relays a locally staged file to the bucket and returns its
// durable public URL. The local temp copy is removed whether or not the
// upload succeeds; on failure the transport detail is logged, not returned,
// so callers report the asset as absent.
func (s *S3Relay) UploadFile(ctx context.Context, localPath, keyPrefix string) (string, error) {
	if strings.TrimSpace(localPath) == "" {
		return "", fmt.Errorf("s3 relay: empty local path")
	}
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn("remove staged upload", "path", localPath, "error", err)
		}
	}()

	f, err := os.Open(localPath)
	if err != nil {
		logging.FromContext(ctx).Error("open staged upload", "path", localPath, "error", err)
		return "", fmt.Errorf("s3 relay: asset unavailable")
	}
	defer f.Close()

	key := strings.TrimLeft(fmt.Sprintf("%s/%s%s", keyPrefix, uuid.NewString(), filepath.Ext(localPath)), "/")

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		logging.FromContext(ctx).Error("relay upload failed", "key", key, "error", err)
		return "", fmt.Errorf("s3 relay: asset unavailable")
	}

	if s.baseURL == "" {
		return key, nil
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

// Delete removes the remote asset referenced by a durable URL. A URL with no
// extractable object key is a no-op success, matching the behavior for assets
// that were never uploaded.
func (s *S3Relay) Delete(ctx context.Context, assetURL string) error {
	key := ObjectKey(assetURL)
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 relay delete %s: %w", key, err)
	}

	return nil
}

// ObjectKey extracts the bucket object key from a durable asset URL. Plain
// keys (no scheme) pass through untouched.
func ObjectKey(assetURL string) string {
	trimmed := strings.TrimSpace(assetURL)
	if trimmed == "" {
		return ""
	}

	if !strings.Contains(trimmed, "://") {
		return strings.TrimLeft(trimmed, "/")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}

	return strings.TrimLeft(u.Path, "/")
}
