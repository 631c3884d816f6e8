package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// ArtifactStore uploads rendered timeline artifacts and returns a stable
// reference for playback clients.
type ArtifactStore interface {
	PutTimeline(ctx context.Context, contentID string, timelineJSON []byte) (string, error)
}

// S3ArtifactStore writes timeline JSON to an S3 bucket and returns an
// s3:// reference.
type S3ArtifactStore struct {
	client s3iface.S3API
	bucket string
}

// NewS3ArtifactStore builds the store from a fresh AWS session.
func NewS3ArtifactStore(region, bucket string) (*S3ArtifactStore, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &S3ArtifactStore{client: s3.New(sess), bucket: bucket}, nil
}

func (s *S3ArtifactStore) PutTimeline(ctx context.Context, contentID string, timelineJSON []byte) (string, error) {
	key := fmt.Sprintf("timelines/%s.json", contentID)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(timelineJSON),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload timeline artifact %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// InlineArtifactStore is used when no bucket is configured; the timeline
// stays embedded in the content record and the ref just names it.
type InlineArtifactStore struct{}

func (InlineArtifactStore) PutTimeline(_ context.Context, contentID string, _ []byte) (string, error) {
	return "inline:" + contentID, nil
}
