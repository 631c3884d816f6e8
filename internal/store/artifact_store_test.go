package store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	lastInput *s3.PutObjectInput
	err       error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3ArtifactStorePutTimeline(t *testing.T) {
	fake := &fakeS3{}
	store := &S3ArtifactStore{client: fake, bucket: "aideas-artifacts"}

	ref, err := store.PutTimeline(context.Background(), "content-123", []byte(`{"events":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "s3://aideas-artifacts/timelines/content-123.json", ref)

	require.NotNil(t, fake.lastInput)
	assert.Equal(t, "aideas-artifacts", aws.StringValue(fake.lastInput.Bucket))
	assert.Equal(t, "timelines/content-123.json", aws.StringValue(fake.lastInput.Key))
	body, err := io.ReadAll(fake.lastInput.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"events":[]}`, string(body))
}

func TestS3ArtifactStorePropagatesUploadError(t *testing.T) {
	fake := &fakeS3{err: errors.New("access denied")}
	store := &S3ArtifactStore{client: fake, bucket: "aideas-artifacts"}

	_, err := store.PutTimeline(context.Background(), "content-123", []byte("{}"))
	require.Error(t, err)
}

func TestInlineArtifactStore(t *testing.T) {
	ref, err := InlineArtifactStore{}.PutTimeline(context.Background(), "content-123", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "inline:content-123", ref)
}
