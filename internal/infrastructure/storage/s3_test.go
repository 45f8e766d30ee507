package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	put     *s3.PutObjectInput
	body    string
	deleted *s3.DeleteObjectInput
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = in
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	expires time.Duration
	key     string
}

func (f *fakePresigner) PresignPutObject(_ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	f.key = aws.ToString(in.Key)
	return &v4.PresignedHTTPRequest{URL: "https://signed/put/" + f.key, Method: "PUT"}, nil
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://signed/get/" + aws.ToString(in.Key), Method: "GET"}, nil
}

func TestS3Storage_Save(t *testing.T) {
	objects := &fakeObjects{}
	s := newS3Storage(objects, &fakePresigner{}, "bucket", "https://cdn.example.com/")

	require.NoError(t, s.Save(context.Background(), "videos/1/a.mp4", strings.NewReader("data"), "video/mp4"))
	assert.Equal(t, "bucket", aws.ToString(objects.put.Bucket))
	assert.Equal(t, "videos/1/a.mp4", aws.ToString(objects.put.Key))
	assert.Equal(t, "video/mp4", aws.ToString(objects.put.ContentType))
	assert.Equal(t, "data", objects.body)

	assert.Equal(t, "https://cdn.example.com/videos/1/a.mp4", s.GetURL("videos/1/a.mp4"))
}

func TestS3Storage_PresignUpload(t *testing.T) {
	presigner := &fakePresigner{}
	s := newS3Storage(&fakeObjects{}, presigner, "bucket", "https://cdn")

	url, err := s.PresignUpload(context.Background(), "chat/1/x.png", "image/png", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/put/chat/1/x.png", url)
	assert.Equal(t, 5*time.Minute, presigner.expires)
}

func TestS3Storage_Delete(t *testing.T) {
	objects := &fakeObjects{}
	s := newS3Storage(objects, &fakePresigner{}, "bucket", "https://cdn")

	require.NoError(t, s.Delete(context.Background(), "videos/1/a.mp4"))
	assert.Equal(t, "videos/1/a.mp4", aws.ToString(objects.deleted.Key))
}
