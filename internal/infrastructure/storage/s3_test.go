package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothfair/exhibitor-portal/internal/core/domain"
)

type fakeS3 struct {
	put     *s3.PutObjectInput
	body    string
	putErr  error
	expires time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, _ := io.ReadAll(in.Body)
	f.put = in
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://s3.test/" + *in.Bucket + "/" + *in.Key}, nil
}

func newTestStore(f *fakeS3) *FlyerStore {
	return &FlyerStore{bucket: "flyers", client: f, presign: f, newKey: flyerKey}
}

func TestFlyerStore_Put(t *testing.T) {
	f := &fakeS3{}
	store := newTestStore(f)

	key, err := store.Put(context.Background(), "Booth.JPG", "image/jpeg", 4, strings.NewReader("jpeg"))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^flyers/[0-9a-f-]{36}/[0-9a-f-]{36}\.jpg$`), key)
	assert.Equal(t, "flyers", *f.put.Bucket)
	assert.Equal(t, key, *f.put.Key)
	assert.Equal(t, "image/jpeg", *f.put.ContentType)
	assert.Equal(t, "jpeg", f.body)
}

func TestFlyerStore_Put_RejectsExtension(t *testing.T) {
	f := &fakeS3{}
	store := newTestStore(f)

	_, err := store.Put(context.Background(), "flyer.exe", "", 0, strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Nil(t, f.put)
}

func TestFlyerStore_Put_BackendError(t *testing.T) {
	store := newTestStore(&fakeS3{putErr: errors.New("bucket missing")})

	_, err := store.Put(context.Background(), "a.png", "image/png", 1, strings.NewReader("p"))
	assert.ErrorContains(t, err, "bucket missing")
}

func TestFlyerStore_URL(t *testing.T) {
	f := &fakeS3{}
	store := newTestStore(f)

	url, err := store.URL(context.Background(), "flyers/a/b.png", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/flyers/flyers/a/b.png", url)
	assert.Equal(t, time.Hour, f.expires)
}
