package awsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connorhough/sigclock/internal/sigv4"
)

type frozenTime struct {
	sigv4.SystemTime
	now time.Time
}

func (f frozenTime) Today() (time.Time, error)  { return sigv4.Midnight(f.now), nil }
func (f frozenTime) Now() (time.Time, error)    { return f.now, nil }
func (f frozenTime) UTCNow() (time.Time, error) { return f.now.UTC(), nil }

func useTime(t *testing.T, ts sigv4.TimeSource) {
	t.Helper()
	original := sigv4.Time
	sigv4.Time = ts
	t.Cleanup(func() { sigv4.Time = original })
}

var testCreds = sigv4.Credentials{AccessKeyID: "AKIDTEST", SecretAccessKey: "secret"}

func TestDefaultEndpoint(t *testing.T) {
	assert.Equal(t, "https://s3.amazonaws.com", DefaultEndpoint("s3", "us-east-1"))
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com", DefaultEndpoint("s3", "eu-west-1"))
	assert.Equal(t, "https://kms.us-west-2.amazonaws.com", DefaultEndpoint("kms", "us-west-2"))
}

func TestListKeys(t *testing.T) {
	useTime(t, frozenTime{now: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "TrentService.ListKeys", r.Header.Get("X-Amz-Target"))
		assert.Equal(t, "20240201T093000Z", r.Header.Get("X-Amz-Date"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"),
			"AWS4-HMAC-SHA256 Credential=AKIDTEST/20240201/eu-west-1/kms/aws4_request"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"Limit":3}`, string(body))

		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Keys": []map[string]string{
				{"KeyId": "1", "KeyArn": "arn:aws:kms:eu-west-1:111122223333:key/1"},
				{"KeyId": "2", "KeyArn": "arn:aws:kms:eu-west-1:111122223333:key/2"},
			},
		})
	}))
	defer srv.Close()

	keys, err := NewClient(testCreds, "eu-west-1", "kms", srv.URL).ListKeys(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "arn:aws:kms:eu-west-1:111122223333:key/2", keys[1].KeyArn)
}

func TestListBuckets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Amz-Content-Sha256"))
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Owner><ID>abc</ID></Owner>
  <Buckets>
    <Bucket><Name>logs</Name><CreationDate>2020-01-01T00:00:00.000Z</CreationDate></Bucket>
    <Bucket><Name>media</Name><CreationDate>2021-01-01T00:00:00.000Z</CreationDate></Bucket>
  </Buckets>
</ListAllMyBucketsResult>`)
	}))
	defer srv.Close()

	buckets, err := NewClient(testCreds, "us-east-1", "s3", srv.URL+"/").ListBuckets(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "logs", buckets[0].Name)
	assert.Equal(t, "media", buckets[1].Name)
}

func TestDo_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "Signature expired: 20240101T000000Z is now earlier than 20240101T001000Z\n")
	}))
	defer srv.Close()

	_, err := NewClient(testCreds, "us-east-1", "s3", srv.URL).ListBuckets(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Signature expired")
}

func TestDo_SigningError(t *testing.T) {
	boom := errors.New("bad offset")
	useTime(t, failingTime{err: boom})

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := NewClient(testCreds, "us-east-1", "s3", srv.URL).ListBuckets(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

type failingTime struct {
	sigv4.SystemTime
	err error
}

func (f failingTime) UTCNow() (time.Time, error) { return time.Time{}, f.err }
