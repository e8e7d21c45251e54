package awsapi

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
)

// Key is one KMS key.
type Key struct {
	KeyID  string `json:"KeyId"`
	KeyArn string `json:"KeyArn"`
}

type listKeysOutput struct {
	Keys []Key `json:"Keys"`
}

// ListKeys calls KMS ListKeys and returns at most limit keys.
func (c *Client) ListKeys(ctx context.Context, limit int) ([]Key, error) {
	payload, err := json.Marshal(map[string]int{"Limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to encode ListKeys input: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/x-amz-json-1.1")
	header.Set("X-Amz-Target", "TrentService.ListKeys")

	data, err := c.Do(ctx, http.MethodPost, "/", header, payload)
	if err != nil {
		return nil, fmt.Errorf("ListKeys: %w", err)
	}

	var out listKeysOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("ListKeys: failed to decode response: %w", err)
	}
	return out.Keys, nil
}

// Bucket is one S3 bucket.
type Bucket struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

type listBucketsOutput struct {
	Buckets []Bucket `xml:"Buckets>Bucket"`
}

// ListBuckets calls S3 ListBuckets.
func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	data, err := c.Do(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("ListBuckets: %w", err)
	}

	var out listBucketsOutput
	if err := xml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("ListBuckets: failed to decode response: %w", err)
	}
	return out.Buckets, nil
}
