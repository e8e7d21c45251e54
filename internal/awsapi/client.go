// Package awsapi issues signed calls against AWS-style endpoints.
package awsapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/connorhough/sigclock/internal/sigv4"
)

const maxErrorBody = 4 << 10

// Client sends SigV4-signed requests to one service endpoint.
type Client struct {
	HTTPClient *http.Client
	Signer     *sigv4.Signer
	Endpoint   string
}

// NewClient creates a Client for service in region. An empty endpoint selects
// the public AWS endpoint for the service.
func NewClient(creds sigv4.Credentials, region, service, endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint(service, region)
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Signer:     sigv4.NewSigner(creds, region, service),
		Endpoint:   strings.TrimRight(endpoint, "/"),
	}
}

// DefaultEndpoint returns the public endpoint of service in region.
func DefaultEndpoint(service, region string) string {
	if service == "s3" && region == "us-east-1" {
		return "https://s3.amazonaws.com"
	}
	return fmt.Sprintf("https://%s.%s.amazonaws.com", service, region)
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Do signs and sends a request and returns the response body.
func (c *Client) Do(ctx context.Context, method, path string, header http.Header, body []byte) ([]byte, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if reader != nil {
		req.Body = io.NopCloser(reader)
		req.ContentLength = int64(len(body))
		err = c.Signer.Sign(req, reader)
	} else {
		err = c.Signer.Sign(req, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	log.WithFields(log.Fields{
		"method":   method,
		"url":      req.URL.String(),
		"amz_date": req.Header.Get(sigv4.HeaderDate),
	}).Debug("Sending signed request")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	log.WithField("status", resp.StatusCode).Debug("Received response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
