// Package sigv4 signs HTTP requests for AWS-style APIs with Signature
// Version 4 and the legacy S3 HMAC-SHA1 scheme.
//
// Every timestamp the signers put on a request comes from the package-level
// Time source.
package sigv4

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
)

const (
	algorithm       = "AWS4-HMAC-SHA256"
	scopeTerminator = "aws4_request"

	HeaderDate          = "X-Amz-Date"
	HeaderSecurityToken = "X-Amz-Security-Token"
	HeaderContentSHA256 = "X-Amz-Content-Sha256"
	HeaderAuthorization = "Authorization"
)

// MaxPresignExpiry is the longest validity a SigV4 presigned URL may carry.
const MaxPresignExpiry = 7 * 24 * time.Hour

// Credentials identifies the caller to the remote service.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Signer signs requests for one service in one region.
type Signer struct {
	Credentials Credentials
	Region      string
	Service     string
}

// NewSigner creates a Signer
func NewSigner(creds Credentials, region, service string) *Signer {
	return &Signer{Credentials: creds, Region: region, Service: service}
}

func (s *Signer) v4() *v4.Signer {
	creds := credentials.NewStaticCredentials(s.Credentials.AccessKeyID, s.Credentials.SecretAccessKey, s.Credentials.SessionToken)
	return v4.NewSigner(creds, func(signer *v4.Signer) {
		// S3 object keys are signed as sent, other services escape the path again
		signer.DisableURIPathEscaping = s.Service == "s3"
	})
}

// Sign adds SigV4 headers to req. body, if not nil, is hashed, rewound and
// attached to req.
func (s *Signer) Sign(req *http.Request, body io.ReadSeeker) error {
	now, err := Time.UTCNow()
	if err != nil {
		return fmt.Errorf("failed to read signing time: %w", err)
	}

	// the SDK re-signs an already signed request at the wall clock
	req.Header.Del(HeaderAuthorization)
	if _, err := s.v4().Sign(req, body, s.Service, s.Region, now); err != nil {
		return fmt.Errorf("SigV4 signing failed: %w", err)
	}
	return nil
}

// Presign returns a URL for req that carries its signature in the query
// string and stays valid for expires. req itself is not modified.
func (s *Signer) Presign(req *http.Request, expires time.Duration) (string, error) {
	if expires < time.Second || expires > MaxPresignExpiry {
		return "", fmt.Errorf("presign expiry must be between 1s and %s, got %s", MaxPresignExpiry, expires)
	}
	now, err := Time.UTCNow()
	if err != nil {
		return "", fmt.Errorf("failed to read signing time: %w", err)
	}

	clone := req.Clone(req.Context())
	clone.Header.Del(HeaderAuthorization)
	query := clone.URL.Query()
	query.Del("X-Amz-Signature")
	clone.URL.RawQuery = query.Encode()

	if _, err := s.v4().Presign(clone, nil, s.Service, s.Region, expires, now); err != nil {
		return "", fmt.Errorf("SigV4 presigning failed: %w", err)
	}
	return clone.URL.String(), nil
}

// Expired reports whether a SigV4 presigned URL is past its validity window.
func Expired(u *url.URL) (bool, error) {
	query := u.Query()
	signed, err := Time.Parse(TimeFormat, query.Get("X-Amz-Date"))
	if err != nil {
		return false, fmt.Errorf("invalid X-Amz-Date: %w", err)
	}
	var seconds int64
	if _, err := fmt.Sscanf(query.Get("X-Amz-Expires"), "%d", &seconds); err != nil {
		return false, fmt.Errorf("invalid X-Amz-Expires: %w", err)
	}

	now, err := Time.UTCNow()
	if err != nil {
		return false, fmt.Errorf("failed to read current time: %w", err)
	}
	return now.After(signed.Add(time.Duration(seconds) * time.Second)), nil
}
