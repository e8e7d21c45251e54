package sigv4

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// SignV1 signs req with the legacy S3 HMAC-SHA1 scheme. The Date header is
// taken from Time.Now.
func (s *Signer) SignV1(req *http.Request) error {
	now, err := Time.Now()
	if err != nil {
		return fmt.Errorf("failed to read signing time: %w", err)
	}
	date := now.UTC().Format(http.TimeFormat)

	req.Header.Del(HeaderAuthorization)
	req.Header.Set("Date", date)
	if s.Credentials.SessionToken != "" {
		req.Header.Set("X-Amz-Security-Token", s.Credentials.SessionToken)
	}

	signature := s.signatureV1(req, date)
	req.Header.Set(HeaderAuthorization, "AWS "+s.Credentials.AccessKeyID+":"+signature)
	return nil
}

// PresignV1 returns a legacy S3 query-string authenticated URL valid for expires.
func (s *Signer) PresignV1(req *http.Request, expires time.Duration) (string, error) {
	now, err := Time.Now()
	if err != nil {
		return "", fmt.Errorf("failed to read signing time: %w", err)
	}
	deadline := strconv.FormatInt(now.Add(expires).Unix(), 10)

	u := *req.URL
	query := u.Query()
	query.Set("AWSAccessKeyId", s.Credentials.AccessKeyID)
	query.Set("Expires", deadline)
	if s.Credentials.SessionToken != "" {
		query.Set("x-amz-security-token", s.Credentials.SessionToken)
	}
	query.Set("Signature", s.signatureV1(req, deadline))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// ExpiredV1 reports whether a legacy S3 presigned URL is past its Expires time.
func ExpiredV1(u *url.URL) (bool, error) {
	sec, err := strconv.ParseInt(u.Query().Get("Expires"), 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid Expires: %w", err)
	}
	now, err := Time.Now()
	if err != nil {
		return false, fmt.Errorf("failed to read current time: %w", err)
	}
	return now.After(Time.Unix(sec, 0)), nil
}

func (s *Signer) signatureV1(req *http.Request, date string) string {
	stringToSign := strings.Join([]string{
		req.Method,
		req.Header.Get("Content-MD5"),
		req.Header.Get("Content-Type"),
		date,
	}, "\n") + "\n" + canonicalAmzHeaders(req.Header) + canonicalResource(req)

	h := hmac.New(sha1.New, []byte(s.Credentials.SecretAccessKey))
	h.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// canonicalResource is the request path, prefixed with /<bucket> when the
// bucket is addressed through the host name.
func canonicalResource(req *http.Request) string {
	path := req.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if bucket := virtualHostBucket(req); bucket != "" {
		return "/" + bucket + path
	}
	return path
}

// virtualHostBucket returns the bucket of a <bucket>.s3.amazonaws.com,
// <bucket>.s3.<region>.amazonaws.com or <bucket>.s3-<region>.amazonaws.com
// host, or "" for any other host.
func virtualHostBucket(req *http.Request) string {
	host := req.Host
	if host == "" {
		host = req.URL.Host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if !strings.HasSuffix(host, ".amazonaws.com") {
		return ""
	}
	i := max(strings.LastIndex(host, ".s3."), strings.LastIndex(host, ".s3-"))
	if i <= 0 {
		return ""
	}
	return host[:i]
}

func canonicalAmzHeaders(header http.Header) string {
	var names []string
	for name := range header {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "x-amz-") && lower != "x-amz-date" {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	var b strings.Builder
	for _, name := range names {
		b.WriteString(strings.ToLower(name))
		b.WriteByte(':')
		b.WriteString(strings.Join(header.Values(name), ","))
		b.WriteByte('\n')
	}
	return b.String()
}
