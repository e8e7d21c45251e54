package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostForm holds the form fields a browser sends with an S3 POST upload.
type PostForm struct {
	Expiration time.Time
	Fields     map[string]string
}

type postPolicy struct {
	Expiration string `json:"expiration"`
	Conditions []any  `json:"conditions"`
}

// PostPolicy builds a signed S3 POST policy for bucket. The policy expires at
// midnight, days days after Time.Today.
func (s *Signer) PostPolicy(bucket string, days int) (*PostForm, error) {
	if days <= 0 {
		return nil, fmt.Errorf("post policy must be valid for at least one day, got %d", days)
	}
	today, err := Time.Today()
	if err != nil {
		return nil, fmt.Errorf("failed to read current date: %w", err)
	}
	now, err := Time.UTCNow()
	if err != nil {
		return nil, fmt.Errorf("failed to read signing time: %w", err)
	}
	st := newSigningTime(now)
	expiration := today.AddDate(0, 0, days).UTC()
	credential := s.Credentials.AccessKeyID + "/" + s.scope(&st)

	conditions := []any{
		map[string]string{"bucket": bucket},
		map[string]string{"x-amz-algorithm": algorithm},
		map[string]string{"x-amz-credential": credential},
		map[string]string{"x-amz-date": st.TimeFormat()},
	}
	if s.Credentials.SessionToken != "" {
		conditions = append(conditions, map[string]string{"x-amz-security-token": s.Credentials.SessionToken})
	}

	raw, err := json.Marshal(postPolicy{
		Expiration: expiration.Format("2006-01-02T15:04:05.000Z"),
		Conditions: conditions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode post policy: %w", err)
	}
	policy := base64.StdEncoding.EncodeToString(raw)

	fields := map[string]string{
		"policy":           policy,
		"x-amz-algorithm":  algorithm,
		"x-amz-credential": credential,
		"x-amz-date":       st.TimeFormat(),
		"x-amz-signature":  hex.EncodeToString(hmacSHA256(s.signingKey(&st), policy)),
	}
	if s.Credentials.SessionToken != "" {
		fields["x-amz-security-token"] = s.Credentials.SessionToken
	}
	return &PostForm{Expiration: expiration, Fields: fields}, nil
}

func (s *Signer) scope(st *signingTime) string {
	return strings.Join([]string{st.ShortTimeFormat(), s.Region, s.Service, scopeTerminator}, "/")
}

func (s *Signer) signingKey(st *signingTime) []byte {
	key := hmacSHA256([]byte("AWS4"+s.Credentials.SecretAccessKey), st.ShortTimeFormat())
	key = hmacSHA256(key, s.Region)
	key = hmacSHA256(key, s.Service)
	return hmacSHA256(key, scopeTerminator)
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
