// Package ntpcheck compares the corrected signing clock with an NTP server.
package ntpcheck

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// SigningTolerance is how far a request timestamp may drift from the
// service's clock before the signature is rejected.
const SigningTolerance = 5 * time.Minute

const (
	maxRTT     = 2 * time.Second
	maxStratum = 15
)

// NTPClient queries an NTP server.
type NTPClient interface {
	QueryWithOptions(host string, options ntp.QueryOptions) (*ntp.Response, error)
}

// DefaultNTPClient uses the beevik/ntp package.
type DefaultNTPClient struct{}

func (DefaultNTPClient) QueryWithOptions(host string, options ntp.QueryOptions) (*ntp.Response, error) {
	return ntp.QueryWithOptions(host, options)
}

// Report is the outcome of one check.
type Report struct {
	Server string
	// ClockOffset is what NTP says must be added to the local clock.
	ClockOffset time.Duration
	// FakeOffset is the libfaketime offset the signing clock removes.
	FakeOffset time.Duration
	// Residual is the error left in the signing clock after correction.
	Residual time.Duration
	RTT      time.Duration
	Stratum  uint8
}

// Within reports whether the residual error is inside tolerance.
func (r *Report) Within(tolerance time.Duration) bool {
	return abs(r.Residual) <= tolerance
}

// Check queries server and reports the error left in the signing clock once
// the offset returned by fakeOffset is removed.
func Check(client NTPClient, server string, timeout time.Duration, fakeOffset func() (time.Duration, error)) (*Report, error) {
	fake, err := fakeOffset()
	if err != nil {
		return nil, err
	}

	resp, err := client.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("NTP query to %s failed: %w", server, err)
	}
	if err := validate(resp); err != nil {
		return nil, fmt.Errorf("NTP response from %s rejected: %w", server, err)
	}

	// local clock = true time + fake, and ClockOffset = true time - local clock
	return &Report{
		Server:      server,
		ClockOffset: resp.ClockOffset,
		FakeOffset:  fake,
		Residual:    resp.ClockOffset + fake,
		RTT:         resp.RTT,
		Stratum:     resp.Stratum,
	}, nil
}

func validate(resp *ntp.Response) error {
	if resp.Leap == ntp.LeapNotInSync {
		return fmt.Errorf("server clock not synchronized")
	}
	if resp.Stratum == 0 || resp.Stratum > maxStratum {
		return fmt.Errorf("stratum %d out of range", resp.Stratum)
	}
	if resp.RTT < 0 || resp.RTT > maxRTT {
		return fmt.Errorf("round-trip delay %s out of range", resp.RTT)
	}
	return nil
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
