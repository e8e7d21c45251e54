package sigv4

import "time"

// Time formats used when stamping a request.
const (
	TimeFormat      = "20060102T150405Z"
	ShortTimeFormat = "20060102"
)

// TimeSource is the set of clock operations the signers use. Today, Now and
// UTCNow stamp requests; Parse and Unix interpret timestamps found in
// presigned URLs.
type TimeSource interface {
	// Today returns midnight of the current local date.
	Today() (time.Time, error)
	// Now returns the current local time.
	Now() (time.Time, error)
	// UTCNow returns the current time in UTC.
	UTCNow() (time.Time, error)
	Parse(layout, value string) (time.Time, error)
	Unix(sec, nsec int64) time.Time
}

// SystemTime reads the process clock.
type SystemTime struct{}

func (SystemTime) Today() (time.Time, error) {
	return Midnight(time.Now()), nil
}

func (SystemTime) Now() (time.Time, error) {
	return time.Now(), nil
}

func (SystemTime) UTCNow() (time.Time, error) {
	return time.Now().UTC(), nil
}

func (SystemTime) Parse(layout, value string) (time.Time, error) {
	return time.Parse(layout, value)
}

func (SystemTime) Unix(sec, nsec int64) time.Time {
	return time.Unix(sec, nsec)
}

var _ TimeSource = SystemTime{}

// Time is the clock every signer in this package reads. It may be replaced
// before the first request is signed; it is not guarded for concurrent writes.
var Time TimeSource = SystemTime{}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// signingTime caches the two formats of the request timestamp.
type signingTime struct {
	time.Time
	timeFormat      string
	shortTimeFormat string
}

func newSigningTime(t time.Time) signingTime {
	return signingTime{Time: t.UTC()}
}

func (st *signingTime) TimeFormat() string {
	if st.timeFormat == "" {
		st.timeFormat = st.Format(TimeFormat)
	}
	return st.timeFormat
}

func (st *signingTime) ShortTimeFormat() string {
	if st.shortTimeFormat == "" {
		st.shortTimeFormat = st.Format(ShortTimeFormat)
	}
	return st.shortTimeFormat
}
