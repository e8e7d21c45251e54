package faketime

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// Day is a calendar day as a fixed span.
const Day = 24 * time.Hour

// Year is 365 days, the multiplier libfaketime itself applies to the "y" unit.
// Leap days are not accounted for.
const Year = 365 * Day

// offsetPattern matches a relative offset at the start of the text. Anything
// after the match is ignored, the same way libfaketime ignores it.
var offsetPattern = regexp.MustCompile(`^([+-])(\d+)([mhdy])?`)

// ParseOffset parses a relative libfaketime offset such as "+30m", "-2h",
// "+1d" or "+5" (seconds). Absolute forms like "@2020-01-01 00:00:00" are
// rejected with ErrMalformedOffset.
func ParseOffset(text string) (time.Duration, error) {
	match := offsetPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, malformed(text)
	}
	sign, digits, unit := match[1], match[2], match[3]

	scale, err := unitScale(text, unit)
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, outOfRange(text)
	}
	if n > int64(math.MaxInt64/scale) {
		return 0, outOfRange(text)
	}

	d := time.Duration(n) * scale
	if sign == "-" {
		d = -d
	}
	return d, nil
}

func unitScale(text, unit string) (time.Duration, error) {
	switch unit {
	case "":
		return time.Second, nil
	case "m":
		return time.Minute, nil
	case "h":
		return time.Hour, nil
	case "d":
		return Day, nil
	case "y":
		return Year, nil
	default:
		return 0, unknownUnit(text, unit)
	}
}
