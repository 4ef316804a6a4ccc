// Package signedurl inspects time-limited signed storage URLs.
//
// Presigned URLs produced by SigV4-style providers carry the signing time
// and validity window as query parameters. Consumers that cache such a URL
// can check it is still usable before handing it to a media backend,
// instead of discovering the expiry through an opaque network error.
package signedurl

import (
	"errors"
	"net/url"
	"strconv"
	"time"
)

const (
	dateParam    = "X-Amz-Date"
	expiresParam = "X-Amz-Expires"

	// Signing timestamps use the basic ISO 8601 format.
	dateLayout = "20060102T150405Z"
)

var (
	// ErrNotSigned is returned for URLs that carry no recognizable
	// signature parameters.
	ErrNotSigned = errors.New("signedurl: url carries no signature parameters")

	// ErrMalformed is returned when signature parameters are present but
	// cannot be parsed.
	ErrMalformed = errors.New("signedurl: malformed signature parameters")
)

// Expiry extracts the expiration instant embedded in a signed URL.
func Expiry(rawURL string) (time.Time, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}, ErrMalformed
	}

	q := u.Query()
	dateStr := q.Get(dateParam)
	expiresStr := q.Get(expiresParam)
	if dateStr == "" || expiresStr == "" {
		return time.Time{}, ErrNotSigned
	}

	signedAt, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, ErrMalformed
	}
	seconds, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}, ErrMalformed
	}

	return signedAt.Add(time.Duration(seconds) * time.Second), nil
}

// IsExpired reports whether the signed URL is already unusable at the given
// instant. Unsigned or malformed URLs are treated as expired: the caller
// must re-resolve rather than hand a dead URL to a media backend.
func IsExpired(rawURL string, now time.Time) bool {
	expiry, err := Expiry(rawURL)
	if err != nil {
		return true
	}
	return !now.Before(expiry)
}
