// Package httpcache computes HTTP caching headers for response bodies.
package httpcache

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// DefaultFreshness is how long clients may reuse a response.
const DefaultFreshness = time.Hour

// Metadata describes how a response body may be cached.
type Metadata struct {
	ExpiresAt time.Time
	MaxAge    int
	ETag      string
}

// Compute returns the cache metadata for body served at now. A non-positive
// freshness falls back to DefaultFreshness.
func Compute(body []byte, freshness time.Duration, now time.Time) Metadata {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return Metadata{
		ExpiresAt: now.Add(freshness),
		MaxAge:    int(freshness / time.Second),
		ETag:      Fingerprint(body),
	}
}

// Fingerprint returns a strong entity tag for body.
func Fingerprint(body []byte) string {
	return fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
}

// CacheControl returns the Cache-Control header value.
func (m Metadata) CacheControl() string {
	return "public, max-age=" + strconv.Itoa(m.MaxAge)
}

// Apply sets Expires, Cache-Control and ETag on h.
func (m Metadata) Apply(h http.Header) {
	h.Set("Expires", m.ExpiresAt.UTC().Format(http.TimeFormat))
	h.Set("Cache-Control", m.CacheControl())
	h.Set("ETag", m.ETag)
}

// Matches reports whether an If-None-Match header value matches the ETag.
// Weak comparison is used, as RFC 9110 requires for If-None-Match.
func (m Metadata) Matches(ifNoneMatch string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for _, tag := range strings.Split(ifNoneMatch, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		if strings.TrimPrefix(tag, "W/") == m.ETag {
			return true
		}
	}
	return false
}
