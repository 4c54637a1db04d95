package httpcache_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tideline/tideline/internal/httpcache"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestCompute(t *testing.T) {
	body := []byte(`{"stations":[]}`)

	meta := httpcache.Compute(body, time.Hour, testNow)

	assert.Equal(t, testNow.Add(time.Hour), meta.ExpiresAt)
	assert.Equal(t, 3600, meta.MaxAge)
	assert.Regexp(t, `^"[0-9a-f]{16}"$`, meta.ETag)
	assert.Equal(t, "public, max-age=3600", meta.CacheControl())
}

func TestCompute_DefaultFreshness(t *testing.T) {
	meta := httpcache.Compute([]byte("x"), 0, testNow)
	assert.Equal(t, 3600, meta.MaxAge)
	assert.Equal(t, testNow.Add(httpcache.DefaultFreshness), meta.ExpiresAt)
}

func TestCompute_FingerprintIsStable(t *testing.T) {
	a := httpcache.Compute([]byte(`{"id":"1"}`), time.Hour, testNow)
	b := httpcache.Compute([]byte(`{"id":"1"}`), 2*time.Hour, testNow.Add(time.Minute))
	c := httpcache.Compute([]byte(`{"id":"2"}`), time.Hour, testNow)

	assert.Equal(t, a.ETag, b.ETag)
	assert.NotEqual(t, a.ETag, c.ETag)
}

func TestMetadata_Apply(t *testing.T) {
	meta := httpcache.Compute([]byte("body"), 90*time.Minute, testNow)
	h := http.Header{}

	meta.Apply(h)

	assert.Equal(t, "Sat, 15 Jun 2024 13:30:00 GMT", h.Get("Expires"))
	assert.Equal(t, "public, max-age=5400", h.Get("Cache-Control"))
	assert.Equal(t, meta.ETag, h.Get("ETag"))
}

func TestMetadata_Matches(t *testing.T) {
	meta := httpcache.Compute([]byte("body"), time.Hour, testNow)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{name: "empty", header: "", want: false},
		{name: "exact", header: meta.ETag, want: true},
		{name: "weak", header: "W/" + meta.ETag, want: true},
		{name: "list", header: `"abc", ` + meta.ETag, want: true},
		{name: "wildcard", header: "*", want: true},
		{name: "other", header: `"0000000000000000"`, want: false},
		{name: "unquoted", header: meta.ETag[1 : len(meta.ETag)-1], want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, meta.Matches(tt.header))
		})
	}
}
