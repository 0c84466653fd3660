package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeAgo(t *testing.T) {
	now := time.Now()

	cases := []struct {
		age  time.Duration
		want string
	}{
		{0, "just now"},
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{26 * time.Hour, "1 day ago"},
		{10 * 24 * time.Hour, "10 days ago"},
		{40 * 24 * time.Hour, "1 month ago"},
		{400 * 24 * time.Hour, "1 year ago"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TimeAgo(now.Add(-c.age), now), "age %v", c.age)
	}

	// Clock skew: timestamps from the future clamp to "just now".
	assert.Equal(t, "just now", TimeAgo(now.Add(time.Minute), now))
}

func TestRandStringBytesMaskImpr(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := RandStringBytesMaskImpr(8)
		assert.Len(t, s, 8)
		seen[s] = true
	}
	// Collisions over 100 draws from 62^8 would mean a broken generator.
	assert.Greater(t, len(seen), 95)
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := RenderMarkdown("**bold** and <script>alert(1)</script>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "alert(1)")

	out = RenderMarkdown("[link](https://example.com)")
	assert.Contains(t, out, `href="https://example.com"`)

	out = RenderMarkdown(`<a href="javascript:alert(1)">x</a>`)
	assert.NotContains(t, out, "javascript:")
}

func TestCacheInstancesAreIndependent(t *testing.T) {
	a, err := NewCache(8)
	assert.NoError(t, err)
	b, err := NewCache(8)
	assert.NoError(t, err)

	a.Set("summary:1", "from-a", time.Minute)
	assert.Equal(t, "from-a", a.Get("summary:1"))
	assert.Nil(t, b.Get("summary:1"))

	a.Delete("summary:1")
	assert.Nil(t, a.Get("summary:1"))

	// Expired entries read as absent.
	a.Set("stale", "x", -time.Second)
	assert.Nil(t, a.Get("stale"))
}

func TestParseID(t *testing.T) {
	assert.EqualValues(t, 42, ParseID("42"))
	assert.EqualValues(t, 0, ParseID(""))
	assert.EqualValues(t, 0, ParseID("abc"))
	assert.EqualValues(t, 0, ParseID("-7"))
	assert.EqualValues(t, 0, ParseID("4.2"))
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 42, ParseIntDefault("42", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 20, ParseIntDefault("junk", 20))
	assert.Equal(t, -7, ParseIntDefault("-7", 1))
}
