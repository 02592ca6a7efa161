package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	c, err := NewTTLCache[string, int](2, time.Minute)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheEviction(t *testing.T) {
	c, err := NewTTLCache[string, int](2, time.Hour)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	c.Delete("c")
	_, ok = c.Get("c")
	assert.False(t, ok)
}

func TestNewTTLCacheRejectsZeroSize(t *testing.T) {
	_, err := NewTTLCache[string, int](0, time.Hour)
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "line1\nline2", PlainText("line1<br>line2"))
	assert.Equal(t, "a & b", PlainText("<b>a</b> &amp; b"))
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("**good**<script>alert(1)</script>")
	assert.Contains(t, out, "<strong>good</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "导师很好", Truncate("导师很好", 4))
	assert.Equal(t, "导师…", Truncate("导师很好", 2))
	assert.True(t, strings.HasSuffix(Truncate(strings.Repeat("a", 10), 3), "…"))
}

func TestEnhanceHTMLImages(t *testing.T) {
	out := RenderMarkdown("![lab](https://example.com/lab.png)")
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
	assert.Contains(t, out, `loading="lazy"`)
	assert.NotContains(t, out, "<body>")
}

func TestEnhanceHTMLWithoutImages(t *testing.T) {
	assert.Equal(t, "<p>plain</p>", EnhanceHTML("<p>plain</p>"))
}
