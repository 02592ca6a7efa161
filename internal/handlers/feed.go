package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"safc/internal/store"
	"safc/internal/utils"

	"github.com/gin-gonic/gin"
)

// feedSize RSS 中的评价条数
const feedSize = 20

type FeedHandler struct {
	store   *store.Store
	siteURL string
	now     func() time.Time
}

func NewFeedHandler(s *store.Store, siteURL string) *FeedHandler {
	return &FeedHandler{store: s, siteURL: strings.TrimSuffix(siteURL, "/"), now: time.Now}
}

func (h *FeedHandler) baseURL(c *gin.Context) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// RSSFeed 生成最新评价的 RSS 2.0 feed
func (h *FeedHandler) RSSFeed(c *gin.Context) {
	coms, err := h.store.RecentComments(c.Request.Context(), feedSize)
	if err != nil {
		respondError(c, err)
		return
	}
	siteURL := h.baseURL(c)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>SAFC 导师评价</title>
    <link>` + escapeXML(siteURL) + `</link>
    <description>最新发布的导师评价与回复</description>
    <language>zh-CN</language>
    <lastBuildDate>` + h.now().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + escapeXML(siteURL) + `/api/feed.xml" rel="self" type="application/rss+xml"/>
`)

	for _, com := range coms {
		link := fmt.Sprintf("%s/api/comments/%s", siteURL, com.ID)
		title := utils.Truncate(strings.ReplaceAll(utils.PlainText(com.Description), "\n", " "), 30)

		pubDate := ""
		if d, err := time.Parse(store.DateLayout, com.Date); err == nil {
			pubDate = d.Format(time.RFC1123Z)
		}

		b.WriteString(`    <item>
      <title>` + escapeXML(title) + `</title>
      <link>` + escapeXML(link) + `</link>
      <description><![CDATA[` + cdata(utils.RenderMarkdown(com.Description)) + `]]></description>
      <category>` + escapeXML(string(com.Type)) + `</category>
      <pubDate>` + pubDate + `</pubDate>
      <guid isPermaLink="false">` + com.ID + `</guid>
    </item>
`)
	}

	b.WriteString(`  </channel>
</rss>`)

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func escapeXML(s string) string {
	return html.EscapeString(s)
}

// cdata 拆开内容中的 ]]> 以免提前结束 CDATA 段
func cdata(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
