package utils

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	policy      = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()

	// 历史数据（urfire）中以 <br> 换行
	brTag = regexp.MustCompile(`(?i)<br\s*/?>`)
)

func init() {
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown 将评价内容渲染为安全的 HTML
func RenderMarkdown(source string) string {
	source = brTag.ReplaceAllString(source, "\n")
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return policy.Sanitize(source)
	}
	return EnhanceHTML(string(policy.SanitizeBytes(buf.Bytes())))
}

// PlainText 去掉所有 HTML 标签，<br> 转为换行，用于纯文本消息
func PlainText(source string) string {
	source = brTag.ReplaceAllString(source, "\n")
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(source)))
}

// Truncate 按字符截断，超出时追加省略号
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
