package handlers

import (
	"net/http"

	"safc/internal/apperr"
	"safc/internal/models"
	"safc/internal/query"
	"safc/internal/utils"

	"github.com/gin-gonic/gin"
)

// respondOK 成功响应统一包在 data 中
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// respondError 按错误类别返回状态码，同时记录到 gin 上下文供访问日志使用
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(apperr.HTTPStatus(err), apperr.Response(err))
}

func respondNotFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, apperr.Body{Error: apperr.Detail{Message: what + " not found", Code: "not_found"}})
}

// CommentView 评价及其回复，附带渲染后的 HTML
type CommentView struct {
	models.Comment
	DescriptionHTML string        `json:"description_html"`
	Replies         []CommentView `json:"replies"`
}

func newCommentView(c models.Comment, replies []*query.Thread) CommentView {
	return CommentView{
		Comment:         c,
		DescriptionHTML: utils.RenderMarkdown(c.Description),
		Replies:         renderThreads(replies),
	}
}

func renderThreads(threads []*query.Thread) []CommentView {
	out := make([]CommentView, len(threads))
	for i, t := range threads {
		out[i] = newCommentView(t.Comment, t.Replies)
	}
	return out
}

// ObjectView 客体及其评价树
type ObjectView struct {
	Object       models.ReviewedObject `json:"object"`
	Comments     []CommentView         `json:"comments"`
	CommentCount int                   `json:"comment_count"`
}

func newObjectView(o models.ReviewedObject, tree []*query.Thread) ObjectView {
	return ObjectView{Object: o, Comments: renderThreads(tree), CommentCount: query.Count(tree)}
}
