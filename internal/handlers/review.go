package handlers

import (
	"net/http"
	"strings"
	"time"

	"safc/internal/apperr"
	"safc/internal/identity"
	"safc/internal/models"
	"safc/internal/store"

	"github.com/gin-gonic/gin"
)

// ReviewHandler 写入客体与评价
type ReviewHandler struct {
	store *store.Store
	now   func() time.Time
}

func NewReviewHandler(s *store.Store) *ReviewHandler {
	return &ReviewHandler{store: s, now: time.Now}
}

type newCommentRequest struct {
	SchoolCate string `json:"school_cate"`
	University string `json:"university"`
	Department string `json:"department"`
	Supervisor string `json:"supervisor"`
	Content    string `json:"content"`
	OTP        string `json:"otp"`
}

type newReplyRequest struct {
	TargetID string `json:"target_id"`
	Content  string `json:"content"`
	OTP      string `json:"otp"`
}

type createdView struct {
	ObjectID  string `json:"object_id,omitempty"`
	CommentID string `json:"comment_id"`
	Date      string `json:"date"`
	Duplicate bool   `json:"duplicate"`
}

// CreateComment POST /api/new/comment
// 客体不存在时自动创建，然后以 web 来源写入一条 teacher 评价
func (h *ReviewHandler) CreateComment(c *gin.Context) {
	ctx := c.Request.Context()

	var req newCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", err.Error()))
		return
	}
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"school_cate", &req.SchoolCate},
		{"university", &req.University},
		{"department", &req.Department},
		{"supervisor", &req.Supervisor},
		{"content", &req.Content},
	} {
		*f.val = strings.TrimSpace(*f.val)
		if *f.val == "" {
			respondError(c, apperr.Validation(f.name, "empty"))
			return
		}
	}

	date := h.now().Format(store.DateLayout)
	obj, err := h.store.FindObject(ctx, req.University, req.Department, req.Supervisor)
	if err != nil {
		respondError(c, err)
		return
	}
	if obj == nil {
		created := models.NewObject(req.SchoolCate, req.University, req.Department, req.Supervisor, date)
		if _, err := h.store.AddObject(ctx, created); err != nil {
			respondError(c, err)
			return
		}
		obj = &created
	}

	com := models.NewComment(obj.ObjectID, req.Content, date, models.SourceWeb, models.TypeTeacher, strings.TrimSpace(req.OTP))
	h.insert(c, obj.ObjectID, com)
}

// CreateReply POST /api/new/reply
func (h *ReviewHandler) CreateReply(c *gin.Context) {
	ctx := c.Request.Context()

	var req newReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Validation("body", err.Error()))
		return
	}
	target := strings.ToLower(strings.TrimSpace(req.TargetID))
	if !identity.IsID(target) {
		respondError(c, apperr.Validation("target_id", "must be 16 hex characters"))
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(c, apperr.Validation("content", "empty"))
		return
	}

	kind, err := h.store.ObjectOrCommentKind(ctx, target)
	if err != nil {
		respondError(c, err)
		return
	}
	typ := models.TypeNest
	switch kind {
	case store.KindNone:
		respondNotFound(c, "target")
		return
	case store.KindObject:
		typ = models.TypeTeacher
	}

	date := h.now().Format(store.DateLayout)
	com := models.NewComment(target, content, date, models.SourceWeb, typ, strings.TrimSpace(req.OTP))
	h.insert(c, "", com)
}

// insert 重复的评价返回 200 与 duplicate 标记
func (h *ReviewHandler) insert(c *gin.Context, objectID string, com models.Comment) {
	inserted, err := h.store.AddComment(c.Request.Context(), com)
	if err != nil {
		respondError(c, err)
		return
	}
	view := createdView{ObjectID: objectID, CommentID: com.ID, Date: com.Date, Duplicate: !inserted}
	if !inserted {
		respondOK(c, http.StatusOK, view)
		return
	}
	respondOK(c, http.StatusCreated, view)
}
