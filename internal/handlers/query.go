package handlers

import (
	"net/http"
	"strings"
	"time"

	"safc/internal/apperr"
	"safc/internal/identity"
	"safc/internal/query"
	"safc/internal/store"

	"github.com/gin-gonic/gin"
)

type QueryHandler struct {
	store  *store.Store
	engine *query.Engine
	now    func() time.Time
}

func NewQueryHandler(s *store.Store, e *query.Engine) *QueryHandler {
	return &QueryHandler{store: s, engine: e, now: time.Now}
}

// Status GET /api
func (h *QueryHandler) Status(c *gin.Context) {
	st, err := h.store.AggregateStatus(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, st)
}

// levelView 某一层级的可选项
type levelView struct {
	Level string   `json:"level"`
	Items []string `json:"items"`
}

// Query GET /api/query 按层级逐级查询；四级齐全时返回客体及评价
func (h *QueryHandler) Query(c *gin.Context) {
	ctx := c.Request.Context()
	cate := strings.TrimSpace(c.Query("school_cate"))
	univ := strings.TrimSpace(c.Query("university"))
	dept := strings.TrimSpace(c.Query("department"))
	sup := strings.TrimSpace(c.Query("supervisor"))

	// 只允许前缀形式的参数组合
	given := []string{cate, univ, dept, sup}
	names := []string{"school_cate", "university", "department", "supervisor"}
	depth := 0
	for depth < len(given) && given[depth] != "" {
		depth++
	}
	for i := depth; i < len(given); i++ {
		if given[i] != "" {
			respondError(c, apperr.Validation(names[depth], "required before "+names[i]))
			return
		}
	}

	var (
		items []string
		level string
		err   error
	)
	switch depth {
	case 0:
		level = "school_cate"
		items, err = h.store.ListCategories(ctx)
	case 1:
		level = "university"
		items, err = h.store.ListUniversities(ctx, cate)
	case 2:
		level = "department"
		items, err = h.store.ListDepartments(ctx, cate, univ)
	case 3:
		level = "supervisor"
		items, err = h.store.ListSupervisors(ctx, cate, univ, dept)
	default:
		obj, err := h.store.FindObject(ctx, univ, dept, sup)
		if err != nil {
			respondError(c, err)
			return
		}
		if obj == nil {
			respondNotFound(c, "object")
			return
		}
		tree, err := h.engine.CommentTree(ctx, obj.ObjectID)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, newObjectView(*obj, tree))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if items == nil {
		items = []string{}
	}
	respondOK(c, http.StatusOK, levelView{Level: level, Items: items})
}

// Object GET /api/objects/:id
func (h *QueryHandler) Object(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.ToLower(c.Param("id"))
	if !identity.IsID(id) {
		respondError(c, apperr.Validation("id", "must be 16 hex characters"))
		return
	}
	obj, err := h.store.FindObjectByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if obj == nil {
		respondNotFound(c, "object")
		return
	}
	tree, err := h.engine.CommentTree(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, newObjectView(*obj, tree))
}

// Comment GET /api/comments/:id 评价及其回复子树
func (h *QueryHandler) Comment(c *gin.Context) {
	ctx := c.Request.Context()
	id := strings.ToLower(c.Param("id"))
	if !identity.IsID(id) {
		respondError(c, apperr.Validation("id", "must be 16 hex characters"))
		return
	}
	com, err := h.store.FindCommentByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if com == nil {
		respondNotFound(c, "comment")
		return
	}
	replies, err := h.engine.CommentTree(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, newCommentView(*com, replies))
}

type searchView[T any] struct {
	Items     []T   `json:"items"`
	Total     int64 `json:"total"`
	Truncated bool  `json:"truncated"`
}

func newSearchView[T any](r store.SearchResult[T]) searchView[T] {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return searchView[T]{Items: items, Total: r.Total, Truncated: r.Truncated()}
}

// SearchSupervisors GET /api/search/supervisors?q=
func (h *QueryHandler) SearchSupervisors(c *gin.Context) {
	res, err := h.engine.SearchSupervisors(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, newSearchView(res))
}

// SearchComments GET /api/search/comments?q=
func (h *QueryHandler) SearchComments(c *gin.Context) {
	res, err := h.engine.SearchComments(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	view := newSearchView(res)
	out := searchView[CommentView]{Items: make([]CommentView, len(view.Items)), Total: view.Total, Truncated: view.Truncated}
	for i, com := range view.Items {
		out.Items[i] = newCommentView(com, nil)
	}
	respondOK(c, http.StatusOK, out)
}
