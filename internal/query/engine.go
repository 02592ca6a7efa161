// Package query resolves nested comment trees and applies the search
// truncation policy on top of the review store.
package query

import (
	"context"
	"fmt"
	"strings"

	"safc/internal/models"
	"safc/internal/store"
)

const (
	DefaultMaxObjectMatches  = 30
	DefaultMaxCommentMatches = 10
)

// Source is the subset of the review store the engine reads from.
type Source interface {
	CommentsByTarget(ctx context.Context, targetID string) ([]models.Comment, error)
	FuzzyFindSupervisors(ctx context.Context, pattern string, limit int) (store.SearchResult[models.ObjectMatch], error)
	FuzzyFindComments(ctx context.Context, pattern string, limit int) (store.SearchResult[models.Comment], error)
}

// Thread 一条评价及其所有回复
type Thread struct {
	models.Comment
	Replies []*Thread `json:"replies,omitempty"`
}

// Entry 先序展开后的评价，Depth 从 0 开始
type Entry struct {
	Comment models.Comment
	Depth   int
}

type Engine struct {
	src         Source
	maxObjects  int
	maxComments int
}

// NewEngine 创建查询引擎；客体搜索上限必须大于评价搜索上限
func NewEngine(src Source, maxObjects, maxComments int) (*Engine, error) {
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjectMatches
	}
	if maxComments <= 0 {
		maxComments = DefaultMaxCommentMatches
	}
	if maxObjects <= maxComments {
		return nil, fmt.Errorf("object match cap %d must exceed comment match cap %d", maxObjects, maxComments)
	}
	return &Engine{src: src, maxObjects: maxObjects, maxComments: maxComments}, nil
}

// CommentTree 递归取出 target 下的所有评价。
// 评价 id 由已存在的 target 派生，不可能成环，因此递归必然终止。
func (e *Engine) CommentTree(ctx context.Context, targetID string) ([]*Thread, error) {
	coms, err := e.src.CommentsByTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("comment tree %s: %w", targetID, err)
	}
	threads := make([]*Thread, 0, len(coms))
	for _, c := range coms {
		replies, err := e.CommentTree(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		threads = append(threads, &Thread{Comment: c, Replies: replies})
	}
	return threads, nil
}

// Flatten 先序展开，回复紧跟在被回复的评价之后
func Flatten(threads []*Thread) []Entry {
	var out []Entry
	var walk func(ts []*Thread, depth int)
	walk = func(ts []*Thread, depth int) {
		for _, t := range ts {
			out = append(out, Entry{Comment: t.Comment, Depth: depth})
			walk(t.Replies, depth+1)
		}
	}
	walk(threads, 0)
	return out
}

// Count 树中评价总数
func Count(threads []*Thread) int {
	n := 0
	for _, t := range threads {
		n += 1 + Count(t.Replies)
	}
	return n
}

// SearchSupervisors 模糊搜索导师，最多返回 maxObjects 条
func (e *Engine) SearchSupervisors(ctx context.Context, pattern string) (store.SearchResult[models.ObjectMatch], error) {
	return e.src.FuzzyFindSupervisors(ctx, NormalizePattern(pattern), e.maxObjects)
}

// SearchComments 模糊搜索评价，最多返回 maxComments 条
func (e *Engine) SearchComments(ctx context.Context, pattern string) (store.SearchResult[models.Comment], error) {
	return e.src.FuzzyFindComments(ctx, NormalizePattern(pattern), e.maxComments)
}

// NormalizePattern 不含通配符的输入按子串匹配处理
func NormalizePattern(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.ContainsAny(p, "%_") {
		return p
	}
	return "%" + p + "%"
}
