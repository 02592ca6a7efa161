// Package store persists reviewed objects and comments. Both tables are
// append-only: rows are inserted once and never updated or deleted.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"safc/internal/apperr"
	"safc/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DateLayout 所有 date 字段的文本格式
const DateLayout = "2006-01-02"

// Kind 标识一个 id 属于客体还是评价
type Kind string

const (
	KindNone    Kind = ""
	KindObject  Kind = "object"
	KindComment Kind = "comment"
)

// Store 评价数据仓库，持有显式的数据库句柄
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SearchResult 是截断后的模糊搜索结果，Total 为截断前的匹配数
type SearchResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// Truncated reports whether more matches exist than were returned.
func (r SearchResult[T]) Truncated() bool {
	return r.Total > int64(len(r.Items))
}

// Status 统计信息
type Status struct {
	Objects     int64  `json:"objects"`
	Comments    int64  `json:"comments"`
	NewObjects  int64  `json:"new_objects"`
	NewComments int64  `json:"new_comments"`
	Since       string `json:"since"`
}

func (s *Store) objects(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.ReviewedObject{})
}

func (s *Store) comments(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Comment{})
}

// ListCategories 所有学校类别
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	var out []string
	err := s.objects(ctx).Distinct().Order("school_cate").Pluck("school_cate", &out).Error
	return out, apperr.Storage("list categories", err)
}

// ListUniversities 某类别下的学校
func (s *Store) ListUniversities(ctx context.Context, cate string) ([]string, error) {
	var out []string
	err := s.objects(ctx).
		Where("school_cate = ?", cate).
		Distinct().Order("university").
		Pluck("university", &out).Error
	return out, apperr.Storage("list universities", err)
}

// ListDepartments 某学校下的学院
func (s *Store) ListDepartments(ctx context.Context, cate, university string) ([]string, error) {
	var out []string
	err := s.objects(ctx).
		Where("school_cate = ? AND university = ?", cate, university).
		Distinct().Order("department").
		Pluck("department", &out).Error
	return out, apperr.Storage("list departments", err)
}

// ListSupervisors 某学院下的导师
func (s *Store) ListSupervisors(ctx context.Context, cate, university, department string) ([]string, error) {
	var out []string
	err := s.objects(ctx).
		Where("school_cate = ? AND university = ? AND department = ?", cate, university, department).
		Distinct().Order("supervisor").
		Pluck("supervisor", &out).Error
	return out, apperr.Storage("list supervisors", err)
}

// FindObject 精确匹配路径；不存在时返回 nil, nil。
// 同一路径出现多个客体属于内部不变量被破坏。
func (s *Store) FindObject(ctx context.Context, university, department, supervisor string) (*models.ReviewedObject, error) {
	var objs []models.ReviewedObject
	err := s.objects(ctx).
		Where("university = ? AND department = ? AND supervisor = ?", university, department, supervisor).
		Limit(2).
		Find(&objs).Error
	if err != nil {
		return nil, apperr.Storage("find object", err)
	}
	switch len(objs) {
	case 0:
		return nil, nil
	case 1:
		return &objs[0], nil
	default:
		return nil, fmt.Errorf("find object %s/%s/%s: %w", university, department, supervisor, apperr.ErrInvariant)
	}
}

// FindObjectByID 不存在时返回 nil, nil
func (s *Store) FindObjectByID(ctx context.Context, id string) (*models.ReviewedObject, error) {
	var objs []models.ReviewedObject
	if err := s.objects(ctx).Where("object_id = ?", id).Limit(1).Find(&objs).Error; err != nil {
		return nil, apperr.Storage("find object by id", err)
	}
	if len(objs) == 0 {
		return nil, nil
	}
	return &objs[0], nil
}

// FindCommentByID 不存在时返回 nil, nil
func (s *Store) FindCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	var coms []models.Comment
	if err := s.comments(ctx).Where("id = ?", id).Limit(1).Find(&coms).Error; err != nil {
		return nil, apperr.Storage("find comment by id", err)
	}
	if len(coms) == 0 {
		return nil, nil
	}
	return &coms[0], nil
}

// ObjectOrCommentKind 判断 id 属于客体空间还是评价空间，都不属于时返回 KindNone
func (s *Store) ObjectOrCommentKind(ctx context.Context, id string) (Kind, error) {
	var n int64
	if err := s.objects(ctx).Where("object_id = ?", id).Count(&n).Error; err != nil {
		return KindNone, apperr.Storage("kind of id", err)
	}
	if n > 0 {
		return KindObject, nil
	}
	if err := s.comments(ctx).Where("id = ?", id).Count(&n).Error; err != nil {
		return KindNone, apperr.Storage("kind of id", err)
	}
	if n > 0 {
		return KindComment, nil
	}
	return KindNone, nil
}

// AddObject 单行插入。主键已存在视为去重成功，返回 inserted=false。
func (s *Store) AddObject(ctx context.Context, obj models.ReviewedObject) (bool, error) {
	if err := validateObject(obj); err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&obj)
	if res.Error != nil {
		return false, apperr.Storage("add object", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AddComment 单行插入，语义同 AddObject
func (s *Store) AddComment(ctx context.Context, c models.Comment) (bool, error) {
	if err := validateComment(c); err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&c)
	if res.Error != nil {
		return false, apperr.Storage("add comment", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CommentsByTarget 直接挂在 target 下的评价
func (s *Store) CommentsByTarget(ctx context.Context, targetID string) ([]models.Comment, error) {
	var coms []models.Comment
	err := s.comments(ctx).Where("target_id = ?", targetID).Order("date ASC, id ASC").Find(&coms).Error
	return coms, apperr.Storage("comments by target", err)
}

// RecentComments 最新发布的评价（含嵌套回复）
func (s *Store) RecentComments(ctx context.Context, limit int) ([]models.Comment, error) {
	var coms []models.Comment
	err := s.comments(ctx).Order("date DESC, id ASC").Limit(limit).Find(&coms).Error
	return coms, apperr.Storage("recent comments", err)
}

// FuzzyFindSupervisors 按通配符匹配导师名，最多返回 limit 条
func (s *Store) FuzzyFindSupervisors(ctx context.Context, pattern string, limit int) (SearchResult[models.ObjectMatch], error) {
	var res SearchResult[models.ObjectMatch]
	if strings.TrimSpace(pattern) == "" {
		return res, apperr.Validation("pattern", "empty")
	}
	if err := s.objects(ctx).Where("supervisor LIKE ?", pattern).Count(&res.Total).Error; err != nil {
		return res, apperr.Storage("fuzzy find supervisors", err)
	}
	err := s.objects(ctx).
		Select("school_cate, university, department, supervisor, object_id").
		Where("supervisor LIKE ?", pattern).
		Order("supervisor, object_id").
		Limit(limit).
		Find(&res.Items).Error
	return res, apperr.Storage("fuzzy find supervisors", err)
}

// FuzzyFindComments 按通配符匹配评价内容，最多返回 limit 条
func (s *Store) FuzzyFindComments(ctx context.Context, pattern string, limit int) (SearchResult[models.Comment], error) {
	var res SearchResult[models.Comment]
	if strings.TrimSpace(pattern) == "" {
		return res, apperr.Validation("pattern", "empty")
	}
	if err := s.comments(ctx).Where("description LIKE ?", pattern).Count(&res.Total).Error; err != nil {
		return res, apperr.Storage("fuzzy find comments", err)
	}
	err := s.comments(ctx).
		Where("description LIKE ?", pattern).
		Order("date DESC, id ASC").
		Limit(limit).
		Find(&res.Items).Error
	return res, apperr.Storage("fuzzy find comments", err)
}

// AggregateStatus 统计总量以及近 365 天的增量
func (s *Store) AggregateStatus(ctx context.Context, now time.Time) (Status, error) {
	st := Status{Since: now.AddDate(0, 0, -365).Format(DateLayout)}
	if err := s.objects(ctx).Count(&st.Objects).Error; err != nil {
		return st, apperr.Storage("status", err)
	}
	if err := s.comments(ctx).Count(&st.Comments).Error; err != nil {
		return st, apperr.Storage("status", err)
	}
	if err := s.objects(ctx).Where("date >= ?", st.Since).Count(&st.NewObjects).Error; err != nil {
		return st, apperr.Storage("status", err)
	}
	if err := s.comments(ctx).Where("date >= ?", st.Since).Count(&st.NewComments).Error; err != nil {
		return st, apperr.Storage("status", err)
	}
	return st, nil
}

func validateObject(o models.ReviewedObject) error {
	switch {
	case strings.TrimSpace(o.SchoolCate) == "":
		return apperr.Validation("school_cate", "empty")
	case strings.TrimSpace(o.University) == "":
		return apperr.Validation("university", "empty")
	case strings.TrimSpace(o.Department) == "":
		return apperr.Validation("department", "empty")
	case strings.TrimSpace(o.Supervisor) == "":
		return apperr.Validation("supervisor", "empty")
	case o.ObjectID == "":
		return apperr.Validation("object_id", "empty")
	}
	return nil
}

func validateComment(c models.Comment) error {
	switch {
	case c.TargetID == "":
		return apperr.Validation("target_id", "empty")
	case strings.TrimSpace(c.Description) == "":
		return apperr.Validation("description", "empty")
	case c.ID == "":
		return apperr.Validation("id", "empty")
	}
	if _, err := models.ParseSourceCate(string(c.SourceCate)); err != nil {
		return apperr.Validation("source_cate", err.Error())
	}
	if _, err := models.ParseCommentType(string(c.Type)); err != nil {
		return apperr.Validation("type", err.Error())
	}
	return nil
}
