package testutils

import (
	"testing"

	"safc/internal/models"

	"gorm.io/gorm"
)

// ObjectOption 修改测试客体字段
type ObjectOption func(*models.ReviewedObject)

func WithPath(cate, university, department, supervisor string) ObjectOption {
	return func(o *models.ReviewedObject) {
		*o = models.NewObject(cate, university, department, supervisor, o.Date)
	}
}

func WithObjectDate(date string) ObjectOption {
	return func(o *models.ReviewedObject) {
		o.Date = date
	}
}

// CreateTestObject 创建测试客体，默认路径 985/U1/D1/S1
func CreateTestObject(t *testing.T, db *gorm.DB, opts ...ObjectOption) models.ReviewedObject {
	t.Helper()

	obj := models.NewObject("985", "U1", "D1", "S1", "2024-01-01")
	for _, opt := range opts {
		opt(&obj)
	}
	if err := db.Create(&obj).Error; err != nil {
		t.Fatalf("failed to create test object: %v", err)
	}
	return obj
}

// CommentOption 修改测试评价字段
type CommentOption func(*commentFields)

type commentFields struct {
	content string
	date    string
	source  models.SourceCate
	typ     models.CommentType
	otp     string
}

func WithContent(content string) CommentOption {
	return func(c *commentFields) { c.content = content }
}

func WithCommentDate(date string) CommentOption {
	return func(c *commentFields) { c.date = date }
}

func WithType(typ models.CommentType) CommentOption {
	return func(c *commentFields) { c.typ = typ }
}

func WithOTP(otp string) CommentOption {
	return func(c *commentFields) { c.otp = otp }
}

// CreateTestComment 在 target 下创建测试评价
func CreateTestComment(t *testing.T, db *gorm.DB, targetID string, opts ...CommentOption) models.Comment {
	t.Helper()

	f := commentFields{
		content: "nice mentor",
		date:    "2024-01-01",
		source:  models.SourceWeb,
		typ:     models.TypeTeacher,
	}
	for _, opt := range opts {
		opt(&f)
	}
	c := models.NewComment(targetID, f.content, f.date, f.source, f.typ, f.otp)
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}
