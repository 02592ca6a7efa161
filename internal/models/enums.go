package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// SourceCate 评价来源
type SourceCate string

const (
	SourceAdmin    SourceCate = "admin"
	SourceUrfire   SourceCate = "urfire"
	SourceTelegram SourceCate = "telegram"
	SourceWeb      SourceCate = "web"
	SourcePiReview SourceCate = "pireview"
)

// CommentType 评价对象的类别；Nest 表示对评价的评价
type CommentType string

const (
	TypeTeacher CommentType = "teacher"
	TypeCourse  CommentType = "course"
	TypeStudent CommentType = "student"
	TypeUnity   CommentType = "unity"
	TypeInfo    CommentType = "info"
	TypeNest    CommentType = "nest"
)

func ParseSourceCate(s string) (SourceCate, error) {
	v := SourceCate(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case SourceAdmin, SourceUrfire, SourceTelegram, SourceWeb, SourcePiReview:
		return v, nil
	}
	return "", fmt.Errorf("unknown source_cate %q", s)
}

func ParseCommentType(s string) (CommentType, error) {
	v := CommentType(strings.ToLower(strings.TrimSpace(s)))
	switch v {
	case TypeTeacher, TypeCourse, TypeStudent, TypeUnity, TypeInfo, TypeNest:
		return v, nil
	}
	return "", fmt.Errorf("unknown comment type %q", s)
}

func (s SourceCate) Value() (driver.Value, error) {
	if _, err := ParseSourceCate(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

func (s *SourceCate) Scan(src interface{}) error {
	raw, err := scanText(src)
	if err != nil {
		return err
	}
	v, err := ParseSourceCate(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (t CommentType) Value() (driver.Value, error) {
	if _, err := ParseCommentType(string(t)); err != nil {
		return nil, err
	}
	return string(t), nil
}

func (t *CommentType) Scan(src interface{}) error {
	raw, err := scanText(src)
	if err != nil {
		return err
	}
	v, err := ParseCommentType(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func scanText(src interface{}) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported enum source %T", src)
	}
}
