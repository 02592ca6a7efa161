package models

import (
	"safc/internal/identity"
)

// Comment 评价；TargetID 指向客体或另一条评价（嵌套）
type Comment struct {
	TargetID    string      `gorm:"column:target_id;type:text;not null;index" json:"target_id"`
	Description string      `gorm:"column:description;type:text;not null" json:"description"`
	Date        string      `gorm:"column:date;type:text;not null" json:"date"`
	SourceCate  SourceCate  `gorm:"column:source_cate;type:text;not null" json:"source_cate"`
	Type        CommentType `gorm:"column:type;type:text;not null" json:"type"`
	AuthorSign  *string     `gorm:"column:author_sign;type:text" json:"author_sign,omitempty"`
	ID          string      `gorm:"column:id;type:text;primaryKey" json:"id"`
}

func (Comment) TableName() string {
	return "comments"
}

// NewComment 计算评价 id；otp 非空时附带作者签名，OTP 本身不保存
func NewComment(targetID, content, date string, source SourceCate, typ CommentType, otp string) Comment {
	c := Comment{
		TargetID:    targetID,
		Description: content,
		Date:        date,
		SourceCate:  source,
		Type:        typ,
		ID:          identity.CommentID(targetID, content, date),
	}
	if otp != "" {
		sign := identity.AuthorSign(c.ID, otp)
		c.AuthorSign = &sign
	}
	return c
}
