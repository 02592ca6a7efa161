package models

import "safc/internal/identity"

// ReviewedObject 被评价的客体：学校类别 / 学校 / 学院 / 导师
type ReviewedObject struct {
	SchoolCate string  `gorm:"column:school_cate;type:text;not null;index:idx_objects_path,priority:1" json:"school_cate"`
	University string  `gorm:"column:university;type:text;not null;index:idx_objects_path,priority:2" json:"university"`
	Department string  `gorm:"column:department;type:text;not null;index:idx_objects_path,priority:3" json:"department"`
	Supervisor string  `gorm:"column:supervisor;type:text;not null" json:"supervisor"`
	Date       string  `gorm:"column:date;type:text;not null" json:"date"`
	Info       *string `gorm:"column:info;type:text" json:"info,omitempty"`
	ObjectID   string  `gorm:"column:object_id;type:text;primaryKey" json:"object_id"`
}

func (ReviewedObject) TableName() string {
	return "objects"
}

// NewObject 新建客体并计算 id，id 此后不可变
func NewObject(schoolCate, university, department, supervisor, date string) ReviewedObject {
	return ReviewedObject{
		SchoolCate: schoolCate,
		University: university,
		Department: department,
		Supervisor: supervisor,
		Date:       date,
		ObjectID:   identity.ObjectID(university, department, supervisor),
	}
}

// Path 层级路径，用于消息头
func (o ReviewedObject) Path() []string {
	return []string{o.SchoolCate, o.University, o.Department, o.Supervisor}
}

// ObjectMatch 模糊搜索导师的结果行
type ObjectMatch struct {
	SchoolCate string `json:"school_cate"`
	University string `json:"university"`
	Department string `json:"department"`
	Supervisor string `json:"supervisor"`
	ObjectID   string `json:"object_id"`
}
