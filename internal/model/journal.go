package model

import "time"

// Journal 日志条目表，对应 journals
// PublishedDate 为空表示草稿
type Journal struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Description   string     `gorm:"type:text;not null"       json:"description"`
	PublishedDate *time.Time `gorm:"type:date"                json:"published_date"`
	TeacherID     int64      `gorm:"not null;index"           json:"teacher_id"`
	BaseModel
}

// TableName 指定表名
func (Journal) TableName() string { return "journals" }

// IsOwnedBy 是否由指定教师创建
func (j *Journal) IsOwnedBy(userID int64) bool {
	return j.TeacherID == userID
}

// VisibleOn 学生在 day 当天能否看到该条目：草稿可见，发布日期不晚于当天可见
func (j *Journal) VisibleOn(day time.Time) bool {
	if j.PublishedDate == nil {
		return true
	}
	return !DateOf(*j.PublishedDate).After(DateOf(day))
}
