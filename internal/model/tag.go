package model

// Tag 日志与接收学生的关联表，对应 tags
// 不做唯一约束，同一学生可被重复标记
type Tag struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	JournalID int64 `gorm:"not null;index"           json:"journal_id"`
	StudentID int64 `gorm:"not null"                 json:"student_id"`
}

// TableName 指定表名
func (Tag) TableName() string { return "tags" }

// Recipient 导出时使用的"日志-接收人"投影
type Recipient struct {
	JournalID int64
	Username  string
}
