package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入），由 GORM 自动维护
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// DateLayout 发布日期的对外格式
const DateLayout = "2006-01-02"

// DateOf 截取日期部分（按 t 自身所在时区），时间归零并固定为 UTC
// 用于在不同时区的时间值之间按"日历日"比较
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
