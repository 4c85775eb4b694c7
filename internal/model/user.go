package model

// User 用户表，对应 users
// IsTeacher 在注册时确定，之后不可修改
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"           json:"id"`
	Username  string `gorm:"type:varchar(64);not null;uniqueIndex:uk_users_username" json:"username"`
	Password  string `gorm:"column:password;type:varchar(255);not null" json:"-"` // bcrypt 哈希
	IsTeacher bool   `gorm:"not null"                           json:"is_teacher"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
