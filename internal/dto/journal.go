package dto

// ── 日志模块 DTO ──

// SaveJournalRequest 创建 / 更新日志请求
// 无法解析的学生用户名会被静默跳过
type SaveJournalRequest struct {
	Description      string   `json:"description"`
	StudentUsernames []string `json:"studentUsernames"`
}

// PublishJournalRequest 发布日志请求
// publish_date 接受 YYYY-MM-DD 或 RFC 3339 时间戳（仅取日期部分）
type PublishJournalRequest struct {
	PublishDate string `json:"publish_date" binding:"required"`
}

// ── 日志模块响应 ──

// JournalResponse 日志条目响应
type JournalResponse struct {
	ID            int64   `json:"id"`
	Description   string  `json:"description"`
	TeacherID     int64   `json:"teacher_id"`
	PublishedDate *string `json:"published_date"` // 草稿为 null
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}
