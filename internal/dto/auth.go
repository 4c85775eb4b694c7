package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string   `json:"username" binding:"required,max=64"`
	Password string   `json:"password" binding:"required,max=72"` // 字节上限由 Service 层校验
	Role     RoleFlag `json:"role"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RoleFlag 注册时的角色标记，true 表示老师
//
// 兼容两种写法：
//   - 布尔值 true / false（旧客户端直接传老师标记）
//   - 字符串 "teacher" / "student"
//
// 缺省视为学生。
type RoleFlag bool

// UnmarshalJSON 解析布尔或字符串形式的角色
func (r *RoleFlag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = false
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*r = RoleFlag(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role 必须为布尔值或字符串: %w", err)
	}
	switch s {
	case "teacher":
		*r = true
	case "student", "":
		*r = false
	default:
		return fmt.Errorf("未知角色: %q", s)
	}
	return nil
}

// IsTeacher 是否为老师
func (r RoleFlag) IsTeacher() bool { return bool(r) }

// ── 认证模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	IsTeacher bool   `json:"is_teacher"`
	CreatedAt string `json:"created_at"`
}

// RegisterResponse 注册成功响应
type RegisterResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// LoginResponse 登录成功响应
type LoginResponse struct {
	Token string `json:"token"`
}
