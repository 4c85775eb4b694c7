package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"school-journal/backend/internal/dto"
	"school-journal/backend/internal/service"
	"school-journal/backend/pkg/response"
)

// JournalHandler 日志模块 HTTP 处理器
type JournalHandler struct {
	journalSvc service.JournalService
}

// NewJournalHandler 创建 JournalHandler
func NewJournalHandler(journalSvc service.JournalService) *JournalHandler {
	return &JournalHandler{journalSvc: journalSvc}
}

// Create 创建日志（草稿）
// POST /api/user/journal/create
func (h *JournalHandler) Create(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SaveJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.journalSvc.Create(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.Created(c, result)
}

// Update 更新日志描述并替换接收学生
// POST /api/user/journal/update/:id
func (h *JournalHandler) Update(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.SaveJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.journalSvc.Update(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除日志
// DELETE /api/user/journal/delete/:id
func (h *JournalHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.journalSvc.Delete(c.Request.Context(), callerID, id); err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.Message(c, "删除成功")
}

// Publish 设置发布日期
// POST /api/user/journal/publish/:id
func (h *JournalHandler) Publish(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.PublishJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "参数校验失败")
		return
	}

	result, err := h.journalSvc.Publish(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.OK(c, result)
}

// Feed 当前用户的日志 Feed
// GET /api/user/journal/feed
func (h *JournalHandler) Feed(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.journalSvc.Feed(c.Request.Context(), callerID)
	if err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *JournalHandler) handleJournalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotTeacher):
		response.Forbidden(c, response.CodeNotTeacher, "仅老师可执行该操作")
	case errors.Is(err, service.ErrJournalNotFound):
		response.NotFound(c, response.CodeJournalNotFound, "日志不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, response.CodeUserNotFound, "用户不存在")
	case errors.Is(err, service.ErrInvalidPublishDate):
		response.BadRequest(c, response.CodeInvalidParams, "发布日期格式无效，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}
