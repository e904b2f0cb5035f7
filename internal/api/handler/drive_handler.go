package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/service"
	"clubhub/backend/pkg/response"
)

// DriveHandler 纳新活动模块 HTTP 处理器
type DriveHandler struct {
	driveSvc service.DriveService
}

// NewDriveHandler 创建 DriveHandler
func NewDriveHandler(driveSvc service.DriveService) *DriveHandler {
	return &DriveHandler{driveSvc: driveSvc}
}

// ListActiveDrives 获取进行中的纳新活动（学生视角）
// GET /api/v1/drives
func (h *DriveHandler) ListActiveDrives(c *gin.Context) {
	drives, err := h.driveSvc.ListActive(c.Request.Context())
	if err != nil {
		h.handleDriveError(c, err)
		return
	}

	response.OK(c, gin.H{"list": drives})
}

// ListMyDrives 获取自己社团的全部活动（社长视角，含停用和已截止）
// GET /api/v1/drives/mine
func (h *DriveHandler) ListMyDrives(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	drives, err := h.driveSvc.ListMine(c.Request.Context(), callerID)
	if err != nil {
		h.handleDriveError(c, err)
		return
	}

	response.OK(c, gin.H{"list": drives})
}

// GetDrive 获取活动详情
// GET /api/v1/drives/:id
func (h *DriveHandler) GetDrive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	drive, err := h.driveSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleDriveError(c, err)
		return
	}

	response.OK(c, drive)
}

// CreateDrive 创建纳新活动（社长）
// POST /api/v1/drives
func (h *DriveHandler) CreateDrive(c *gin.Context) {
	var req dto.CreateDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	drive, err := h.driveSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDriveError(c, err)
		return
	}

	response.Created(c, drive)
}

// UpdateDrive 更新纳新活动（社长）
// PUT /api/v1/drives/:id
func (h *DriveHandler) UpdateDrive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.UpdateDriveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	drive, err := h.driveSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleDriveError(c, err)
		return
	}

	response.OK(c, drive)
}

// ToggleDriveActive 启用/停用活动（社长）
// PUT /api/v1/drives/:id/active
func (h *DriveHandler) ToggleDriveActive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	var req dto.ToggleDriveActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	drive, err := h.driveSvc.ToggleActive(c.Request.Context(), id, *req.IsActive, callerID)
	if err != nil {
		h.handleDriveError(c, err)
		return
	}

	response.OK(c, drive)
}

// DeleteDrive 删除纳新活动（社长，已有申请时拒绝）
// DELETE /api/v1/drives/:id
func (h *DriveHandler) DeleteDrive(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "活动ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.driveSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleDriveError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleDriveError 统一处理纳新活动模块业务错误
func (h *DriveHandler) handleDriveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDriveNotFound):
		response.NotFound(c, 14001, "纳新活动不存在")
	case errors.Is(err, service.ErrNoOwnedClub):
		response.Forbidden(c, 14002, "当前用户未负责任何社团")
	case errors.Is(err, service.ErrDeadlinePassed):
		response.BadRequest(c, 14003, "截止时间必须晚于当前时间")
	case errors.Is(err, service.ErrDriveHasApps):
		response.Conflict(c, 14004, "活动已有报名申请，不能删除")
	case errors.Is(err, service.ErrMaxBelowApplied):
		response.BadRequest(c, 14005, "报名上限不能低于已有申请数")
	case errors.Is(err, service.ErrQuestionTypeInvalid):
		response.BadRequest(c, 14006, "问题类型不合法")
	case errors.Is(err, service.ErrQuestionNeedOptions):
		response.BadRequest(c, 14007, "选择类问题至少需要两个选项")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
