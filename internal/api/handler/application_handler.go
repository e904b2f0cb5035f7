package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/service"
	"clubhub/backend/pkg/response"
)

// ApplicationHandler 报名申请模块 HTTP 处理器
type ApplicationHandler struct {
	appSvc service.ApplicationService
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(appSvc service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appSvc: appSvc}
}

// SubmitApplication 学生提交报名
// POST /api/v1/applications
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	app, err := h.appSvc.Submit(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.Created(c, app)
}

// GetApplication 获取申请详情（本人、归属社长或管理员）
// GET /api/v1/applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	callerRole, ok := MustGetRole(c)
	if !ok {
		return
	}

	app, err := h.appSvc.GetByID(c.Request.Context(), id, callerID, callerRole)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, app)
}

// ListMyApplications 学生查看自己的报名记录
// GET /api/v1/applications/mine
func (h *ApplicationHandler) ListMyApplications(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	apps, err := h.appSvc.ListMine(c.Request.Context(), callerID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": apps})
}

// ListClubApplications 社长分页查看本社团收到的申请
// GET /api/v1/applications?drive_id=xxx&status=pending&page=1
func (h *ApplicationHandler) ListClubApplications(c *gin.Context) {
	var req dto.ApplicationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	apps, total, err := h.appSvc.ListForClub(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OKPage(c, apps, total, req.GetPage(), req.GetPageSize())
}

// UpdateApplicationStatus 社长审核单条申请
// PUT /api/v1/applications/:id/status
func (h *ApplicationHandler) UpdateApplicationStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "申请ID不能为空")
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	app, err := h.appSvc.UpdateStatus(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, app)
}

// BulkUpdateStatus 社长批量审核（整批成功或整批失败）
// PUT /api/v1/applications/status
func (h *ApplicationHandler) BulkUpdateStatus(c *gin.Context) {
	var req dto.BulkUpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.appSvc.BulkUpdateStatus(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, result)
}

// handleApplicationError 统一处理报名申请模块业务错误
func (h *ApplicationHandler) handleApplicationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		response.NotFound(c, 15001, "报名申请不存在")
	case errors.Is(err, service.ErrDriveNotFound):
		response.NotFound(c, 14001, "纳新活动不存在")
	case errors.Is(err, service.ErrDriveClosed):
		response.BadRequest(c, 15002, "活动已停用或已过截止时间")
	case errors.Is(err, service.ErrAlreadyApplied):
		response.Conflict(c, 15003, "已报名该活动，不能重复提交")
	case errors.Is(err, service.ErrDriveFull):
		response.Conflict(c, 15004, "活动报名名额已满")
	case errors.Is(err, service.ErrClubFull):
		response.Conflict(c, 15005, "社团成员已满，无法录取")
	case errors.Is(err, service.ErrUnknownQuestion):
		response.BadRequest(c, 15006, "答案包含未知问题")
	case errors.Is(err, service.ErrRequiredAnswerMissing):
		response.BadRequest(c, 15007, "必答问题未作答")
	case errors.Is(err, service.ErrStatusTerminal):
		response.Conflict(c, 15008, "申请已是终态，不可再变更")
	case errors.Is(err, service.ErrIllegalTransition):
		response.BadRequest(c, 15009, "不允许的状态迁移")
	case errors.Is(err, service.ErrConcurrentUpdate):
		response.Conflict(c, 15010, "申请已被并发修改，请刷新后重试")
	case errors.Is(err, service.ErrNoOwnedClub):
		response.Forbidden(c, 14002, "当前用户未负责任何社团")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
