package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"clubhub/backend/internal/dto"
	"clubhub/backend/internal/service"
	"clubhub/backend/pkg/response"
)

// ClubHandler 社团模块 HTTP 处理器
type ClubHandler struct {
	clubSvc service.ClubService
}

// NewClubHandler 创建 ClubHandler
func NewClubHandler(clubSvc service.ClubService) *ClubHandler {
	return &ClubHandler{clubSvc: clubSvc}
}

// ListClubs 获取社团列表
// GET /api/v1/clubs?recruitment_status=open&category=xxx
func (h *ClubHandler) ListClubs(c *gin.Context) {
	var req dto.ClubListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	clubs, err := h.clubSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, gin.H{"list": clubs})
}

// GetClub 获取社团详情
// GET /api/v1/clubs/:id
func (h *ClubHandler) GetClub(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "社团ID不能为空")
		return
	}

	club, err := h.clubSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, club)
}

// CreateClub 创建社团（管理员）
// POST /api/v1/clubs
func (h *ClubHandler) CreateClub(c *gin.Context) {
	var req dto.CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	club, err := h.clubSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.Created(c, club)
}

// UpdateClub 更新社团
// PUT /api/v1/clubs/:id
// 管理员可改全部字段；社长仅限自己社团的部分字段（Service 层鉴权）
func (h *ClubHandler) UpdateClub(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "社团ID不能为空")
		return
	}

	var req dto.UpdateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
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

	club, err := h.clubSvc.Update(c.Request.Context(), id, &req, callerID, callerRole)
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, club)
}

// AssignHead 指派社长（管理员）
// PUT /api/v1/clubs/:id/head
func (h *ClubHandler) AssignHead(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "社团ID不能为空")
		return
	}

	var req dto.AssignHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	club, err := h.clubSvc.AssignHead(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, club)
}

// DeleteClub 删除社团（管理员）
// DELETE /api/v1/clubs/:id
func (h *ClubHandler) DeleteClub(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "社团ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.clubSvc.Delete(c.Request.Context(), id, callerID); err != nil {
		h.handleClubError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleClubError 统一处理社团模块业务错误
func (h *ClubHandler) handleClubError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrClubNotFound):
		response.NotFound(c, 13001, "社团不存在")
	case errors.Is(err, service.ErrClubNameExists):
		response.Conflict(c, 13002, "社团名称已存在")
	case errors.Is(err, service.ErrClubHasDrives):
		response.Conflict(c, 13003, "社团仍有纳新活动，不能删除")
	case errors.Is(err, service.ErrHeadNotFound):
		response.NotFound(c, 13004, "指派的社长不存在")
	case errors.Is(err, service.ErrHeadRoleInvalid):
		response.BadRequest(c, 13005, "指派的用户不是社长角色")
	case errors.Is(err, service.ErrHeadAlreadyAssigned):
		response.Conflict(c, 13006, "该社长已负责其他社团")
	case errors.Is(err, service.ErrMaxBelowCurrent):
		response.BadRequest(c, 13007, "成员上限不能低于当前成员数")
	case errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
