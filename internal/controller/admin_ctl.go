package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/service"
)

type AdminController struct {
	adminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

// Stats 运营看板
// @Summary 运营统计数据
// @Tags Admin
// @Security BearerAuth
// @Success 200 {object} dto.AdminStats
// @Router /api/admin/stats [get]
func (ctrl *AdminController) Stats(c *gin.Context) {
	stats, err := ctrl.adminService.Stats(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, stats)
}

// PendingApps 审核队列
// @Summary 待审核应用列表
// @Tags Admin
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} dto.AppListResponse
// @Router /api/admin/apps/pending [get]
func (ctrl *AdminController) PendingApps(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	resp, err := ctrl.adminService.PendingApps(c.Request.Context(), page, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, resp)
}

// UpdateAppStatus 审核应用
// @Summary 审核应用（通过/驳回）
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Param id path int true "应用ID"
// @Param body body dto.UpdateAppStatusRequest true "目标状态"
// @Success 200 {object} model.App
// @Router /api/admin/apps/{id}/status [put]
func (ctrl *AdminController) UpdateAppStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAppStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	app, err := ctrl.adminService.UpdateAppStatus(c.Request.Context(), id, &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, app)
}

// ListUsers 用户管理列表
// @Summary 用户列表
// @Tags Admin
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} dto.AdminUserListResponse
// @Router /api/admin/users [get]
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := ctrl.adminService.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, resp)
}

// DeleteUser 删除用户
// @Summary 删除用户
// @Tags Admin
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/users/{id} [delete]
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.adminService.DeleteUser(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"deleted": true})
}
