package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/service"
)

type AppController struct {
	appService *service.AppService
}

func NewAppController(appService *service.AppService) *AppController {
	return &AppController{appService: appService}
}

func isAdmin(c *gin.Context) bool {
	return middleware.GetUserRole(c) == string(model.RoleAdmin)
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		BadRequest(c, "无效的 "+name)
		return 0, false
	}
	return id, true
}

// ==================== 商店侧 ====================

// List 商店列表
// @Summary 商店应用列表
// @Tags App
// @Param query query string false "关键词"
// @Param category query string false "分类"
// @Param min_price query number false "最低价"
// @Param max_price query number false "最高价"
// @Param sort_by query string false "排序" Enums(newest, oldest, price-low, price-high, rating)
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(12)
// @Success 200 {object} dto.AppListResponse
// @Router /api/apps [get]
func (ctrl *AppController) List(c *gin.Context) {
	var req dto.AppListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := ctrl.appService.List(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, resp)
}

// GetBySlug 应用详情
// @Summary 应用详情页
// @Tags App
// @Param slug path string true "应用 slug"
// @Success 200 {object} dto.AppDetail
// @Router /api/apps/{slug} [get]
func (ctrl *AppController) GetBySlug(c *gin.Context) {
	detail, err := ctrl.appService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, detail)
}

// Categories 分类列表
// @Summary 已上架应用的分类
// @Tags App
// @Success 200 {array} string
// @Router /api/apps/meta/categories [get]
func (ctrl *AppController) Categories(c *gin.Context) {
	categories, err := ctrl.appService.Categories(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, categories)
}

// ==================== 开发者侧 ====================

// Create 创建应用
// @Summary 创建应用（提交审核）
// @Tags App
// @Security BearerAuth
// @Accept json
// @Param body body dto.CreateAppRequest true "应用信息"
// @Success 201 {object} model.App
// @Router /api/apps [post]
func (ctrl *AppController) Create(c *gin.Context) {
	var req dto.CreateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	app, err := ctrl.appService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, app)
}

// Update 更新应用
// @Summary 更新应用
// @Tags App
// @Security BearerAuth
// @Accept json
// @Param id path int true "应用ID"
// @Param body body dto.UpdateAppRequest true "更新字段"
// @Success 200 {object} model.App
// @Router /api/apps/{id} [put]
func (ctrl *AppController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	app, err := ctrl.appService.Update(c.Request.Context(), id, middleware.GetUserID(c), isAdmin(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, app)
}

// Delete 删除应用
// @Summary 删除应用
// @Tags App
// @Security BearerAuth
// @Param id path int true "应用ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/apps/{id} [delete]
func (ctrl *AppController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.appService.Delete(c.Request.Context(), id, middleware.GetUserID(c), isAdmin(c)); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"deleted": true})
}

// MyApps 我的应用
// @Summary 开发者的应用列表（含未过审）
// @Tags App
// @Security BearerAuth
// @Success 200 {array} dto.AppSummary
// @Router /api/users/my-apps [get]
func (ctrl *AppController) MyApps(c *gin.Context) {
	apps, err := ctrl.appService.MyApps(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, apps)
}

// AddVersion 发布新版本
// @Summary 发布应用新版本
// @Tags App
// @Security BearerAuth
// @Accept json
// @Param id path int true "应用ID"
// @Param body body dto.CreateVersionRequest true "版本信息"
// @Success 201 {object} model.AppVersion
// @Router /api/apps/{id}/versions [post]
func (ctrl *AppController) AddVersion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	version, err := ctrl.appService.AddVersion(c.Request.Context(), id, middleware.GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, version)
}

// AddScreenshot 追加截图
// @Summary 上传应用截图
// @Tags App
// @Security BearerAuth
// @Accept json
// @Param id path int true "应用ID"
// @Param body body dto.CreateScreenshotRequest true "截图信息"
// @Success 201 {object} model.Screenshot
// @Router /api/apps/{id}/screenshots [post]
func (ctrl *AppController) AddScreenshot(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateScreenshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	shot, err := ctrl.appService.AddScreenshot(c.Request.Context(), id, middleware.GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, shot)
}
