package controller

import (
	"github.com/gin-gonic/gin"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/service"
)

type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// GetProfile 个人资料
// @Summary 获取当前用户资料
// @Tags User
// @Security BearerAuth
// @Success 200 {object} dto.ProfileInfo
// @Router /api/users/profile [get]
func (ctrl *UserController) GetProfile(c *gin.Context) {
	profile, err := ctrl.userService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, profile)
}

// UpdateProfile 更新资料
// @Summary 更新当前用户资料
// @Tags User
// @Security BearerAuth
// @Accept json
// @Param body body dto.UpdateProfileRequest true "资料"
// @Success 200 {object} dto.UserInfo
// @Router /api/users/profile [put]
func (ctrl *UserController) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	info, err := ctrl.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, info)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags User
// @Security BearerAuth
// @Accept json
// @Param body body dto.ChangePasswordRequest true "新旧密码"
// @Success 200 {object} map[string]interface{}
// @Router /api/users/password [put]
func (ctrl *UserController) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.userService.ChangePassword(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"changed": true})
}

// UpgradeToDeveloper 升级开发者
// @Summary 升级为开发者账号
// @Tags User
// @Security BearerAuth
// @Success 200 {object} dto.UserInfo
// @Router /api/users/upgrade-to-developer [post]
func (ctrl *UserController) UpgradeToDeveloper(c *gin.Context) {
	info, err := ctrl.userService.UpgradeToDeveloper(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, info)
}
