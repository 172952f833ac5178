package controller

import (
	"github.com/gin-gonic/gin"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/service"
)

type AuthController struct {
	userService *service.UserService
}

func NewAuthController(userService *service.UserService) *AuthController {
	return &AuthController{userService: userService}
}

// Register 注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.LoginResponse
// @Router /api/auth/register [post]
func (ctrl *AuthController) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := ctrl.userService.Register(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, resp)
}

// Login 登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.LoginResponse
// @Router /api/auth/login [post]
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := ctrl.userService.Login(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, resp)
}

// Refresh 刷新 Token
// @Summary 刷新访问令牌
// @Tags Auth
// @Accept json
// @Param body body dto.RefreshTokenRequest true "Refresh Token"
// @Success 200 {object} dto.RefreshTokenResponse
// @Router /api/auth/refresh [post]
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	resp, err := ctrl.userService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, resp)
}
