package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/service"
)

// 同一用户开单冷却窗口
const intentCooldown = 3 * time.Second

type PurchaseController struct {
	purchaseService *service.PurchaseService
}

func NewPurchaseController(purchaseService *service.PurchaseService) *PurchaseController {
	return &PurchaseController{purchaseService: purchaseService}
}

// CreateIntent 开支付单
// @Summary 创建支付意向
// @Tags Purchase
// @Security BearerAuth
// @Accept json
// @Param body body dto.CreateIntentRequest true "应用ID"
// @Success 200 {object} dto.CreateIntentResponse
// @Router /api/purchases/intent [post]
func (ctrl *PurchaseController) CreateIntent(c *gin.Context) {
	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	userID := middleware.GetUserID(c)

	// 连点保护，免得渠道侧刷出一堆空挂意向
	key := fmt.Sprintf("purchase_intent:%d", userID)
	if result := middleware.GetLimiter().Check(key, intentCooldown); !result.Allowed {
		c.Header("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"message": "操作过于频繁，请稍后再试",
		})
		return
	}

	resp, err := ctrl.purchaseService.CreateIntent(c.Request.Context(), userID, &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, resp)
}

// Confirm 确认购买
// @Summary 确认购买（支付完成后回调）
// @Tags Purchase
// @Security BearerAuth
// @Accept json
// @Param body body dto.ConfirmPurchaseRequest true "支付单号"
// @Success 200 {object} dto.PurchaseInfo
// @Router /api/purchases/confirm [post]
func (ctrl *PurchaseController) Confirm(c *gin.Context) {
	var req dto.ConfirmPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	info, err := ctrl.purchaseService.Confirm(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, info)
}

// List 我的购买记录
// @Summary 当前用户的购买记录
// @Tags Purchase
// @Security BearerAuth
// @Success 200 {array} dto.PurchaseInfo
// @Router /api/purchases [get]
func (ctrl *PurchaseController) List(c *gin.Context) {
	infos, err := ctrl.purchaseService.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, infos)
}

// CheckOwnership 持有检查
// @Summary 是否已拥有应用
// @Tags Purchase
// @Security BearerAuth
// @Param app_id path int true "应用ID"
// @Success 200 {object} dto.OwnershipInfo
// @Router /api/purchases/check/{app_id} [get]
func (ctrl *PurchaseController) CheckOwnership(c *gin.Context) {
	appID, ok := parseID(c, "app_id")
	if !ok {
		return
	}

	owned, err := ctrl.purchaseService.Owns(c.Request.Context(), middleware.GetUserID(c), appID)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, dto.OwnershipInfo{Owned: owned})
}

// Download 下载授权
// @Summary 获取应用下载链接
// @Tags Purchase
// @Security BearerAuth
// @Param app_id path int true "应用ID"
// @Success 200 {object} dto.DownloadInfo
// @Router /api/purchases/download/{app_id} [get]
func (ctrl *PurchaseController) Download(c *gin.Context) {
	appID, ok := parseID(c, "app_id")
	if !ok {
		return
	}

	info, err := ctrl.purchaseService.Download(c.Request.Context(), middleware.GetUserID(c), appID)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, info)
}
