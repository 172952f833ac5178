package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/service"
)

type ReviewController struct {
	reviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

// Create 发表评价
// @Summary 发表评价（需已购买）
// @Tags Review
// @Security BearerAuth
// @Accept json
// @Param body body dto.CreateReviewRequest true "评价内容"
// @Success 201 {object} dto.ReviewInfo
// @Router /api/reviews [post]
func (ctrl *ReviewController) Create(c *gin.Context) {
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	info, err := ctrl.reviewService.Create(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, info)
}

// Update 修改评价
// @Summary 修改自己的评价
// @Tags Review
// @Security BearerAuth
// @Accept json
// @Param id path int true "评价ID"
// @Param body body dto.UpdateReviewRequest true "评价内容"
// @Success 200 {object} dto.ReviewInfo
// @Router /api/reviews/{id} [put]
func (ctrl *ReviewController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	info, err := ctrl.reviewService.Update(c.Request.Context(), id, middleware.GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, info)
}

// Delete 删除评价
// @Summary 删除评价（作者或管理员）
// @Tags Review
// @Security BearerAuth
// @Param id path int true "评价ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/reviews/{id} [delete]
func (ctrl *ReviewController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.reviewService.Delete(c.Request.Context(), id, middleware.GetUserID(c), isAdmin(c)); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"deleted": true})
}

// ListByApp 应用评价列表
// @Summary 某应用的评价列表
// @Tags Review
// @Param app_id path int true "应用ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} dto.ReviewListResponse
// @Router /api/reviews/app/{app_id} [get]
func (ctrl *ReviewController) ListByApp(c *gin.Context) {
	appID, ok := parseID(c, "app_id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	resp, err := ctrl.reviewService.ListByApp(c.Request.Context(), appID, page, limit)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, resp)
}
