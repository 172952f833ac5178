package controller

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"appstore_v1_202609/internal/service"
)

// ==================== 统一响应 ====================

// OK 成功响应
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
	})
}

// Fail 业务错误响应，按错误类别映射 HTTP 状态码
func Fail(c *gin.Context, err error) {
	var status int
	message := "服务器内部错误"

	switch service.KindOf(err) {
	case service.ErrKindValidation:
		status = http.StatusBadRequest
		message = err.Error()
	case service.ErrKindNotFound:
		status = http.StatusNotFound
		message = err.Error()
	case service.ErrKindForbidden:
		status = http.StatusForbidden
		message = err.Error()
	case service.ErrKindConflict:
		status = http.StatusConflict
		message = err.Error()
	case service.ErrKindUpstream:
		status = http.StatusBadGateway
		message = err.Error()
	default:
		status = http.StatusInternalServerError
		log.Printf("未分类错误: %v", err)
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
