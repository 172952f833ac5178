package dto

import "time"

// ==================== 请求 ====================

// UpdateAppStatusRequest 审核请求，只认 APPROVED / REJECTED
type UpdateAppStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ==================== 响应 ====================

// AdminStats 运营看板统计
type AdminStats struct {
	Users struct {
		Total      int64 `json:"total"`
		Developers int64 `json:"developers"`
	} `json:"users"`
	Apps struct {
		Total    int64 `json:"total"`
		Approved int64 `json:"approved"`
		Pending  int64 `json:"pending"`
	} `json:"apps"`
	Purchases struct {
		Total   int64   `json:"total"`
		Revenue float64 `json:"revenue"`
	} `json:"purchases"`
}

// AdminUserInfo 用户管理列表条目
type AdminUserInfo struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"is_active"`
	AppCount      int64     `json:"app_count"`
	PurchaseCount int64     `json:"purchase_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// AdminUserListResponse 用户管理列表响应
type AdminUserListResponse struct {
	Users      []AdminUserInfo `json:"users"`
	Pagination Pagination      `json:"pagination"`
}
