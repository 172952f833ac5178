package service

import (
	"context"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
)

// ==================== AdminService 管理服务 ====================

// AdminService 管理服务：审核队列、运营看板、用户管理
type AdminService struct {
	userRepo     repository.UserRepository
	appRepo      repository.AppRepository
	purchaseRepo repository.PurchaseRepository
	appSvc       *AppService
}

// NewAdminService 创建管理服务
func NewAdminService(
	userRepo repository.UserRepository,
	appRepo repository.AppRepository,
	purchaseRepo repository.PurchaseRepository,
	appSvc *AppService,
) *AdminService {
	return &AdminService{
		userRepo:     userRepo,
		appRepo:      appRepo,
		purchaseRepo: purchaseRepo,
		appSvc:       appSvc,
	}
}

// ==================== 运营看板 ====================

// Stats 运营看板统计
func (s *AdminService) Stats(ctx context.Context) (*dto.AdminStats, error) {
	stats := &dto.AdminStats{}
	var err error

	if stats.Users.Total, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Users.Developers, err = s.userRepo.CountByRole(ctx, model.RoleDeveloper); err != nil {
		return nil, err
	}
	if stats.Apps.Total, err = s.appRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Apps.Approved, err = s.appRepo.CountByStatus(ctx, model.AppStatusApproved); err != nil {
		return nil, err
	}
	if stats.Apps.Pending, err = s.appRepo.CountByStatus(ctx, model.AppStatusReview); err != nil {
		return nil, err
	}
	if stats.Purchases.Total, err = s.purchaseRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Purchases.Revenue, err = s.purchaseRepo.SumAmount(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

// ==================== 应用审核 ====================

// PendingApps 待审核队列，先进先出
func (s *AdminService) PendingApps(ctx context.Context, page, limit int) (*dto.AppListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	apps, total, err := s.appRepo.ListByStatus(ctx, model.AppStatusReview, page, limit)
	if err != nil {
		return nil, err
	}

	summaries, err := s.appSvc.toSummaries(ctx, apps)
	if err != nil {
		return nil, err
	}

	return &dto.AppListResponse{
		Apps:       summaries,
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

// UpdateAppStatus 审核应用
// 只接受 REVIEW -> APPROVED / REJECTED，终态不可再改
func (s *AdminService) UpdateAppStatus(ctx context.Context, appID int64, req *dto.UpdateAppStatusRequest) (*model.App, error) {
	status := model.AppStatus(req.Status)
	if status != model.AppStatusApproved && status != model.AppStatusRejected {
		return nil, ErrValidation("状态只能是 APPROVED 或 REJECTED")
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound("应用不存在")
	}
	if app.Status != model.AppStatusReview {
		return nil, ErrConflict("应用不在待审核状态")
	}

	if err := s.appRepo.UpdateFields(ctx, appID, map[string]interface{}{
		"status": status,
	}); err != nil {
		return nil, err
	}

	app.Status = status
	return app, nil
}

// ==================== 用户管理 ====================

// ListUsers 用户管理列表，应用/购买数分组一次带出
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) (*dto.AdminUserListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	users, total, err := s.userRepo.List(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	userIDs := make([]int64, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}

	appCounts, err := s.appRepo.CountGroupByDeveloper(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	purchaseCounts, err := s.purchaseRepo.CountGroupByUser(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.AdminUserInfo, 0, len(users))
	for _, user := range users {
		infos = append(infos, dto.AdminUserInfo{
			ID:            user.ID,
			Username:      user.Username,
			Email:         user.Email,
			Role:          string(user.Role),
			IsActive:      user.IsActive,
			AppCount:      appCounts[user.ID],
			PurchaseCount: purchaseCounts[user.ID],
			CreatedAt:     user.CreatedAt,
		})
	}

	return &dto.AdminUserListResponse{
		Users:      infos,
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

// DeleteUser 删除用户（软删），管理员不能删自己
func (s *AdminService) DeleteUser(ctx context.Context, targetID, operatorID int64) error {
	if targetID == operatorID {
		return ErrValidation("不能删除自己")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound("用户不存在")
	}

	return s.userRepo.Delete(ctx, targetID)
}
