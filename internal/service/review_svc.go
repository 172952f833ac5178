package service

import (
	"context"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
)

// ==================== ReviewService 评价服务 ====================

// ReviewService 评价服务，只有买过的用户才能评
type ReviewService struct {
	reviewRepo   repository.ReviewRepository
	appRepo      repository.AppRepository
	purchaseRepo repository.PurchaseRepository
}

// NewReviewService 创建评价服务
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	appRepo repository.AppRepository,
	purchaseRepo repository.PurchaseRepository,
) *ReviewService {
	return &ReviewService{
		reviewRepo:   reviewRepo,
		appRepo:      appRepo,
		purchaseRepo: purchaseRepo,
	}
}

// Create 发表评价
// 门槛两道：必须持有应用；一人一评
func (s *ReviewService) Create(ctx context.Context, userID int64, req *dto.CreateReviewRequest) (*dto.ReviewInfo, error) {
	app, err := s.appRepo.GetByID(ctx, req.AppID)
	if err != nil {
		return nil, err
	}
	if app == nil || app.Status != model.AppStatusApproved {
		return nil, ErrNotFound("应用不存在或未上架")
	}

	owned, err := s.purchaseRepo.Exists(ctx, userID, req.AppID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrForbidden("购买后才能评价")
	}

	exists, err := s.reviewRepo.Exists(ctx, userID, req.AppID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict("已评价过该应用")
	}

	review := &model.Review{
		UserID: userID,
		AppID:  req.AppID,
		Rating: req.Rating,
		Text:   req.Text,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	// 读回带 User 关联的完整行
	created, err := s.reviewRepo.GetByID(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	infos := toReviewInfos([]model.Review{*created})
	return &infos[0], nil
}

// Update 修改评价，只有作者本人可以
func (s *ReviewService) Update(ctx context.Context, reviewID, userID int64, req *dto.UpdateReviewRequest) (*dto.ReviewInfo, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrNotFound("评价不存在")
	}
	if review.UserID != userID {
		return nil, ErrForbidden("只能修改自己的评价")
	}

	if err := s.reviewRepo.Update(ctx, reviewID, map[string]interface{}{
		"rating": req.Rating,
		"text":   req.Text,
	}); err != nil {
		return nil, err
	}

	updated, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	infos := toReviewInfos([]model.Review{*updated})
	return &infos[0], nil
}

// Delete 删除评价，作者本人或管理员
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID int64, isAdmin bool) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrNotFound("评价不存在")
	}
	if !isAdmin && review.UserID != userID {
		return ErrForbidden("只能删除自己的评价")
	}
	return s.reviewRepo.Delete(ctx, reviewID)
}

// ListByApp 应用评价列表
func (s *ReviewService) ListByApp(ctx context.Context, appID int64, page, limit int) (*dto.ReviewListResponse, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound("应用不存在")
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	reviews, total, err := s.reviewRepo.ListByApp(ctx, appID, page, limit)
	if err != nil {
		return nil, err
	}

	return &dto.ReviewListResponse{
		Reviews:    toReviewInfos(reviews),
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}
