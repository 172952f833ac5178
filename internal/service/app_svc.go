package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
)

// 商店列表单页上限，再大就该走搜索
const maxPageSize = 50

// ==================== AppService 应用服务 ====================

// AppService 应用服务：商店目录 + 开发者管理
type AppService struct {
	appRepo    repository.AppRepository
	reviewRepo repository.ReviewRepository
}

// NewAppService 创建应用服务
func NewAppService(appRepo repository.AppRepository, reviewRepo repository.ReviewRepository) *AppService {
	return &AppService{
		appRepo:    appRepo,
		reviewRepo: reviewRepo,
	}
}

// ==================== Slug 生成 ====================

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 标题转 slug：小写、非字母数字折叠为连字符
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ==================== 开发者侧 ====================

// Create 创建应用，直接进入待审核队列
func (s *AppService) Create(ctx context.Context, developerID int64, req *dto.CreateAppRequest) (*model.App, error) {
	slug := Slugify(req.Title)
	if slug == "" {
		return nil, ErrValidation("标题无法生成有效的 slug")
	}

	exists, err := s.appRepo.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict("同名应用已存在")
	}

	app := &model.App{
		DeveloperID: developerID,
		Title:       req.Title,
		Slug:        slug,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Tags:        req.Tags,
		Status:      model.AppStatusReview,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Update 更新应用
// 已上架的应用开发者不能再改，避免审核后偷换内容；管理员不受限
func (s *AppService) Update(ctx context.Context, appID, operatorID int64, isAdmin bool, req *dto.UpdateAppRequest) (*model.App, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound("应用不存在")
	}
	if !isAdmin {
		if app.DeveloperID != operatorID {
			return nil, ErrForbidden("只能修改自己的应用")
		}
		if app.Status == model.AppStatusApproved {
			return nil, ErrForbidden("已上架应用不可修改")
		}
	}

	fields := map[string]interface{}{}
	if req.Title != nil && *req.Title != app.Title {
		slug := Slugify(*req.Title)
		if slug == "" {
			return nil, ErrValidation("标题无法生成有效的 slug")
		}
		if slug != app.Slug {
			exists, err := s.appRepo.ExistsBySlug(ctx, slug)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrConflict("同名应用已存在")
			}
		}
		fields["title"] = *req.Title
		fields["slug"] = slug
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Tags != nil {
		fields["tags"] = pq.StringArray(req.Tags)
	}

	if len(fields) > 0 {
		if err := s.appRepo.UpdateFields(ctx, appID, fields); err != nil {
			return nil, err
		}
	}
	return s.appRepo.GetByID(ctx, appID)
}

// Delete 下架删除应用
func (s *AppService) Delete(ctx context.Context, appID, operatorID int64, isAdmin bool) error {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return err
	}
	if app == nil {
		return ErrNotFound("应用不存在")
	}
	if !isAdmin && app.DeveloperID != operatorID {
		return ErrForbidden("只能删除自己的应用")
	}
	return s.appRepo.Delete(ctx, appID)
}

// MyApps 开发者的全部应用，含未过审的
func (s *AppService) MyApps(ctx context.Context, developerID int64) ([]dto.AppSummary, error) {
	apps, err := s.appRepo.ListByDeveloper(ctx, developerID)
	if err != nil {
		return nil, err
	}
	return s.toSummaries(ctx, apps)
}

// AddVersion 发布新版本，仅限应用归属开发者
func (s *AppService) AddVersion(ctx context.Context, appID, operatorID int64, req *dto.CreateVersionRequest) (*model.AppVersion, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound("应用不存在")
	}
	if app.DeveloperID != operatorID {
		return nil, ErrForbidden("只能为自己的应用发版")
	}
	if req.FileKey == "" && req.FileURL == "" {
		return nil, ErrValidation("file_key 与 file_url 至少提供一个")
	}

	version := &model.AppVersion{
		AppID:     appID,
		Version:   req.Version,
		FileKey:   req.FileKey,
		FileURL:   req.FileURL,
		Changelog: req.Changelog,
		Size:      req.Size,
		Checksum:  req.Checksum,
	}
	if err := s.appRepo.CreateVersion(ctx, version); err != nil {
		return nil, err
	}
	return version, nil
}

// AddScreenshot 追加截图，仅限应用归属开发者
func (s *AppService) AddScreenshot(ctx context.Context, appID, operatorID int64, req *dto.CreateScreenshotRequest) (*model.Screenshot, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound("应用不存在")
	}
	if app.DeveloperID != operatorID {
		return nil, ErrForbidden("只能给自己的应用传截图")
	}

	shot := &model.Screenshot{
		AppID:      appID,
		FileURL:    req.FileURL,
		OrderIndex: req.OrderIndex,
	}
	if err := s.appRepo.CreateScreenshot(ctx, shot); err != nil {
		return nil, err
	}
	return shot, nil
}

// ==================== 商店侧 ====================

// List 商店列表，只展示已上架应用
func (s *AppService) List(ctx context.Context, req *dto.AppListRequest) (*dto.AppListResponse, error) {
	page := req.Page
	if page <= 0 {
		page = 1
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 12
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	apps, total, err := s.appRepo.List(ctx, repository.AppFilter{
		Status:   model.AppStatusApproved,
		Query:    req.Query,
		Category: req.Category,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		SortBy:   req.SortBy,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return nil, err
	}

	summaries, err := s.toSummaries(ctx, apps)
	if err != nil {
		return nil, err
	}

	return &dto.AppListResponse{
		Apps:       summaries,
		Pagination: dto.NewPagination(page, limit, total),
	}, nil
}

// GetBySlug 应用详情页，游客只能看已上架的
func (s *AppService) GetBySlug(ctx context.Context, slug string) (*dto.AppDetail, error) {
	app, err := s.appRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if app == nil || app.Status != model.AppStatusApproved {
		return nil, ErrNotFound("应用不存在")
	}

	summaries, err := s.toSummaries(ctx, []model.App{*app})
	if err != nil {
		return nil, err
	}

	version, err := s.appRepo.LatestVersion(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	if version != nil {
		// 详情页不暴露私有桶 Key
		version.FileKey = ""
	}

	reviews, _, err := s.reviewRepo.ListByApp(ctx, app.ID, 1, 10)
	if err != nil {
		return nil, err
	}

	detail := &dto.AppDetail{
		AppSummary:     summaries[0],
		CurrentVersion: version,
		Reviews:        toReviewInfos(reviews),
	}
	return detail, nil
}

// Categories 已上架应用的分类列表
func (s *AppService) Categories(ctx context.Context) ([]string, error) {
	return s.appRepo.Categories(ctx)
}

// ==================== 视图转换 ====================

// toSummaries 批量组装列表条目，评分统计一次查询带出
func (s *AppService) toSummaries(ctx context.Context, apps []model.App) ([]dto.AppSummary, error) {
	appIDs := make([]int64, 0, len(apps))
	for _, app := range apps {
		appIDs = append(appIDs, app.ID)
	}

	stats, err := s.appRepo.RatingStats(ctx, appIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.AppSummary, 0, len(apps))
	for _, app := range apps {
		summary := dto.AppSummary{
			ID:          app.ID,
			Title:       app.Title,
			Slug:        app.Slug,
			Description: app.Description,
			Category:    app.Category,
			Price:       app.Price,
			Tags:        app.Tags,
			Status:      string(app.Status),
			Screenshots: app.Screenshots,
			CreatedAt:   app.CreatedAt,
		}
		if app.Developer != nil {
			summary.DeveloperName = app.Developer.Username
		}
		if stat, ok := stats[app.ID]; ok {
			avg := stat.AverageRating
			summary.AverageRating = &avg
			summary.TotalReviews = stat.TotalReviews
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func toReviewInfos(reviews []model.Review) []dto.ReviewInfo {
	infos := make([]dto.ReviewInfo, 0, len(reviews))
	for _, review := range reviews {
		info := dto.ReviewInfo{
			ID:        review.ID,
			AppID:     review.AppID,
			UserID:    review.UserID,
			Rating:    review.Rating,
			Text:      review.Text,
			CreatedAt: review.CreatedAt,
		}
		if review.User != nil {
			info.Username = review.User.Username
		}
		infos = append(infos, info)
	}
	return infos
}
