package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
)

// ==================== 测试辅助 ====================

func setupAppSvcTest(t *testing.T) (*AppService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{}, &model.App{}, &model.AppVersion{},
		&model.Screenshot{}, &model.Purchase{}, &model.Review{},
	); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	svc := NewAppService(repository.NewAppRepository(db), repository.NewReviewRepository(db))
	return svc, db
}

func seedDeveloper(t *testing.T, db *gorm.DB, name string) *model.User {
	dev := &model.User{Username: name, Email: name + "@test.com", Password: "x", Role: model.RoleDeveloper, IsActive: true}
	if err := db.Create(dev).Error; err != nil {
		t.Fatalf("创建开发者失败: %v", err)
	}
	return dev
}

// ==================== Slug ====================

func TestSlugify(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"My Cool App", "my-cool-app"},
		{"App  2.0 (Beta)", "app-2-0-beta"},
		{"--Edge--", "edge"},
		{"中文标题", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.title); got != tc.want {
			t.Errorf("Slugify(%q) = %q, 期望 %q", tc.title, got, tc.want)
		}
	}
}

// ==================== 创建 ====================

func TestCreate_EntersReviewQueue(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	ctx := context.Background()
	dev := seedDeveloper(t, db, "dev")

	app, err := svc.Create(ctx, dev.ID, &dto.CreateAppRequest{
		Title:       "My Cool App",
		Description: "一个很酷的测试应用",
		Category:    "tools",
		Price:       4.99,
		Tags:        []string{"cool", "tool"},
	})
	if err != nil {
		t.Fatalf("创建应用失败: %v", err)
	}
	if app.Slug != "my-cool-app" {
		t.Errorf("slug 应为 my-cool-app, 实际 %s", app.Slug)
	}
	if app.Status != model.AppStatusReview {
		t.Errorf("新应用应进入待审核, 实际 %s", app.Status)
	}
}

func TestCreate_SlugConflict(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	ctx := context.Background()
	dev := seedDeveloper(t, db, "dev")

	req := &dto.CreateAppRequest{Title: "My Cool App", Description: "一个很酷的测试应用", Category: "tools"}
	if _, err := svc.Create(ctx, dev.ID, req); err != nil {
		t.Fatalf("首次创建失败: %v", err)
	}

	// 标题不同但 slug 撞车
	req2 := &dto.CreateAppRequest{Title: "My  Cool  App!", Description: "撞 slug 的另一个应用", Category: "tools"}
	if _, err := svc.Create(ctx, dev.ID, req2); KindOf(err) != ErrKindConflict {
		t.Errorf("slug 撞车应报 Conflict, 实际: %v", err)
	}
}

// ==================== 更新 ====================

func TestUpdate_Permissions(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	ctx := context.Background()
	dev := seedDeveloper(t, db, "dev")
	other := seedDeveloper(t, db, "other")

	app, err := svc.Create(ctx, dev.ID, &dto.CreateAppRequest{Title: "Target App", Description: "权限测试应用", Category: "tools"})
	if err != nil {
		t.Fatalf("创建应用失败: %v", err)
	}

	newDesc := "改过一轮的描述内容"

	// 别人改不了
	if _, err := svc.Update(ctx, app.ID, other.ID, false, &dto.UpdateAppRequest{Description: &newDesc}); KindOf(err) != ErrKindForbidden {
		t.Errorf("非归属开发者更新应报 Forbidden, 实际: %v", err)
	}

	// 本人在审核期可以改
	updated, err := svc.Update(ctx, app.ID, dev.ID, false, &dto.UpdateAppRequest{Description: &newDesc})
	if err != nil {
		t.Fatalf("归属开发者更新失败: %v", err)
	}
	if updated.Description != newDesc {
		t.Errorf("描述未更新: %s", updated.Description)
	}

	// 上架后本人也不能再改
	db.Model(&model.App{}).Where("id = ?", app.ID).Update("status", model.AppStatusApproved)
	if _, err := svc.Update(ctx, app.ID, dev.ID, false, &dto.UpdateAppRequest{Description: &newDesc}); KindOf(err) != ErrKindForbidden {
		t.Errorf("已上架应用开发者更新应报 Forbidden, 实际: %v", err)
	}

	// 管理员不受限
	if _, err := svc.Update(ctx, app.ID, other.ID, true, &dto.UpdateAppRequest{Description: &newDesc}); err != nil {
		t.Errorf("管理员更新不应受限: %v", err)
	}
}

// ==================== 商店列表 ====================

func seedCatalog(t *testing.T, svc *AppService, db *gorm.DB) {
	dev := seedDeveloper(t, db, "catalog-dev")
	ctx := context.Background()

	apps := []struct {
		title    string
		category string
		price    float64
	}{
		{"Alpha Editor", "tools", 0},
		{"Beta Game", "games", 4.99},
		{"Gamma Notes", "tools", 9.99},
	}
	for _, a := range apps {
		app, err := svc.Create(ctx, dev.ID, &dto.CreateAppRequest{
			Title:       a.title,
			Description: a.title + " 的描述文本",
			Category:    a.category,
			Price:       a.price,
		})
		if err != nil {
			t.Fatalf("创建 %s 失败: %v", a.title, err)
		}
		db.Model(&model.App{}).Where("id = ?", app.ID).Update("status", model.AppStatusApproved)
	}

	// 一个未过审的不应出现在商店里
	if _, err := svc.Create(ctx, dev.ID, &dto.CreateAppRequest{Title: "Hidden App", Description: "未过审的隐藏应用", Category: "tools"}); err != nil {
		t.Fatalf("创建隐藏应用失败: %v", err)
	}
}

func TestList_OnlyApproved(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	seedCatalog(t, svc, db)

	resp, err := svc.List(context.Background(), &dto.AppListRequest{})
	if err != nil {
		t.Fatalf("查询商店列表失败: %v", err)
	}
	if resp.Pagination.Total != 3 {
		t.Errorf("商店应只展示 3 个已上架应用, 实际 %d", resp.Pagination.Total)
	}
	for _, app := range resp.Apps {
		if app.Status != string(model.AppStatusApproved) {
			t.Errorf("商店列表混入未上架应用: %+v", app)
		}
	}
}

func TestList_Filters(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	seedCatalog(t, svc, db)
	ctx := context.Background()

	// 分类过滤
	resp, err := svc.List(ctx, &dto.AppListRequest{Category: "games"})
	if err != nil {
		t.Fatalf("分类过滤失败: %v", err)
	}
	if resp.Pagination.Total != 1 || resp.Apps[0].Title != "Beta Game" {
		t.Errorf("分类过滤结果不符: %+v", resp.Apps)
	}

	// 关键词（大小写不敏感）
	resp, err = svc.List(ctx, &dto.AppListRequest{Query: "alpha"})
	if err != nil {
		t.Fatalf("关键词搜索失败: %v", err)
	}
	if resp.Pagination.Total != 1 || resp.Apps[0].Title != "Alpha Editor" {
		t.Errorf("关键词搜索结果不符: %+v", resp.Apps)
	}

	// 价格区间
	min := 1.0
	resp, err = svc.List(ctx, &dto.AppListRequest{MinPrice: &min})
	if err != nil {
		t.Fatalf("价格过滤失败: %v", err)
	}
	if resp.Pagination.Total != 2 {
		t.Errorf("价格 >= 1 的应用应有 2 个, 实际 %d", resp.Pagination.Total)
	}

	// 价格排序
	resp, err = svc.List(ctx, &dto.AppListRequest{SortBy: "price-high"})
	if err != nil {
		t.Fatalf("价格排序失败: %v", err)
	}
	if resp.Apps[0].Title != "Gamma Notes" {
		t.Errorf("价格降序第一个应为 Gamma Notes, 实际 %s", resp.Apps[0].Title)
	}
}

func TestList_RatingSortAndStats(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	seedCatalog(t, svc, db)
	ctx := context.Background()

	var alpha, gamma model.App
	db.Where("slug = ?", "alpha-editor").First(&alpha)
	db.Where("slug = ?", "gamma-notes").First(&gamma)

	user := &model.User{Username: "rater", Email: "rater@test.com", Password: "x", Role: model.RoleUser, IsActive: true}
	db.Create(user)
	user2 := &model.User{Username: "rater2", Email: "rater2@test.com", Password: "x", Role: model.RoleUser, IsActive: true}
	db.Create(user2)

	db.Create(&model.Review{UserID: user.ID, AppID: alpha.ID, Rating: 2, Text: "一般般的使用体验"})
	db.Create(&model.Review{UserID: user.ID, AppID: gamma.ID, Rating: 5, Text: "非常好用强烈推荐"})
	db.Create(&model.Review{UserID: user2.ID, AppID: gamma.ID, Rating: 4, Text: "不错但还有提升空间"})

	resp, err := svc.List(ctx, &dto.AppListRequest{SortBy: "rating"})
	if err != nil {
		t.Fatalf("评分排序失败: %v", err)
	}
	if resp.Apps[0].Title != "Gamma Notes" {
		t.Errorf("评分最高的应排第一, 实际 %s", resp.Apps[0].Title)
	}

	// 聚合数据随列表带出
	for _, app := range resp.Apps {
		if app.Title == "Gamma Notes" {
			if app.AverageRating == nil || *app.AverageRating != 4.5 {
				t.Errorf("Gamma Notes 平均分应为 4.5, 实际 %v", app.AverageRating)
			}
			if app.TotalReviews != 2 {
				t.Errorf("Gamma Notes 评价数应为 2, 实际 %d", app.TotalReviews)
			}
		}
		if app.Title == "Beta Game" && app.AverageRating != nil {
			t.Errorf("无评价应用平均分应为空, 实际 %v", *app.AverageRating)
		}
	}
}

func TestList_PageSizeCap(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	seedCatalog(t, svc, db)

	resp, err := svc.List(context.Background(), &dto.AppListRequest{Limit: 500})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if resp.Pagination.Limit != maxPageSize {
		t.Errorf("limit 应被压到 %d, 实际 %d", maxPageSize, resp.Pagination.Limit)
	}
}

// ==================== 详情 ====================

func TestGetBySlug(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	seedCatalog(t, svc, db)
	ctx := context.Background()

	var alpha model.App
	db.Where("slug = ?", "alpha-editor").First(&alpha)
	db.Create(&model.AppVersion{AppID: alpha.ID, Version: "1.2.0", FileKey: "apps/alpha/1.2.0.zip", FileURL: "", Size: 2048})

	detail, err := svc.GetBySlug(ctx, "alpha-editor")
	if err != nil {
		t.Fatalf("查询详情失败: %v", err)
	}
	if detail.CurrentVersion == nil || detail.CurrentVersion.Version != "1.2.0" {
		t.Errorf("当前版本不符: %+v", detail.CurrentVersion)
	}
	if detail.CurrentVersion.FileKey != "" {
		t.Error("详情页不应暴露私有桶 Key")
	}

	// 未过审的详情页 404
	if _, err := svc.GetBySlug(ctx, "hidden-app"); KindOf(err) != ErrKindNotFound {
		t.Errorf("未过审应用详情应报 NotFound, 实际: %v", err)
	}

	if _, err := svc.GetBySlug(ctx, "no-such-app"); KindOf(err) != ErrKindNotFound {
		t.Errorf("不存在的应用应报 NotFound, 实际: %v", err)
	}
}

// ==================== 分类 ====================

func TestCategories(t *testing.T) {
	svc, db := setupAppSvcTest(t)
	seedCatalog(t, svc, db)

	categories, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("查询分类失败: %v", err)
	}
	// hidden-app 是 tools 但未过审，不影响结果
	if len(categories) != 2 || categories[0] != "games" || categories[1] != "tools" {
		t.Errorf("分类应为 [games tools], 实际 %v", categories)
	}
}
