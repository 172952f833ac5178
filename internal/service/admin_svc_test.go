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

func setupAdminSvcTest(t *testing.T) (*AdminService, *gorm.DB) {
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

	appRepo := repository.NewAppRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	svc := NewAdminService(
		repository.NewUserRepository(db),
		appRepo,
		repository.NewPurchaseRepository(db),
		NewAppService(appRepo, reviewRepo),
	)
	return svc, db
}

func seedAdminScene(t *testing.T, db *gorm.DB) (admin *model.User, pending *model.App) {
	admin = &model.User{Username: "admin", Email: "admin@test.com", Password: "x", Role: model.RoleAdmin, IsActive: true}
	dev := &model.User{Username: "dev", Email: "dev@test.com", Password: "x", Role: model.RoleDeveloper, IsActive: true}
	buyer := &model.User{Username: "buyer", Email: "buyer@test.com", Password: "x", Role: model.RoleUser, IsActive: true}
	for _, u := range []*model.User{admin, dev, buyer} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("创建用户失败: %v", err)
		}
	}

	pending = &model.App{DeveloperID: dev.ID, Title: "Pending App", Slug: "pending-app", Description: "待审核测试应用", Category: "tools", Price: 9.99, Status: model.AppStatusReview}
	approved := &model.App{DeveloperID: dev.ID, Title: "Live App", Slug: "live-app", Description: "已上架测试应用", Category: "tools", Price: 4.99, Status: model.AppStatusApproved}
	for _, a := range []*model.App{pending, approved} {
		if err := db.Create(a).Error; err != nil {
			t.Fatalf("创建应用失败: %v", err)
		}
	}

	if err := db.Create(&model.Purchase{UserID: buyer.ID, AppID: approved.ID, Amount: 4.99, ProviderPaymentID: "pi_x"}).Error; err != nil {
		t.Fatalf("创建购买记录失败: %v", err)
	}
	return admin, pending
}

// ==================== 审核 ====================

func TestUpdateAppStatus_Transitions(t *testing.T) {
	svc, db := setupAdminSvcTest(t)
	ctx := context.Background()
	_, pending := seedAdminScene(t, db)

	// 非法目标状态
	if _, err := svc.UpdateAppStatus(ctx, pending.ID, &dto.UpdateAppStatusRequest{Status: "DRAFT"}); KindOf(err) != ErrKindValidation {
		t.Errorf("非法状态应报 Validation, 实际: %v", err)
	}

	// 正常过审
	app, err := svc.UpdateAppStatus(ctx, pending.ID, &dto.UpdateAppStatusRequest{Status: "APPROVED"})
	if err != nil {
		t.Fatalf("审核通过失败: %v", err)
	}
	if app.Status != model.AppStatusApproved {
		t.Errorf("状态应为 APPROVED, 实际 %s", app.Status)
	}

	// 终态不可再改
	if _, err := svc.UpdateAppStatus(ctx, pending.ID, &dto.UpdateAppStatusRequest{Status: "REJECTED"}); KindOf(err) != ErrKindConflict {
		t.Errorf("终态再审应报 Conflict, 实际: %v", err)
	}

	// 不存在的应用
	if _, err := svc.UpdateAppStatus(ctx, 9999, &dto.UpdateAppStatusRequest{Status: "APPROVED"}); KindOf(err) != ErrKindNotFound {
		t.Errorf("不存在应用审核应报 NotFound, 实际: %v", err)
	}
}

func TestPendingApps(t *testing.T) {
	svc, db := setupAdminSvcTest(t)
	ctx := context.Background()
	seedAdminScene(t, db)

	resp, err := svc.PendingApps(ctx, 1, 10)
	if err != nil {
		t.Fatalf("查询审核队列失败: %v", err)
	}
	if resp.Pagination.Total != 1 || resp.Apps[0].Slug != "pending-app" {
		t.Errorf("审核队列应只有待审核应用, 实际: %+v", resp.Apps)
	}
}

// ==================== 看板 ====================

func TestStats(t *testing.T) {
	svc, db := setupAdminSvcTest(t)
	ctx := context.Background()
	seedAdminScene(t, db)

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("查询统计失败: %v", err)
	}
	if stats.Users.Total != 3 || stats.Users.Developers != 1 {
		t.Errorf("用户统计不符: %+v", stats.Users)
	}
	if stats.Apps.Total != 2 || stats.Apps.Approved != 1 || stats.Apps.Pending != 1 {
		t.Errorf("应用统计不符: %+v", stats.Apps)
	}
	if stats.Purchases.Total != 1 || stats.Purchases.Revenue != 4.99 {
		t.Errorf("交易统计不符: %+v", stats.Purchases)
	}
}

// ==================== 用户管理 ====================

func TestListUsers_WithCounts(t *testing.T) {
	svc, db := setupAdminSvcTest(t)
	ctx := context.Background()
	seedAdminScene(t, db)

	resp, err := svc.ListUsers(ctx, 1, 20)
	if err != nil {
		t.Fatalf("查询用户列表失败: %v", err)
	}
	if resp.Pagination.Total != 3 {
		t.Errorf("用户总数应为 3, 实际 %d", resp.Pagination.Total)
	}

	byName := map[string]dto.AdminUserInfo{}
	for _, u := range resp.Users {
		byName[u.Username] = u
	}
	if byName["dev"].AppCount != 2 {
		t.Errorf("开发者应用数应为 2, 实际 %d", byName["dev"].AppCount)
	}
	if byName["buyer"].PurchaseCount != 1 {
		t.Errorf("买家购买数应为 1, 实际 %d", byName["buyer"].PurchaseCount)
	}
}

func TestDeleteUser(t *testing.T) {
	svc, db := setupAdminSvcTest(t)
	ctx := context.Background()
	admin, _ := seedAdminScene(t, db)

	// 不能删自己
	if err := svc.DeleteUser(ctx, admin.ID, admin.ID); KindOf(err) != ErrKindValidation {
		t.Errorf("自删应报 Validation, 实际: %v", err)
	}

	var buyer model.User
	db.Where("username = ?", "buyer").First(&buyer)

	if err := svc.DeleteUser(ctx, buyer.ID, admin.ID); err != nil {
		t.Fatalf("删除用户失败: %v", err)
	}

	// 软删：正常查询查不到，带已删行仍在
	var count int64
	db.Model(&model.User{}).Count(&count)
	if count != 2 {
		t.Errorf("删除后可见用户应为 2, 实际 %d", count)
	}
	db.Unscoped().Model(&model.User{}).Count(&count)
	if count != 3 {
		t.Errorf("软删后物理行应保留, 实际 %d", count)
	}

	if err := svc.DeleteUser(ctx, 9999, admin.ID); KindOf(err) != ErrKindNotFound {
		t.Errorf("删除不存在用户应报 NotFound, 实际: %v", err)
	}
}
