package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"appstore_v1_202609/internal/model"
)

// ==================== 测试辅助 ====================

func setupPurchaseTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	// 内存库多连接会各开一个库，并发测试也要求单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{}, &model.App{},
		&model.Purchase{}, &model.PaymentIntent{},
	); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func seedUserAndApp(t *testing.T, db *gorm.DB) (*model.User, *model.App) {
	user := &model.User{Username: "buyer", Email: "buyer@test.com", Password: "x", Role: model.RoleUser, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	dev := &model.User{Username: "dev", Email: "dev@test.com", Password: "x", Role: model.RoleDeveloper, IsActive: true}
	if err := db.Create(dev).Error; err != nil {
		t.Fatalf("创建开发者失败: %v", err)
	}

	app := &model.App{
		DeveloperID: dev.ID,
		Title:       "Test App",
		Slug:        "test-app",
		Description: "一个测试应用",
		Category:    "tools",
		Price:       9.99,
		Status:      model.AppStatusApproved,
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("创建应用失败: %v", err)
	}
	return user, app
}

// ==================== 幂等落库 ====================

func TestCreateIdempotent_DuplicateReturnsSameRow(t *testing.T) {
	db := setupPurchaseTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	user, app := seedUserAndApp(t, db)

	first, err := repo.CreateIdempotent(ctx, &model.Purchase{
		UserID:            user.ID,
		AppID:             app.ID,
		Amount:            9.99,
		Currency:          "usd",
		ProviderPaymentID: "pi_123",
	})
	if err != nil {
		t.Fatalf("首次落库失败: %v", err)
	}

	second, err := repo.CreateIdempotent(ctx, &model.Purchase{
		UserID:            user.ID,
		AppID:             app.ID,
		Amount:            9.99,
		Currency:          "usd",
		ProviderPaymentID: "pi_123",
	})
	if err != nil {
		t.Fatalf("重复落库不应报错: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("重复落库应返回同一行: %d != %d", first.ID, second.ID)
	}

	var count int64
	db.Model(&model.Purchase{}).Count(&count)
	if count != 1 {
		t.Errorf("购买记录应只有 1 条, 实际 %d 条", count)
	}
}

func TestCreateIdempotent_Concurrent(t *testing.T) {
	db := setupPurchaseTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	user, app := seedUserAndApp(t, db)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.CreateIdempotent(ctx, &model.Purchase{
				UserID:            user.ID,
				AppID:             app.ID,
				Amount:            9.99,
				Currency:          "usd",
				ProviderPaymentID: "pi_123",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("并发落库不应报错: %v", err)
		}
	}

	var count int64
	db.Model(&model.Purchase{}).Count(&count)
	if count != 1 {
		t.Errorf("并发落库后应只有 1 条记录, 实际 %d 条", count)
	}
}

func TestExists(t *testing.T) {
	db := setupPurchaseTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	user, app := seedUserAndApp(t, db)

	owned, err := repo.Exists(ctx, user.ID, app.ID)
	if err != nil {
		t.Fatalf("存在性检查失败: %v", err)
	}
	if owned {
		t.Error("未购买时 Exists 应为 false")
	}

	if _, err := repo.CreateIdempotent(ctx, &model.Purchase{
		UserID: user.ID, AppID: app.ID, ProviderPaymentID: "free",
	}); err != nil {
		t.Fatalf("落库失败: %v", err)
	}

	owned, err = repo.Exists(ctx, user.ID, app.ID)
	if err != nil {
		t.Fatalf("存在性检查失败: %v", err)
	}
	if !owned {
		t.Error("购买后 Exists 应为 true")
	}
}

// ==================== 支付意向 ====================

func TestPaymentIntentLifecycle(t *testing.T) {
	db := setupPurchaseTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	user, app := seedUserAndApp(t, db)

	intent := &model.PaymentIntent{
		ProviderIntentID: "pi_abc",
		UserID:           user.ID,
		AppID:            app.ID,
		AmountCents:      999,
		Currency:         "usd",
		Status:           model.IntentStatusPending,
	}
	if err := repo.CreateIntent(ctx, intent); err != nil {
		t.Fatalf("创建意向失败: %v", err)
	}

	got, err := repo.GetIntentByProviderID(ctx, "pi_abc")
	if err != nil {
		t.Fatalf("查询意向失败: %v", err)
	}
	if got == nil || got.Status != model.IntentStatusPending {
		t.Fatalf("意向状态应为 PENDING, 实际: %+v", got)
	}

	if err := repo.UpdateIntentStatus(ctx, "pi_abc", model.IntentStatusConfirmed); err != nil {
		t.Fatalf("更新意向状态失败: %v", err)
	}

	got, _ = repo.GetIntentByProviderID(ctx, "pi_abc")
	if got.Status != model.IntentStatusConfirmed {
		t.Errorf("意向状态应为 CONFIRMED, 实际 %s", got.Status)
	}
}

func TestListPendingIntents_OnlyOldPending(t *testing.T) {
	db := setupPurchaseTestDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	user, app := seedUserAndApp(t, db)

	// 一条挂起已久的、一条刚创建的、一条已确认的
	old := &model.PaymentIntent{ProviderIntentID: "pi_old", UserID: user.ID, AppID: app.ID, AmountCents: 999, Status: model.IntentStatusPending}
	if err := repo.CreateIntent(ctx, old); err != nil {
		t.Fatalf("创建意向失败: %v", err)
	}
	db.Model(old).Update("created_at", time.Now().Add(-time.Hour))

	fresh := &model.PaymentIntent{ProviderIntentID: "pi_fresh", UserID: user.ID, AppID: app.ID, AmountCents: 999, Status: model.IntentStatusPending}
	if err := repo.CreateIntent(ctx, fresh); err != nil {
		t.Fatalf("创建意向失败: %v", err)
	}

	done := &model.PaymentIntent{ProviderIntentID: "pi_done", UserID: user.ID, AppID: app.ID, AmountCents: 999, Status: model.IntentStatusConfirmed}
	if err := repo.CreateIntent(ctx, done); err != nil {
		t.Fatalf("创建意向失败: %v", err)
	}
	db.Model(done).Update("created_at", time.Now().Add(-time.Hour))

	intents, err := repo.ListPendingIntents(ctx, time.Now().Add(-10*time.Minute), 100)
	if err != nil {
		t.Fatalf("查询挂起意向失败: %v", err)
	}
	if len(intents) != 1 || intents[0].ProviderIntentID != "pi_old" {
		t.Errorf("应只捞出挂起已久的意向, 实际: %+v", intents)
	}
}
