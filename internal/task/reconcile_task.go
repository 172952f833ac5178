package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"appstore_v1_202609/internal/repository"
	"appstore_v1_202609/internal/service"
)

// ==================== 支付对账任务 ====================

// ReconcileTask 支付意向对账任务
// 客户端付完款没回来调确认接口时，挂起的意向由这里向渠道查单补录
type ReconcileTask struct {
	PurchaseRepo    repository.PurchaseRepository
	PurchaseService *service.PurchaseService
	Cron            *cron.Cron

	minAge    time.Duration // 意向挂起多久后才纳入对账，避开正在进行的支付
	batchSize int           // 单轮处理上限
}

// NewReconcileTask 创建对账任务
func NewReconcileTask(purchaseRepo repository.PurchaseRepository, purchaseService *service.PurchaseService, minAge time.Duration, batchSize int) *ReconcileTask {
	if minAge <= 0 {
		minAge = 10 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReconcileTask{
		PurchaseRepo:    purchaseRepo,
		PurchaseService: purchaseService,
		Cron:            cron.New(cron.WithSeconds()), // 支持秒级控制
		minAge:          minAge,
		batchSize:       batchSize,
	}
}

// Start 启动定时任务
func (t *ReconcileTask) Start() {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		log.Println("[Task] 服务启动，正在执行首次支付对账...")
		t.reconcileJob(ctx)
	}()

	// 每 15 分钟扫一轮
	_, err := t.Cron.AddFunc("0 0/15 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		t.reconcileJob(ctx)
	})
	if err != nil {
		log.Fatalf("无法启动支付对账定时任务: %v", err)
	}

	t.Cron.Start()
	log.Println("支付对账任务已启动 (每15分钟检查一次)")
}

// Stop 停止定时任务
func (t *ReconcileTask) Stop() {
	t.Cron.Stop()
}

// reconcileJob 单轮对账
func (t *ReconcileTask) reconcileJob(ctx context.Context) {
	olderThan := time.Now().Add(-t.minAge)
	intents, err := t.PurchaseRepo.ListPendingIntents(ctx, olderThan, t.batchSize)
	if err != nil {
		log.Printf("[Cron] 挂起支付意向查询失败: %v", err)
		return
	}
	if len(intents) == 0 {
		return
	}

	log.Printf("[Cron] 开始对账 %d 个挂起支付意向", len(intents))

	var recovered, failed int
	for i := range intents {
		select {
		case <-ctx.Done():
			log.Println("[Cron] 对账任务超时停止")
			return
		default:
		}

		if err := t.PurchaseService.ReconcileIntent(ctx, &intents[i]); err != nil {
			// 单笔失败不影响其他单子，下轮重试
			log.Printf("[Cron] 意向 %s 对账失败: %v", intents[i].ProviderIntentID, err)
			failed++
			continue
		}
		recovered++
	}

	log.Printf("[Cron] 对账完成: 处理 %d 笔，失败 %d 笔", recovered, failed)
}
