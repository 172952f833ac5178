package service

import (
	"context"
	"log"
	"math"
	"strconv"
	"time"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
)

// 下载直链有效期
const downloadURLTTL = 15 * time.Minute

// ==================== PurchaseService 购买服务 ====================

// PurchaseService 购买服务：支付意向、确认落库、下载授权
type PurchaseService struct {
	purchaseRepo repository.PurchaseRepository
	appRepo      repository.AppRepository
	payment      PaymentProvider
	storage      StorageProvider
}

// NewPurchaseService 创建购买服务
// storage 为 nil 时下载直接回落到版本自带的公开 URL
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	appRepo repository.AppRepository,
	payment PaymentProvider,
	storage StorageProvider,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		appRepo:      appRepo,
		payment:      payment,
		storage:      storage,
	}
}

// AmountCents 目录价转美分，金额只信服务端算出来的这个数
func AmountCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// ==================== 支付流程 ====================

// CreateIntent 开支付单
// 免费应用不走支付渠道，当场落购买记录
func (s *PurchaseService) CreateIntent(ctx context.Context, userID int64, req *dto.CreateIntentRequest) (*dto.CreateIntentResponse, error) {
	app, err := s.appRepo.GetByID(ctx, req.AppID)
	if err != nil {
		return nil, err
	}
	if app == nil || app.Status != model.AppStatusApproved {
		return nil, ErrNotFound("应用不存在或未上架")
	}
	if app.DeveloperID == userID {
		return nil, ErrValidation("不能购买自己的应用")
	}

	owned, err := s.purchaseRepo.Exists(ctx, userID, req.AppID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrConflict("已拥有该应用")
	}

	if app.Price == 0 {
		purchase, err := s.purchaseRepo.CreateIdempotent(ctx, &model.Purchase{
			UserID:            userID,
			AppID:             app.ID,
			Amount:            0,
			Currency:          "usd",
			ProviderPaymentID: "free",
		})
		if err != nil {
			return nil, err
		}
		return &dto.CreateIntentResponse{
			Amount:   0,
			Free:     true,
			Purchase: toPurchaseInfo(purchase),
		}, nil
	}

	amountCents := AmountCents(app.Price)
	intent, err := s.payment.CreateIntent(ctx, amountCents, "usd", map[string]string{
		"user_id": strconv.FormatInt(userID, 10),
		"app_id":  strconv.FormatInt(app.ID, 10),
	})
	if err != nil {
		return nil, err
	}

	// 本地留痕，确认请求没回来时对账任务靠它补录
	if err := s.purchaseRepo.CreateIntent(ctx, &model.PaymentIntent{
		ProviderIntentID: intent.ID,
		UserID:           userID,
		AppID:            app.ID,
		AmountCents:      amountCents,
		Currency:         "usd",
		Status:           model.IntentStatusPending,
	}); err != nil {
		return nil, err
	}

	return &dto.CreateIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       app.Price,
		Free:         false,
	}, nil
}

// Confirm 确认购买
// 以渠道侧查单结果为事实源：状态必须 succeeded，metadata 的 user_id 必须是当前用户。
// 重复确认同一单幂等返回既有记录
func (s *PurchaseService) Confirm(ctx context.Context, userID int64, req *dto.ConfirmPurchaseRequest) (*dto.PurchaseInfo, error) {
	intent, err := s.payment.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != PaymentIntentStatusSucceeded {
		return nil, ErrUpstream("支付未完成", nil)
	}

	metaUserID, err := strconv.ParseInt(intent.Metadata["user_id"], 10, 64)
	if err != nil || metaUserID != userID {
		return nil, ErrForbidden("支付单不属于当前用户")
	}
	appID, err := strconv.ParseInt(intent.Metadata["app_id"], 10, 64)
	if err != nil {
		return nil, ErrUpstream("支付单缺少应用信息", err)
	}

	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound("应用不存在")
	}

	purchase, err := s.purchaseRepo.CreateIdempotent(ctx, &model.Purchase{
		UserID:            userID,
		AppID:             appID,
		Amount:            float64(intent.Amount) / 100,
		Currency:          intent.Currency,
		ProviderPaymentID: intent.ID,
		RawPayload:        []byte(intent.Raw),
	})
	if err != nil {
		return nil, err
	}

	// 本地意向收口；失败不影响购买结果，下轮对账会再收一次
	if err := s.purchaseRepo.UpdateIntentStatus(ctx, intent.ID, model.IntentStatusConfirmed); err != nil {
		log.Printf("标记支付意向 %s 已确认失败: %v", intent.ID, err)
	}

	return toPurchaseInfo(purchase), nil
}

// ==================== 持有与下载 ====================

// Owns 是否已拥有应用
func (s *PurchaseService) Owns(ctx context.Context, userID, appID int64) (bool, error) {
	return s.purchaseRepo.Exists(ctx, userID, appID)
}

// ListByUser 我的购买记录
func (s *PurchaseService) ListByUser(ctx context.Context, userID int64) ([]dto.PurchaseInfo, error) {
	purchases, err := s.purchaseRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.PurchaseInfo, 0, len(purchases))
	for i := range purchases {
		infos = append(infos, *toPurchaseInfo(&purchases[i]))
	}
	return infos, nil
}

// Download 取下载信息，需持有应用
func (s *PurchaseService) Download(ctx context.Context, userID, appID int64) (*dto.DownloadInfo, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrNotFound("应用不存在")
	}

	// 开发者下载自己的应用不要求购买记录
	if app.DeveloperID != userID {
		owned, err := s.purchaseRepo.Exists(ctx, userID, appID)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, ErrForbidden("未购买该应用")
		}
	}

	version, err := s.appRepo.LatestVersion(ctx, appID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, ErrNotFound("应用暂无可下载版本")
	}

	downloadURL := version.FileURL
	if s.storage != nil && version.FileKey != "" {
		signed, err := s.storage.GetSignedURL(ctx, version.FileKey, downloadURLTTL)
		if err != nil {
			return nil, ErrUpstream("生成下载链接失败", err)
		}
		downloadURL = signed
	}
	if downloadURL == "" {
		return nil, ErrNotFound("应用暂无可下载版本")
	}

	return &dto.DownloadInfo{
		DownloadURL: downloadURL,
		Version:     version.Version,
		Size:        version.Size,
		Checksum:    version.Checksum,
	}, nil
}

// ==================== 对账 ====================

// ReconcileIntent 对账单个挂起意向
// 渠道已成功的补录购买记录；已取消的同步本地状态；其余保持挂起
func (s *PurchaseService) ReconcileIntent(ctx context.Context, intent *model.PaymentIntent) error {
	remote, err := s.payment.GetIntent(ctx, intent.ProviderIntentID)
	if err != nil {
		return err
	}

	switch remote.Status {
	case PaymentIntentStatusSucceeded:
		if _, err := s.purchaseRepo.CreateIdempotent(ctx, &model.Purchase{
			UserID:            intent.UserID,
			AppID:             intent.AppID,
			Amount:            float64(intent.AmountCents) / 100,
			Currency:          intent.Currency,
			ProviderPaymentID: intent.ProviderIntentID,
			RawPayload:        []byte(remote.Raw),
		}); err != nil {
			return err
		}
		return s.purchaseRepo.UpdateIntentStatus(ctx, intent.ProviderIntentID, model.IntentStatusConfirmed)
	case "canceled":
		return s.purchaseRepo.UpdateIntentStatus(ctx, intent.ProviderIntentID, model.IntentStatusCanceled)
	default:
		return nil
	}
}

// ==================== 视图转换 ====================

func toPurchaseInfo(purchase *model.Purchase) *dto.PurchaseInfo {
	if purchase == nil {
		return nil
	}
	return &dto.PurchaseInfo{
		ID:                purchase.ID,
		AppID:             purchase.AppID,
		App:               purchase.App,
		Amount:            purchase.Amount,
		Currency:          purchase.Currency,
		ProviderPaymentID: purchase.ProviderPaymentID,
		CreatedAt:         purchase.CreatedAt,
	}
}
