package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"appstore_v1_202609/internal/controller"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
	"appstore_v1_202609/internal/router"
	"appstore_v1_202609/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

// setupAPITest 真实路由 + 内存库整套拉起
func setupAPITest(t *testing.T) (*gin.Engine, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{}, &model.App{}, &model.AppVersion{}, &model.Screenshot{},
		&model.Purchase{}, &model.PaymentIntent{}, &model.Review{},
	); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	middleware.RegisterAuditCallbacks(db)

	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewAppRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	userSvc := service.NewUserService(userRepo, appRepo, purchaseRepo, reviewRepo)
	appSvc := service.NewAppService(appRepo, reviewRepo)
	// 免费购买链路不会碰支付渠道，这里不接真实 provider
	purchaseSvc := service.NewPurchaseService(purchaseRepo, appRepo, nil, nil)
	reviewSvc := service.NewReviewService(reviewRepo, appRepo, purchaseRepo)
	adminSvc := service.NewAdminService(userRepo, appRepo, purchaseRepo, appSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	router.InitRoutes(r, &router.Controllers{
		Auth:     controller.NewAuthController(userSvc),
		User:     controller.NewUserController(userSvc),
		App:      controller.NewAppController(appSvc),
		Purchase: controller.NewPurchaseController(purchaseSvc),
		Review:   controller.NewReviewController(reviewSvc),
		Admin:    controller.NewAdminController(adminSvc),
	})
	return r, db
}

func seedUser(t *testing.T, db *gorm.DB, name string, role model.UserRole) (*model.User, string) {
	user := &model.User{Username: name, Email: name + "@test.com", Password: "x", Role: role, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	token, err := middleware.GenerateAccessToken(user.ID, user.Username, string(user.Role))
	if err != nil {
		t.Fatalf("签发 Token 失败: %v", err)
	}
	return user, token
}

func performRequest(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应解析失败: %v, body: %s", err, w.Body.String())
	}
	return resp
}

// ==================== 鉴权边界 ====================

func TestCatalog_PublicAccess(t *testing.T) {
	r, _ := setupAPITest(t)

	// 游客可以逛商店
	w := performRequest(r, http.MethodGet, "/api/apps", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["success"])

	// 没 Token 不能建应用
	w = performRequest(r, http.MethodPost, "/api/apps", "", gin.H{"title": "X", "description": "没有令牌的请求", "category": "tools"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateApp_RoleGate(t *testing.T) {
	r, db := setupAPITest(t)
	_, userToken := seedUser(t, db, "plain", model.RoleUser)
	_, devToken := seedUser(t, db, "dev", model.RoleDeveloper)

	body := gin.H{"title": "Role Gate App", "description": "角色校验的测试应用", "category": "tools", "price": 1.99}

	// 普通用户建不了应用
	w := performRequest(r, http.MethodPost, "/api/apps", userToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 开发者可以
	w = performRequest(r, http.MethodPost, "/api/apps", devToken, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "role-gate-app", data["slug"])
	assert.Equal(t, "REVIEW", data["status"])
}

// ==================== 审核链路 ====================

func TestModerationFlow(t *testing.T) {
	r, db := setupAPITest(t)
	_, devToken := seedUser(t, db, "dev", model.RoleDeveloper)
	_, adminToken := seedUser(t, db, "admin", model.RoleAdmin)

	// 开发者提交应用
	w := performRequest(r, http.MethodPost, "/api/apps", devToken, gin.H{
		"title": "Mod Flow App", "description": "走完整审核链路的应用", "category": "tools", "price": 9.99,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	appID := decodeBody(t, w)["data"].(map[string]interface{})["id"].(float64)

	// 未过审前商店里看不到
	w = performRequest(r, http.MethodGet, "/api/apps/mod-flow-app", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 开发者自己进不了审核接口
	w = performRequest(r, http.MethodPut,
		"/api/admin/apps/"+jsonNumber(appID)+"/status", devToken, gin.H{"status": "APPROVED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 管理员过审
	w = performRequest(r, http.MethodPut,
		"/api/admin/apps/"+jsonNumber(appID)+"/status", adminToken, gin.H{"status": "APPROVED"})
	assert.Equal(t, http.StatusOK, w.Code)

	// 过审后详情页可见
	w = performRequest(r, http.MethodGet, "/api/apps/mod-flow-app", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// 终态再审 409
	w = performRequest(r, http.MethodPut,
		"/api/admin/apps/"+jsonNumber(appID)+"/status", adminToken, gin.H{"status": "REJECTED"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// ==================== 免费购买 + 评价链路 ====================

func TestFreePurchaseAndReviewFlow(t *testing.T) {
	r, db := setupAPITest(t)
	_, devToken := seedUser(t, db, "dev", model.RoleDeveloper)
	_, adminToken := seedUser(t, db, "admin", model.RoleAdmin)
	_, buyerToken := seedUser(t, db, "buyer", model.RoleUser)

	// 上架一个免费应用
	w := performRequest(r, http.MethodPost, "/api/apps", devToken, gin.H{
		"title": "Free Flow App", "description": "免费购买链路的应用", "category": "tools", "price": 0,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	appID := decodeBody(t, w)["data"].(map[string]interface{})["id"].(float64)

	w = performRequest(r, http.MethodPut,
		"/api/admin/apps/"+jsonNumber(appID)+"/status", adminToken, gin.H{"status": "APPROVED"})
	assert.Equal(t, http.StatusOK, w.Code)

	// 买前不能评价
	reviewBody := gin.H{"app_id": int64(appID), "rating": 5, "text": "抢先写的一条评价内容"}
	w = performRequest(r, http.MethodPost, "/api/reviews", buyerToken, reviewBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 免费领取
	w = performRequest(r, http.MethodPost, "/api/purchases/intent", buyerToken, gin.H{"app_id": int64(appID)})
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["free"])

	// 持有检查
	w = performRequest(r, http.MethodGet, "/api/purchases/check/"+jsonNumber(appID), buyerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody(t, w)
	assert.Equal(t, true, resp["data"].(map[string]interface{})["owned"])

	// 买后可以评
	w = performRequest(r, http.MethodPost, "/api/reviews", buyerToken, reviewBody)
	assert.Equal(t, http.StatusCreated, w.Code)

	// 一人一评
	w = performRequest(r, http.MethodPost, "/api/reviews", buyerToken, reviewBody)
	assert.Equal(t, http.StatusConflict, w.Code)
}

// jsonNumber JSON 解出来的 float64 ID 转路径段
func jsonNumber(id float64) string {
	return strconv.FormatInt(int64(id), 10)
}
