package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"appstore_v1_202609/internal/controller"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/model"

	_ "appstore_v1_202609/docs"
)

// Controllers 控制器集合
type Controllers struct {
	Auth     *controller.AuthController
	User     *controller.UserController
	App      *controller.AppController
	Purchase *controller.PurchaseController
	Review   *controller.ReviewController
	Admin    *controller.AdminController
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctrls *Controllers) {
	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. API 路由组
	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/register", ctrls.Auth.Register)
			auth.POST("/login", ctrls.Auth.Login)
			auth.POST("/refresh", ctrls.Auth.Refresh)
		}

		// users 个人中心，全部需要登录
		users := api.Group("/users", middleware.JWTAuth(), middleware.AuditContext())
		{
			users.GET("/profile", ctrls.User.GetProfile)
			users.PUT("/profile", ctrls.User.UpdateProfile)
			users.PUT("/password", ctrls.User.ChangePassword)
			users.GET("/my-apps", ctrls.App.MyApps)
			users.POST("/upgrade-to-developer", ctrls.User.UpgradeToDeveloper)
		}

		// apps 商店 + 开发者管理
		apps := api.Group("/apps")
		{
			// 游客可看
			apps.GET("", ctrls.App.List)
			apps.GET("/meta/categories", ctrls.App.Categories)

			// 开发者接口
			authed := apps.Group("", middleware.JWTAuth(), middleware.AuditContext())
			{
				authed.POST("",
					middleware.RequireRole(string(model.RoleDeveloper), string(model.RoleAdmin)),
					ctrls.App.Create)
				authed.PUT("/:id", ctrls.App.Update)
				authed.DELETE("/:id", ctrls.App.Delete)
				authed.POST("/:id/versions",
					middleware.RequireRole(string(model.RoleDeveloper), string(model.RoleAdmin)),
					ctrls.App.AddVersion)
				authed.POST("/:id/screenshots",
					middleware.RequireRole(string(model.RoleDeveloper), string(model.RoleAdmin)),
					ctrls.App.AddScreenshot)
			}

			apps.GET("/:slug", ctrls.App.GetBySlug)
		}

		// purchases 购买流程，全部需要登录
		purchases := api.Group("/purchases", middleware.JWTAuth(), middleware.AuditContext())
		{
			purchases.GET("", ctrls.Purchase.List)
			purchases.POST("/intent", ctrls.Purchase.CreateIntent)
			purchases.POST("/confirm", ctrls.Purchase.Confirm)
			purchases.GET("/check/:app_id", ctrls.Purchase.CheckOwnership)
			purchases.GET("/download/:app_id", ctrls.Purchase.Download)
		}

		// reviews 评价
		reviews := api.Group("/reviews")
		{
			reviews.GET("/app/:app_id", ctrls.Review.ListByApp)

			authed := reviews.Group("", middleware.JWTAuth(), middleware.AuditContext())
			{
				authed.POST("", ctrls.Review.Create)
				authed.PUT("/:id", ctrls.Review.Update)
				authed.DELETE("/:id", ctrls.Review.Delete)
			}
		}

		// admin 管理后台，仅管理员
		admin := api.Group("/admin",
			middleware.JWTAuth(),
			middleware.AuditContext(),
			middleware.RequireRole(string(model.RoleAdmin)))
		{
			admin.GET("/stats", ctrls.Admin.Stats)
			admin.GET("/apps/pending", ctrls.Admin.PendingApps)
			admin.PUT("/apps/:id/status", ctrls.Admin.UpdateAppStatus)
			admin.GET("/users", ctrls.Admin.ListUsers)
			admin.DELETE("/users/:id", ctrls.Admin.DeleteUser)
		}
	}
}
