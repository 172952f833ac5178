package service

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"appstore_v1_202609/internal/api/dto"
	"appstore_v1_202609/internal/middleware"
	"appstore_v1_202609/internal/model"
	"appstore_v1_202609/internal/repository"
)

// ==================== UserService 用户服务 ====================

// UserService 用户服务：注册登录 + 个人中心
type UserService struct {
	userRepo     repository.UserRepository
	appRepo      repository.AppRepository
	purchaseRepo repository.PurchaseRepository
	reviewRepo   repository.ReviewRepository
}

// NewUserService 创建用户服务
func NewUserService(
	userRepo repository.UserRepository,
	appRepo repository.AppRepository,
	purchaseRepo repository.PurchaseRepository,
	reviewRepo repository.ReviewRepository,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		appRepo:      appRepo,
		purchaseRepo: purchaseRepo,
		reviewRepo:   reviewRepo,
	}
}

// ==================== 认证相关 ====================

// Register 注册，新用户一律普通角色
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict("用户名已存在")
	}

	exists, err = s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict("邮箱已被注册")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     model.RoleUser,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

// Login 用户登录
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrForbidden("用户名或密码错误")
	}
	if !user.IsActive {
		return nil, ErrForbidden("用户已禁用")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrForbidden("用户名或密码错误")
	}

	return s.issueTokens(user)
}

// RefreshToken 刷新 Token
func (s *UserService) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.RefreshTokenResponse, error) {
	claims, err := middleware.ParseToken(req.RefreshToken)
	if err != nil {
		return nil, ErrForbidden("Token 无效")
	}
	if claims.Subject != "refresh" {
		return nil, ErrForbidden("Token 类型错误")
	}

	// 确认用户仍然有效
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrForbidden("用户已禁用")
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
	}, nil
}

// ChangePassword 修改密码
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound("用户不存在")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return ErrValidation("旧密码错误")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"password": string(hashed),
	})
}

func (s *UserService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}

	cfg := middleware.GetJWTConfig()
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(cfg.AccessTokenTTL),
		User:         toUserInfo(user),
	}, nil
}

// ==================== 个人中心 ====================

// GetProfile 个人资料，附带应用/购买/评价数
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*dto.ProfileInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound("用户不存在")
	}

	appCount, err := s.countDeveloperApps(ctx, user)
	if err != nil {
		return nil, err
	}
	purchaseCount, err := s.purchaseRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	reviewCount, err := s.reviewRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.ProfileInfo{
		UserInfo:      *toUserInfo(user),
		AppCount:      appCount,
		PurchaseCount: purchaseCount,
		ReviewCount:   reviewCount,
	}, nil
}

// UpdateProfile 更新个人资料
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound("用户不存在")
	}

	fields := map[string]interface{}{}
	if req.Email != nil && *req.Email != user.Email {
		exists, err := s.userRepo.ExistsByEmail(ctx, *req.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrConflict("邮箱已被注册")
		}
		fields["email"] = *req.Email
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
		user, err = s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	return toUserInfo(user), nil
}

// UpgradeToDeveloper 自助升级为开发者
func (s *UserService) UpgradeToDeveloper(ctx context.Context, userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound("用户不存在")
	}
	if user.Role != model.RoleUser {
		return nil, ErrValidation("仅普通用户可升级为开发者")
	}

	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"role": model.RoleDeveloper,
	}); err != nil {
		return nil, err
	}

	user.Role = model.RoleDeveloper
	return toUserInfo(user), nil
}

func (s *UserService) countDeveloperApps(ctx context.Context, user *model.User) (int64, error) {
	if user.Role == model.RoleUser {
		return 0, nil
	}
	counts, err := s.appRepo.CountGroupByDeveloper(ctx, []int64{user.ID})
	if err != nil {
		return 0, err
	}
	return counts[user.ID], nil
}

// ==================== 视图转换 ====================

func toUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
