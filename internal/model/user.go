package model

// ==================== 角色定义 ====================

// UserRole 用户角色
type UserRole string

const (
	RoleUser      UserRole = "USER"      // 普通用户
	RoleDeveloper UserRole = "DEVELOPER" // 开发者
	RoleAdmin     UserRole = "ADMIN"     // 管理员
)

// ==================== User 用户 ====================

// User 平台用户
// 注册即为普通用户，可自助升级为开发者；管理员由运维指定
type User struct {
	BaseModel
	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // bcrypt 哈希

	Role     UserRole `gorm:"size:20;default:'USER';index" json:"role"`
	IsActive bool     `gorm:"default:true" json:"is_active"`

	// 关联关系
	Apps      []App      `gorm:"foreignKey:DeveloperID" json:"-"`
	Purchases []Purchase `gorm:"foreignKey:UserID" json:"-"`
	Reviews   []Review   `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
