package model

import (
	"github.com/lib/pq"
)

// ==================== 状态定义 ====================

// AppStatus 应用上架状态
// 状态机：DRAFT -> REVIEW -> APPROVED / REJECTED
// APPROVED / REJECTED 为终态，不提供重新提审入口
type AppStatus string

const (
	AppStatusDraft    AppStatus = "DRAFT"    // 草稿
	AppStatusReview   AppStatus = "REVIEW"   // 待审核
	AppStatusApproved AppStatus = "APPROVED" // 已上架
	AppStatusRejected AppStatus = "REJECTED" // 已驳回
)

// ==================== App 应用 ====================

// App 应用主体，归属于唯一开发者
type App struct {
	BaseModel
	DeveloperID int64 `gorm:"index;not null" json:"developer_id"`
	Developer   *User `gorm:"foreignKey:DeveloperID" json:"developer,omitempty"`

	Title       string         `gorm:"size:200;not null" json:"title"`
	Slug        string         `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:100;index" json:"category"`
	Price       float64        `gorm:"not null;default:0" json:"price"` // 单位：美元
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags"`

	Status AppStatus `gorm:"size:20;default:'REVIEW';index" json:"status"`

	// 关联关系
	Versions    []AppVersion `gorm:"foreignKey:AppID" json:"versions,omitempty"`
	Screenshots []Screenshot `gorm:"foreignKey:AppID" json:"screenshots,omitempty"`
	Reviews     []Review     `gorm:"foreignKey:AppID" json:"-"`
}

func (App) TableName() string {
	return "apps"
}

// IsTerminal 是否处于审核终态
func (a *App) IsTerminal() bool {
	return a.Status == AppStatusApproved || a.Status == AppStatusRejected
}

// ==================== AppVersion 应用版本 ====================

// AppVersion 应用版本，只增不改；按创建时间最新的一条为当前版本
type AppVersion struct {
	BaseModel
	AppID int64 `gorm:"index;not null" json:"app_id"`

	Version   string `gorm:"size:50;not null" json:"version"`
	FileKey   string `gorm:"size:500" json:"-"` // 对象存储 Key，私有桶
	FileURL   string `gorm:"size:500" json:"file_url"`
	Changelog string `gorm:"type:text" json:"changelog"`
	Size      int64  `json:"size"`     // 字节数
	Checksum  string `gorm:"size:128" json:"checksum"` // sha256
}

func (AppVersion) TableName() string {
	return "app_versions"
}

// ==================== Screenshot 应用截图 ====================

// Screenshot 应用截图，按 order_index 排序展示
type Screenshot struct {
	BaseModel
	AppID int64 `gorm:"index;not null" json:"app_id"`

	FileURL    string `gorm:"size:500;not null" json:"file_url"`
	OrderIndex int    `gorm:"default:0" json:"order_index"`
}

func (Screenshot) TableName() string {
	return "screenshots"
}
