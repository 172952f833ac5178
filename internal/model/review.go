package model

// ==================== Review 评价 ====================

// Review 用户对应用的评价
// (user_id, app_id) 唯一约束保证一人一评；
// 只有持有对应 Purchase 的用户才允许创建
type Review struct {
	BaseModel
	UserID int64 `gorm:"not null;uniqueIndex:idx_reviews_user_app" json:"user_id"`
	AppID  int64 `gorm:"not null;uniqueIndex:idx_reviews_user_app" json:"app_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	App  *App  `gorm:"foreignKey:AppID" json:"-"`

	Rating int    `gorm:"not null" json:"rating"` // 1-5
	Text   string `gorm:"type:text" json:"text"`
}

func (Review) TableName() string {
	return "reviews"
}
