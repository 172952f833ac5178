package database

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接并自动迁移
// dsn: 数据库连接字符串
// debug: 是否打印全量 SQL（线上关掉，只留 Warn）
// models: 需要自动建表/迁移的结构体指针
func InitDB(dsn string, debug bool, models ...interface{}) *gorm.DB {
	logMode := logger.Warn
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	// 连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层 SQL DB 失败: %v", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("数据库连接成功")

	// 唯一索引 (user_id, app_id) 由模型 tag 声明，迁移时一并建出，
	// 购买/评价的防重都压在这两个索引上
	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatalf("自动建表出错: %v", err)
		}
	}

	return db
}
