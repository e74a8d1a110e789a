package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BinLe1988/media-moderation/configs"
	"github.com/BinLe1988/media-moderation/models"
)

var DB *gorm.DB

// Open 打开数据库连接并迁移词表
func Open(dbConfig configs.Database) (*gorm.DB, error) {
	var dsn string
	var dialector gorm.Dialector

	switch dbConfig.Driver {
	case "mysql":
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.DBName)
		dialector = mysql.Open(dsn)
	case "postgres":
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbConfig.Host, dbConfig.Port, dbConfig.User, dbConfig.Password, dbConfig.DBName)
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dbConfig.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", dbConfig.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// 自动迁移数据库表
	err = db.AutoMigrate(
		&models.BannedTerm{},
		&models.NegativeIndicator{},
		&models.SuspiciousPattern{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Initialize 初始化全局数据库连接
func Initialize(dbConfig configs.Database, logger *zap.Logger) error {
	db, err := Open(dbConfig)
	if err != nil {
		return err
	}
	DB = db

	logger.Info("database connected", zap.String("driver", dbConfig.Driver))
	return nil
}

// Close 关闭数据库连接
func Close(logger *zap.Logger) {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			logger.Error("failed to get database connection", zap.Error(err))
			return
		}
		if err := sqlDB.Close(); err != nil {
			logger.Error("failed to close database connection", zap.Error(err))
		}
	}
}
