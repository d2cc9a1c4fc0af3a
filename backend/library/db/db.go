package db

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"formbox/backend/common"
	"formbox/backend/model"
)

var DB *gorm.DB

func InitDB() error {
	if common.SQLitePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(common.SQLitePath), 0o755); err != nil {
			return err
		}
	}
	db, err := gorm.Open(sqlite.Open(common.SQLitePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	DB = db

	err = DB.AutoMigrate(
		&model.User{},
		&model.Form{},
		&model.FormField{},
		&model.FormResponse{},
		&model.ResponseField{},
	)
	if err != nil {
		return err
	}

	return createRootAccountIfNeed()
}

func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func createRootAccountIfNeed() error {
	var userCount int64
	DB.Model(&model.User{}).Count(&userCount)
	if userCount == 0 {
		common.SysLog("no user exists, create a root/admin user for you: username is root, password is 123456")
		hashedPassword, err := common.Password2Hash("123456")
		if err != nil {
			return err
		}
		adminUser := model.User{
			Username:    "root",
			Password:    hashedPassword,
			Role:        common.RoleAdminUser,
			Status:      common.UserStatusEnabled,
			DisplayName: "Root User",
			Email:       "admin@localhost",
		}
		if err := DB.Create(&adminUser).Error; err != nil {
			return err
		}
		common.SysLog("root/admin user created successfully")
	}
	return nil
}
