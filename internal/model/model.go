// Package model 定义数据库模型
package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 迁移指定模型，key 为空时迁移全部
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Note":
		return db.AutoMigrate(Note{})

	case "User":
		return db.AutoMigrate(User{})

	case "ShareLink":
		return db.AutoMigrate(ShareLink{})
	}
	return db.AutoMigrate(Note{}, User{}, ShareLink{})
}
