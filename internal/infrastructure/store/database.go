package store

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDatabase 開啟 SQLite 並跑 auto-migration
// path 留空時用記憶體資料庫，測試方便
func SetupDatabase(path string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&FamilyMemberModel{},
		&PreferenceModel{},
		&RecipeModel{},
		&RatingModel{},
		&MealPlanModel{},
		&MealPlanRecipeModel{},
		&GenerationJobModel{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
