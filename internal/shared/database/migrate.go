package database

import (
	"gorm.io/gorm"
)

// Migrate auto-migrates the given models. Callers pass their own models so
// this package does not import feature packages.
func Migrate(db *gorm.DB, models ...interface{}) error {
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
