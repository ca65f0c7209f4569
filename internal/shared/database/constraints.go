package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes the attribute searches rely on
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		// case-insensitive name search
		`CREATE INDEX IF NOT EXISTS idx_clients_name_lower ON clients (LOWER(name));`,
		// birthday range filters
		`CREATE INDEX IF NOT EXISTS idx_clients_birthday ON clients (birthday);`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
