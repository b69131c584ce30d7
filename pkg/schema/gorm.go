package schema

import (
	"gorm.io/gorm"
)

// AllModels returns the fixed schema models for GORM AutoMigrate.
// Vocabulary tables share one model and are created from OntologyDDL.
func AllModels() []any {
	return []any{
		&Taxon{},
		&Sample{},
		&Abundance{},
	}
}

// Migrate runs GORM AutoMigrate to create or update schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
