package model

import "gorm.io/gorm"

// All returns every persisted entity in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Part{},
		&ContactMessage{},
		&Comment{},
		&Order{},
		&OrderPart{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Order{}, "Parts", &OrderPart{}); err != nil {
		return err
	}
	return db.AutoMigrate(All()...)
}
