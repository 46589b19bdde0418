package database

import "threadboard/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Thread{},
		&models.Reply{},
		&models.Like{},
	}
}
