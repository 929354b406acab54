package models

import "time"

// StorageEntry backs the Postgres session storage driver.
type StorageEntry struct {
	Namespace string `gorm:"primaryKey;size:100"`
	Key       string `gorm:"primaryKey;size:100"`
	Value     string `gorm:"type:text"`

	UpdatedAt time.Time
}

func (StorageEntry) TableName() string {
	return "clientflow_storage"
}
