package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/clientflow/internal/models"
)

// GormStorage keeps session keys in the clientflow_storage table.
type GormStorage struct {
	db        *gorm.DB
	namespace string
}

var _ Storage = (*GormStorage)(nil)

func NewGormStorage(db *gorm.DB, namespace string) *GormStorage {
	return &GormStorage{db: db, namespace: namespace}
}

func (s *GormStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var entry models.StorageEntry
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.namespace, key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *GormStorage) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	entries := make([]models.StorageEntry, 0, len(values))
	for k, v := range values {
		entries = append(entries, models.StorageEntry{
			Namespace: s.namespace,
			Key:       k,
			Value:     v,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entries).Error
		if err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
		return nil
	})
}

func (s *GormStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Where("namespace = ? AND key IN ?", s.namespace, keys).
		Delete(&models.StorageEntry{}).Error
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
