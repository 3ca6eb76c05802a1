// Package setting persists application settings and serves them through a read-through cache.
package setting

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panelkit/panelkit/internal/db/models"
)

// DefaultMaxValueLength is the longest value accepted for a single setting.
const DefaultMaxValueLength = 65535

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingKeyEmpty is returned when attempting to read or write a setting with an empty key.
	ErrSettingKeyEmpty = errors.New("setting key cannot be empty")
	// ErrValueTooLong is returned when a value exceeds the maximum length; the whole batch is rolled back.
	ErrValueTooLong = errors.New("setting value is too long")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

var keyColumn = clause.Column{Name: "key"}

// Find retrieves a setting row by key.
func Find(ctx context.Context, db *gorm.DB, key string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.Setting

	err := db.WithContext(ctx).Where(clause.Eq{Column: keyColumn, Value: key}).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSettingNotFound
	}

	if err != nil {
		return nil, err
	}

	return &setting, nil
}

// FindMany retrieves the rows for the given keys. Absent keys are missing from the result.
func FindMany(ctx context.Context, db *gorm.DB, keys []string) (map[string]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = k
	}

	var rows []models.Setting
	if err := db.WithContext(ctx).Where(clause.IN{Column: keyColumn, Values: values}).Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.Key] = row.Value
	}

	return out, nil
}

// GetAll retrieves all settings ordered by key.
func GetAll(ctx context.Context, db *gorm.DB) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	if err := db.WithContext(ctx).Order(clause.OrderByColumn{Column: keyColumn}).Find(&settings).Error; err != nil {
		return nil, err
	}

	return settings, nil
}

// Keys lists every persisted key.
func Keys(ctx context.Context, db *gorm.DB) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var keys []string
	if err := db.WithContext(ctx).Model(&models.Setting{}).
		Order(clause.OrderByColumn{Column: keyColumn}).
		Pluck("key", &keys).Error; err != nil {
		return nil, err
	}

	return keys, nil
}

// Upsert creates or updates the row for key.
func Upsert(ctx context.Context, db *gorm.DB, key, value string) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrSettingKeyEmpty
	}

	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{keyColumn},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

// UpsertMany writes all pairs inside one transaction, in key order.
// Values longer than maxLen abort the transaction with ErrValueTooLong.
func UpsertMany(ctx context.Context, db *gorm.DB, pairs map[string]string, maxLen int) error {
	if db == nil {
		return ErrDBNil
	}

	keys := sortedKeys(pairs)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			value := pairs[key]

			if maxLen > 0 && len(value) > maxLen {
				return ErrValueTooLong
			}

			if err := Upsert(ctx, tx, key, value); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteByKey deletes a setting by key.
func DeleteByKey(ctx context.Context, db *gorm.DB, key string) error {
	if db == nil {
		return ErrDBNil
	}

	if key == "" {
		return ErrSettingKeyEmpty
	}

	result := db.WithContext(ctx).Where(clause.Eq{Column: keyColumn, Value: key}).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}

func sortedKeys(pairs map[string]string) []string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
