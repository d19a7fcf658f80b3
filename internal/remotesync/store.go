// Package remotesync mirrors the material catalog to a remote Postgres
// database and listens for changes made there.
package remotesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ChangeChannel is the NOTIFY channel written after every remote mutation.
const ChangeChannel = "catalog_materials_changed"

// Record is the remote row for one material.
type Record struct {
	ID        string          `gorm:"primaryKey;size:64"`
	Name      string          `gorm:"not null"`
	Article   string          `gorm:"size:128;not null;index"`
	Unit      string          `gorm:"size:32"`
	Price     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (Record) TableName() string { return "catalog_materials" }

// Remote is what the syncer needs from the remote side.
type Remote interface {
	SelectAll(ctx context.Context) ([]Record, error)
	Upsert(ctx context.Context, records []Record) error
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, onChange func()) error
	Close() error
}

// RecordStore is the Postgres-backed Remote.
type RecordStore struct {
	db  *gorm.DB
	dsn string
}

// OpenRecordStore connects and makes sure the table exists.
func OpenRecordStore(ctx context.Context, dsn string) (*RecordStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("remotesync: connect: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("remotesync: migrate: %w", err)
	}
	return &RecordStore{db: db, dsn: dsn}, nil
}

// SelectAll returns every record, most recently updated first.
func (s *RecordStore) SelectAll(ctx context.Context) ([]Record, error) {
	var out []Record
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("remotesync: select: %w", err)
	}
	return out, nil
}

// Upsert inserts or overwrites records by id.
func (s *RecordStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(records, 200).Error; err != nil {
			return err
		}
		return notify(tx)
	})
	if err != nil {
		return fmt.Errorf("remotesync: upsert: %w", err)
	}
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Record{}, "id = ?", id).Error; err != nil {
			return err
		}
		return notify(tx)
	})
	if err != nil {
		return fmt.Errorf("remotesync: delete: %w", err)
	}
	return nil
}

// Subscribe blocks, calling onChange once per notification, until ctx ends.
// Notifications carry no payload; receivers re-pull everything.
func (s *RecordStore) Subscribe(ctx context.Context, onChange func()) error {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("remotesync: listen connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		return fmt.Errorf("remotesync: listen: %w", err)
	}
	log.Info().Str("channel", ChangeChannel).Msg("remotesync: listening for remote changes")

	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("remotesync: wait: %w", err)
		}
		onChange()
	}
}

func (s *RecordStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notify(tx *gorm.DB) error {
	return tx.Exec("SELECT pg_notify(?, ?)", ChangeChannel, "changed").Error
}
