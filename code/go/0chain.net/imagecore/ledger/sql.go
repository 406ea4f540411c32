package ledger

import (
	"context"
	"fmt"

	"github.com/0chain/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/0chain/imagestore/code/go/0chain.net/core/common"
)

// SQLStore backs the ledger with a relational database for deployments
// that share one ledger across processes. Postgres in production, sqlite
// for dev mode and tests.
type SQLStore struct {
	db    *gorm.DB
	clock BlockClock
}

func OpenSQLStore(dialect, dsn string, clock BlockClock) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch dialect {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, common.NewErrorf("bad_ledger_backend", "unknown sql dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Throw(common.ErrStorage, "open sql ledger: "+err.Error())
	}

	if err := db.AutoMigrate(&MetadataEntity{}, &ChunkEntity{}); err != nil {
		return nil, errors.Throw(common.ErrStorage, "migrate sql ledger: "+err.Error())
	}

	return &SQLStore{db: db, clock: clock}, nil
}

func (s *SQLStore) StoreChunk(ctx context.Context, chunk *ChunkEntity) error {
	var existing ChunkEntity
	err := s.db.WithContext(ctx).
		Where("media_id = ? AND chunk_index = ?", chunk.MediaID, chunk.ChunkIndex).
		Take(&existing).Error

	switch {
	case err == nil:
		if s.clock.expired(existing.ExpirationBlock) {
			// Expired row under the same key: overwrite in place.
			err = s.db.WithContext(ctx).Model(&ChunkEntity{}).
				Where("media_id = ? AND chunk_index = ?", chunk.MediaID, chunk.ChunkIndex).
				Updates(map[string]interface{}{
					"data":             chunk.Data,
					"checksum":         chunk.Checksum,
					"expiration_block": chunk.ExpirationBlock,
				}).Error
			if err != nil {
				return errors.Throw(common.ErrStorage, err.Error())
			}
			return nil
		}
		if existing.Checksum == chunk.Checksum {
			return nil
		}
		return errors.Throw(ErrChecksumConflict,
			fmt.Sprintf("media %s chunk %d", chunk.MediaID, chunk.ChunkIndex))

	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(chunk).Error; err != nil {
			return errors.Throw(common.ErrStorage, err.Error())
		}
		return nil

	default:
		return errors.Throw(common.ErrStorage, err.Error())
	}
}

func (s *SQLStore) StoreMetadata(ctx context.Context, meta *MetadataEntity) error {
	if err := s.db.WithContext(ctx).Save(meta).Error; err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}
	return nil
}

func (s *SQLStore) GetMetadata(ctx context.Context, mediaID string) (*MetadataEntity, error) {
	var meta MetadataEntity
	err := s.db.WithContext(ctx).
		Where("media_id = ? AND expiration_block >= ?", mediaID, s.clock.CurrentBlock()).
		Take(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Throw(common.ErrNotFound, "media "+mediaID)
	}
	if err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}
	return &meta, nil
}

func (s *SQLStore) GetAllChunks(ctx context.Context, mediaID string) ([]*ChunkEntity, error) {
	var chunks []*ChunkEntity
	err := s.db.WithContext(ctx).
		Where("media_id = ? AND expiration_block >= ?", mediaID, s.clock.CurrentBlock()).
		Order("chunk_index asc").
		Find(&chunks).Error
	if err != nil {
		return nil, errors.Throw(common.ErrStorage, err.Error())
	}
	return chunks, nil
}

func (s *SQLStore) DeleteMedia(ctx context.Context, mediaID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", mediaID).Delete(&ChunkEntity{}).Error; err != nil {
			return err
		}
		return tx.Where("media_id = ?", mediaID).Delete(&MetadataEntity{}).Error
	})
	if err != nil {
		return errors.Throw(common.ErrStorage, err.Error())
	}
	return nil
}

func (s *SQLStore) CurrentBlock() int64 {
	return s.clock.CurrentBlock()
}

func (s *SQLStore) CalculateExpirationBlock(ttlDays int) int64 {
	return s.clock.CalculateExpirationBlock(ttlDays)
}

func (s *SQLStore) SweepExpired(ctx context.Context) (int64, error) {
	current := s.clock.CurrentBlock()

	chunks := s.db.WithContext(ctx).
		Where("expiration_block < ?", current).Delete(&ChunkEntity{})
	if chunks.Error != nil {
		return 0, errors.Throw(common.ErrStorage, chunks.Error.Error())
	}

	meta := s.db.WithContext(ctx).
		Where("expiration_block < ?", current).Delete(&MetadataEntity{})
	if meta.Error != nil {
		return chunks.RowsAffected, errors.Throw(common.ErrStorage, meta.Error.Error())
	}

	return chunks.RowsAffected + meta.RowsAffected, nil
}

func (s *SQLStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
